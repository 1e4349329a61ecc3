// Package redis implements db.Store on rueidis against Redis 8 or Valkey
// with the search module loaded.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/photosearch/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	defaultRequestTimeout = 30 * time.Second
	readyPollInterval     = 100 * time.Millisecond
)

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// RequestTimeout bounds each command or pipeline; zero means 30s.
	RequestTimeout time.Duration
}

// Store is a rueidis-backed db.Store. Safe for concurrent use.
type Store struct {
	client  rueidis.Client
	timeout time.Duration
}

// NewStore connects to the engine.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		// FT.SEARCH replies are parsed as RESP2 flat arrays.
		AlwaysRESP2: true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect %v: %w", cfg.Addrs, err)
	}
	return newStore(client, cfg.RequestTimeout), nil
}

func newStore(client rueidis.Client, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Store{client: client, timeout: timeout}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return wrapErr("PING", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings until the engine answers or timeout elapses.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(readyPollInterval)
	defer tick.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis: not ready after %s: %w", timeout, errors.Join(db.ErrUnavailable, ctx.Err()))
		case <-tick.C:
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Do(ctx, cmd)
}

func (s *Store) doMulti(ctx context.Context, cmds ...rueidis.Completed) []rueidis.RedisResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.DoMulti(ctx, cmds...)
}

// serverSays reports whether err is a server reply mentioning any of phrases.
func serverSays(err error, phrases ...string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	msg := strings.ToLower(re.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// unknownIndex matches both the Redis and the Valkey wording.
func unknownIndex(err error) bool {
	return serverSays(err, "unknown index name", "not found")
}

// wrapErr tags err with the command name. Anything that is not a server
// reply also matches db.ErrUnavailable.
func wrapErr(op db.Op, err error) error {
	if _, ok := rueidis.IsRedisErr(err); !ok {
		err = errors.Join(db.ErrUnavailable, err)
	}
	return &db.Error{Op: op, Err: err}
}
