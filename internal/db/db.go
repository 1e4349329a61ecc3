// Package db declares the storage contract of the photo index: pipelined
// hash writes, a small key-value cache and FT index lifecycle plus KNN search.
package db

import (
	"context"
	"time"
)

// Store is everything the service needs from the index engine.
type Store interface {
	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()

	HashWriter
	Cache
	Indexer
	Searcher
}

// HashSetItem is one HSET: a key and its field/value pairs.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashWriter writes photo documents.
type HashWriter interface {
	// HSetMulti pipelines one HSET per item. errs[i] is the server's verdict
	// on items[i]; a non-nil error means nothing could be sent or answered.
	HSetMulti(ctx context.Context, items []HashSetItem) (errs []error, err error)
}

// Cache stores opaque values with an expiry.
type Cache interface {
	// Get returns ErrKeyNotFound for a missing or expired key.
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Indexer manages the FT index lifecycle.
type Indexer interface {
	// CreateIndex returns ErrIndexExists if the name is taken.
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	// DropIndex returns ErrIndexNotFound for an unknown name. With deleteDocs
	// the indexed hashes are removed as well (FT.DROPINDEX ... DD).
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
}

// Searcher runs vector queries.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
