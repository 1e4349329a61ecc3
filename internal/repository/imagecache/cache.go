// Package imagecache locates photo files in a sharded local cache and
// downloads missing ones from the remote origin.
package imagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// Config configures a Cache.
type Config struct {
	Dir         string
	URLTemplate string // {photo_id} and {extension} placeholders
	Timeout     time.Duration
}

// Cache resolves and fills the local image cache. Safe for concurrent use:
// concurrent fetches of the same path race only on the final rename.
type Cache struct {
	dir         string
	urlTemplate string
	client      *http.Client
	logger      *zap.Logger
}

// New creates an image cache.
func New(cfg Config, logger *zap.Logger) *Cache {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Cache{
		dir:         cfg.Dir,
		urlTemplate: cfg.URLTemplate,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Resolve returns the cache path for a photo: <dir>/<h[0:2]>/<h[2:4]>/<id>.<ext>
// where h is the hex SHA-256 of the photo id.
func (c *Cache) Resolve(photoID, ext string) string {
	sum := sha256.Sum256([]byte(photoID))
	h := hex.EncodeToString(sum[:])
	return filepath.Join(c.dir, h[0:2], h[2:4], photoID+"."+ext)
}

// URL renders the remote origin URL for a photo.
func (c *Cache) URL(photoID, ext string) string {
	return strings.NewReplacer("{photo_id}", photoID, "{extension}", ext).Replace(c.urlTemplate)
}

// Fetch makes sure localPath exists, downloading it when missing.
// Failures are logged and reported as false.
func (c *Cache) Fetch(ctx context.Context, photoID, ext, localPath string) bool {
	if _, err := os.Stat(localPath); err == nil {
		metrics.ImageDownloadsTotal.WithLabelValues("cached").Inc()
		return true
	}

	url := c.URL(photoID, ext)
	n, err := c.download(ctx, url, localPath)
	if err != nil {
		metrics.ImageDownloadsTotal.WithLabelValues("failed").Inc()
		c.logger.Warn("Image download failed",
			zap.String("photo_id", photoID),
			zap.String("url", url),
			zap.Error(err),
		)
		return false
	}

	metrics.ImageDownloadsTotal.WithLabelValues("downloaded").Inc()
	metrics.ImageDownloadBytes.Add(float64(n))
	c.logger.Debug("Image downloaded",
		zap.String("photo_id", photoID),
		zap.String("path", localPath),
		zap.Int64("bytes", n),
	)
	return true
}

// Ensure resolves the cache path and fetches the file if needed.
func (c *Cache) Ensure(ctx context.Context, photoID, ext string) (string, bool) {
	path := c.Resolve(photoID, ext)
	return path, c.Fetch(ctx, photoID, ext, path)
}

// ReadImage returns the bytes of a cached image.
func (c *Cache) ReadImage(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	return data, nil
}

func (c *Cache) download(ctx context.Context, url, outPath string) (int64, error) {
	cleanPath := filepath.Clean(outPath)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o750); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}

	// Unique tmp name so concurrent fetches of one photo never share a file.
	f, err := os.CreateTemp(filepath.Dir(cleanPath), filepath.Base(cleanPath)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("open tmp: %w", err)
	}
	tmpPath := f.Name()

	written, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("write: %w", err)
	}

	if err := os.Rename(tmpPath, cleanPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("rename: %w", err)
	}
	return written, nil
}
