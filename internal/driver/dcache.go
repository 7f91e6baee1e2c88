package driver

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"strobe/internal/design"
)

// SummaryCache stores schedule summaries on disk keyed by the combined
// design content and configuration digest. Thread-safe; a nil cache is
// valid and always misses.
type SummaryCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenSummaryCache initializes and returns a disk cache at the standard
// location for app, honoring XDG_CACHE_HOME.
func OpenSummaryCache(app string) (*SummaryCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &SummaryCache{dir: dir}, nil
}

func (c *SummaryCache) pathFor(key design.Digest) string {
	// Subdirectory "sums" keeps the cache root listable and easy to clear.
	return filepath.Join(c.dir, "sums", key.Hex()+".mp")
}

// Put serializes and writes a summary to the disk cache.
func (c *SummaryCache) Put(key design.Digest, s *design.Summary) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Debugf("driver: remove temp cache file: %v", err)
		}
	}()

	if err := design.EncodeSummary(f, s); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replace.
	return os.Rename(f.Name(), p)
}

// Get reads a summary from the disk cache. Decode failures count as
// misses: a stale or corrupt artifact must never fail a build.
func (c *SummaryCache) Get(key design.Digest) (*design.Summary, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Debugf("driver: close cache file: %v", closeErr)
		}
	}()
	s, err := design.DecodeSummary(f)
	if err != nil {
		log.Debugf("driver: stale cache entry %s: %v", hex.EncodeToString(key[:8]), err)
		return nil, false, nil
	}
	return s, true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *SummaryCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
