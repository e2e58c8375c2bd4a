package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"docprofile/internal/diag"
	"docprofile/internal/schemareg"
)

// Current schema version - increment when CachedReport format changes
const reportCacheSchemaVersion uint16 = 1

// Digest is a SHA-256 cache key.
type Digest [32]byte

// String returns the hex form of d.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// CacheKey derives the key of a document: its raw bytes combined with the
// digest of everything else that shapes the report (schemas, profiles,
// report options).
func CacheKey(raw []byte, config Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(config[:])
	_, _ = h.Write(raw)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// ConfigDigest hashes the parts of the configuration a report depends on.
func ConfigDigest(parts ...string) Digest {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// ReportCache stores reports on disk keyed by Digest.
// Thread-safe for concurrent access.
type ReportCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedReport is the on-disk form of a validation result.
type CachedReport struct {
	Schema    uint16      `msgpack:"schema"`
	Key       Digest      `msgpack:"key"`
	Report    diag.Report `msgpack:"report"`
	Namespace string      `msgpack:"namespace"`
	Version   int         `msgpack:"version"`
	State     LoadState   `msgpack:"state"`
	Outcome   string      `msgpack:"outcome"`
	Stored    time.Time   `msgpack:"stored"`
}

const (
	outcomeNotLoaded   = "not-loaded"
	outcomeUnsupported = "unsupported-namespace"
)

func newCachedReport(res *Result) *CachedReport {
	cr := &CachedReport{Report: res.Report, State: res.State, Stored: time.Now().UTC()}
	if res.Entry != nil {
		cr.Namespace = res.Entry.Namespace
		cr.Version = res.Entry.Version
	}
	switch {
	case errors.Is(res.Err, ErrNotLoaded):
		cr.Outcome = outcomeNotLoaded
	case errors.Is(res.Err, ErrUnsupportedNamespace):
		cr.Outcome = outcomeUnsupported
	}
	return cr
}

// Result rebuilds the validation result of a cached report.
func (cr *CachedReport) Result(file string) *Result {
	res := &Result{File: file, Report: cr.Report, State: cr.State}
	res.Report.Document = file
	if cr.Namespace != "" {
		res.Entry = &schemareg.Entry{Namespace: cr.Namespace, Version: cr.Version}
	}
	switch cr.Outcome {
	case outcomeNotLoaded:
		res.Err = ErrNotLoaded
	case outcomeUnsupported:
		res.Err = ErrUnsupportedNamespace
	}
	return res
}

// OpenReportCache opens the cache at dir, or at the user cache directory
// when dir is empty.
func OpenReportCache(dir string) (*ReportCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "docprofile")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &ReportCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *ReportCache) Dir() string { return c.dir }

func (c *ReportCache) pathFor(key Digest) string {
	hexKey := key.String()
	return filepath.Join(c.dir, "reports", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a report to the cache.
func (c *ReportCache) Put(key Digest, payload *CachedReport) (err error) {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = reportCacheSchemaVersion
	payload.Key = key

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(f.Name(), p)
}

// Get reads a report from the cache. Entries of another schema version or
// key count as misses.
func (c *ReportCache) Get(key Digest) (*CachedReport, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var out CachedReport
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	if out.Schema != reportCacheSchemaVersion || out.Key != key {
		return nil, false, nil
	}
	return &out, true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *ReportCache) DropAll() error {
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
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
