package dataprocessing

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const loaderKeyPrefix = "workbook:"

// LoaderStats reports memoization effectiveness.
type LoaderStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Loader parses uploaded workbooks and memoizes the result by content, so a
// re-upload of the same bytes does not parse the file again.
type Loader struct {
	cache  *gocache.Cache
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewLoader creates a loader whose memo entries expire after ttl.
func NewLoader(ttl time.Duration, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Loader{
		cache:  gocache.New(ttl, ttl*2),
		logger: logger.With(slog.String("component", "loader")),
	}
}

// ContentKey returns the memo key for data.
func ContentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return loaderKeyPrefix + hex.EncodeToString(sum[:])
}

// Load returns the table for an uploaded workbook and whether it came from
// the memo. The returned table is never shared with other callers.
func (l *Loader) Load(ctx context.Context, source string, data []byte) (*Table, bool, error) {
	key := ContentKey(data)
	if cached, ok := l.cache.Get(key); ok {
		l.hits.Add(1)
		l.logger.DebugContext(ctx, "workbook cache hit", slog.String("source", source))
		return cached.(*Table).Clone(), true, nil
	}
	l.misses.Add(1)

	if len(data) == 0 {
		return nil, false, &LoadError{Source: source, Reason: "upload is empty", Err: ErrNoColumns}
	}

	start := time.Now()
	t, err := ReadWorkbook(bytes.NewReader(data), source)
	if err != nil {
		l.logger.WarnContext(ctx, "workbook rejected",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return nil, false, err
	}

	l.cache.Set(key, t, gocache.DefaultExpiration)
	l.logger.InfoContext(ctx, "workbook loaded",
		slog.String("source", source),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.columns)),
		slog.Duration("duration", time.Since(start)))
	return t.Clone(), false, nil
}

// Stats returns hit/miss counters.
func (l *Loader) Stats() LoaderStats {
	return LoaderStats{
		Hits:    l.hits.Load(),
		Misses:  l.misses.Load(),
		Entries: l.cache.ItemCount(),
	}
}

// Flush drops every memoized workbook.
func (l *Loader) Flush() {
	l.cache.Flush()
}
