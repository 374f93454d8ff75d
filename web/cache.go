package web

import (
	"bytes"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// MaxAge is how long browsers may reuse a cached asset without revalidating.
const MaxAge = 24 * time.Hour

// Entry is one cached response.
type Entry struct {
	Path        string
	ContentType string
	ETag        string
	Body        []byte
	Gzipped     []byte
}

// Cache holds shell responses by request path. Entries are added at install
// time and stay until Clear; there is no invalidation or versioning other than
// creating a cache under a different name.
type Cache struct {
	name    string
	mu      sync.RWMutex
	entries map[string]*Entry
	logger  *zap.Logger
}

func NewCache(name string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		name:    name,
		entries: make(map[string]*Entry),
		logger:  logger.Named("cache").With(zap.String("cache", name)),
	}
}

func (c *Cache) Name() string { return c.name }

// Install reads every path from fsys and adds it to the cache. "/" is served
// from index.html. Nothing is added unless every path can be read.
func (c *Cache) Install(fsys fs.FS, paths []string) error {
	staged := make(map[string]*Entry, len(paths))
	for _, p := range paths {
		e, err := c.load(fsys, p)
		if err != nil {
			return err
		}
		staged[p] = e
	}

	c.mu.Lock()
	for p, e := range staged {
		c.entries[p] = e
	}
	c.mu.Unlock()
	c.logger.Info("installed assets", zap.Int("count", len(staged)))
	return nil
}

func (c *Cache) load(fsys fs.FS, urlPath string) (*Entry, error) {
	file := strings.TrimPrefix(urlPath, "/")
	if file == "" {
		file = "index.html"
	}
	body, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("failed to cache %s: %w", urlPath, err)
	}

	ctype := mime.TypeByExtension(path.Ext(file))
	if ctype == "" {
		ctype = mimetype.Detect(body).String()
	}

	var gz bytes.Buffer
	zw, err := gzip.NewWriterLevel(&gz, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(body); err != nil {
		return nil, fmt.Errorf("failed to compress %s: %w", urlPath, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress %s: %w", urlPath, err)
	}

	return &Entry{
		Path:        urlPath,
		ContentType: ctype,
		ETag:        fmt.Sprintf(`"%s-%016x"`, c.name, xxhash.Sum64String(urlPath+"\x00"+string(body))),
		Body:        body,
		Gzipped:     gz.Bytes(),
	}, nil
}

// Match returns the cached entry for a request path.
func (c *Cache) Match(urlPath string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[urlPath]
	return e, ok
}

// Paths lists the cached request paths in order.
func (c *Cache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for p := range c.entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry)
	c.mu.Unlock()
	c.logger.Info("cleared")
}

// Handler serves GET and HEAD requests from the cache and passes everything
// else, including misses, to next.
func (c *Cache) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		e, ok := c.Match(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Content-Type", e.ContentType)
		h.Set("ETag", e.ETag)
		h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(MaxAge.Seconds())))
		h.Set("Vary", "Accept-Encoding")

		if etagMatches(r.Header.Get("If-None-Match"), e.ETag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		body := e.Body
		if acceptsGzip(r) && len(e.Gzipped) < len(e.Body) {
			h.Set("Content-Encoding", "gzip")
			body = e.Gzipped
		}
		h.Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := w.Write(body); err != nil {
			c.logger.Debug("failed to write cached asset", zap.String("path", e.Path), zap.Error(err))
		}
	})
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func acceptsGzip(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "gzip") {
			return true
		}
	}
	return false
}
