// Package web embeds the application shell and serves it from a named,
// install-once asset cache.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strconv"

	"go.uber.org/zap"
)

//go:embed assets
var embedded embed.FS

// ShellAssets is the fixed set of paths installed into the cache.
var ShellAssets = []string{
	"/",
	"/index.html",
	"/styles.css",
	"/app.js",
	"/icon.svg",
	"/manifest.json",
}

const (
	ServiceWorkerPath    = "/sw.js"
	cacheNamePlaceholder = `"__CACHE_NAME__"`
)

// Assets returns the embedded shell files rooted at the assets directory.
func Assets() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewShellCache creates the cache called name and installs ShellAssets into it.
func NewShellCache(name string, logger *zap.Logger) (*Cache, error) {
	c := NewCache(name, logger)
	if err := c.Install(Assets(), ShellAssets); err != nil {
		return nil, err
	}
	return c, nil
}

// ServiceWorker returns sw.js with the cache name filled in so the browser
// cache and the server cache agree.
func ServiceWorker(cacheName string) ([]byte, error) {
	src, err := fs.ReadFile(Assets(), "sw.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read service worker: %w", err)
	}
	return bytes.Replace(src, []byte(cacheNamePlaceholder), []byte(strconv.Quote(cacheName)), 1), nil
}
