package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

// AssetServer serves a single in-memory file. A zero maxAge makes browsers
// revalidate on every load, which the service worker script needs so a new
// cache name is picked up.
func AssetServer(name string, content []byte, maxAge time.Duration) http.HandlerFunc {
	modTime := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		if maxAge > 0 {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
			w.Header().Set("Expires", time.Now().Add(maxAge).Format(http.TimeFormat))
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		http.ServeContent(w, r, name, modTime, bytes.NewReader(content))
	}
}
