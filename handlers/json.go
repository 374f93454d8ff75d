package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// maxJSONBody bounds request bodies; avatars travel as data URIs inside them.
const maxJSONBody = 16 << 20

// writeJSON encodes data before touching the response, so an encoding
// failure becomes a 500 instead of a success status with an empty body.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var body bytes.Buffer
	if data != nil {
		if err := json.NewEncoder(&body).Encode(data); err != nil {
			WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to encode response: "+err.Error())
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = body.WriteTo(w)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
