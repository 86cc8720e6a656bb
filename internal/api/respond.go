package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/lorekeep-ai/lorekeep/pkg/protocol"
)

// writeJSON encodes v before touching w, so an encoding failure can still be
// reported as a clean 500.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

func writeError(w http.ResponseWriter, status int, msg string) {
	// protocol.ErrorResponse always encodes.
	_ = writeJSON(w, status, protocol.ErrorResponse{Error: msg})
}
