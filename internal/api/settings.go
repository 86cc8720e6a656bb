package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lorekeep-ai/lorekeep/internal/settings"
)

// settingsErrorMessage is the only failure detail clients ever see.
const settingsErrorMessage = "Failed to get settings"

// SettingsHandler serves the read-only exposed view of the configuration.
// Callers are expected to be authenticated already.
type SettingsHandler struct {
	provider settings.Provider
	logger   zerolog.Logger
}

// NewSettingsHandler creates a SettingsHandler reading from provider.
func NewSettingsHandler(provider settings.Provider, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		provider: provider,
		logger:   logger.With().Str("component", "settings-handler").Logger(),
	}
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := h.render()
	if err != nil {
		h.logger.Error().Err(err).
			Str("request_id", RequestID(r.Context())).
			Msg(settingsErrorMessage)
		writeError(w, http.StatusInternalServerError, settingsErrorMessage)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// render reads the snapshot and encodes its exposed view. Panics in the read
// path come back as errors.
func (h *SettingsHandler) render() (body []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic reading settings: %v", p)
		}
	}()

	if h.provider == nil {
		return nil, &settings.Error{Kind: settings.KindNotLoaded, Err: fmt.Errorf("no configuration provider")}
	}
	cfg, err := h.provider.Snapshot()
	if err != nil {
		return nil, err
	}
	view, err := settings.Project(cfg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(view); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return buf.Bytes(), nil
}
