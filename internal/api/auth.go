package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lorekeep-ai/lorekeep/internal/settings"
)

const defaultAuthHeader = "X-API-Key"

// apiKeyAuth rejects requests that do not carry one of the configured API
// keys, either in the configured header or as an Authorization bearer token.
// Keys are read from the current snapshot on every request so rotated keys
// apply as soon as the config reloads. With no keys configured every request
// is rejected.
type apiKeyAuth struct {
	provider settings.Provider
	logger   zerolog.Logger
}

func (a *apiKeyAuth) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header, keys := a.credentials()
		if !validKey(presentedKey(r, header), keys) {
			a.logger.Warn().
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Str("request_id", RequestID(r.Context())).
				Msg("rejected unauthenticated request")
			w.Header().Set("WWW-Authenticate", `Bearer realm="lorekeep"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *apiKeyAuth) credentials() (string, []string) {
	cfg, err := a.provider.Snapshot()
	if err != nil {
		a.logger.Error().Err(err).Msg("cannot read API keys")
		return defaultAuthHeader, nil
	}
	header := cfg.Auth.Header
	if header == "" {
		header = defaultAuthHeader
	}
	return header, cfg.Auth.APIKeys
}

func presentedKey(r *http.Request, header string) string {
	if key := r.Header.Get(header); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// validKey compares against every key so timing does not reveal which one matched.
func validKey(presented string, keys []string) bool {
	if presented == "" {
		return false
	}
	match := 0
	for _, k := range keys {
		if k == "" {
			continue
		}
		match |= subtle.ConstantTimeCompare([]byte(presented), []byte(k))
	}
	return match == 1
}
