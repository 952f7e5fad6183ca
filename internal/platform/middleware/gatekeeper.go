package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// GatekeeperConfig controls API-key enforcement on the public routes.
type GatekeeperConfig struct {
	// Key is the shared secret every external caller must present, either
	// as a `key` query parameter or an X-Api-Key header.
	Key string
	// PublicHost, when set, restricts keyed requests to that Host header.
	PublicHost string
}

// Gatekeeper enforces the shared API key on every request. Same-origin
// calls, identified by a Referer pointing back at this host, pass through
// without a key so kiosk pages can call their own backend.
func Gatekeeper(cfg GatekeeperConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sameOrigin(r) {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.URL.Query().Get("key")
			if provided == "" {
				provided = r.Header.Get("X-Api-Key")
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.Key)) != 1 {
				unauthorized(w, "Missing or invalid key")
				return
			}

			if cfg.PublicHost != "" && r.Host != cfg.PublicHost {
				unauthorized(w, "Unauthorized origin")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func sameOrigin(r *http.Request) bool {
	referer := r.Header.Get("Referer")
	if referer == "" {
		return false
	}
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(referer, scheme+r.Host+"/") || referer == scheme+r.Host {
			return true
		}
	}
	return false
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
