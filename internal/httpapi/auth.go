package httpapi

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/kayp514/vgtpbx-cloudmvp-sub000/internal/config"
)

// XMLCurlBasicAuth guards the xml_curl bindings with HTTP Basic auth when
// credentials are configured. Left unset, the middleware is a no-op so lab
// switches can talk to the responder unauthenticated.
func XMLCurlBasicAuth(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.XMLCurlUser == "" {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Basic ") {
				w.Header().Set("WWW-Authenticate", `Basic realm="fsxml"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			payload, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
			parts := strings.SplitN(string(payload), ":", 2)
			if len(parts) != 2 ||
				subtle.ConstantTimeCompare([]byte(parts[0]), []byte(cfg.XMLCurlUser)) != 1 ||
				subtle.ConstantTimeCompare([]byte(parts[1]), []byte(cfg.XMLCurlPass)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
