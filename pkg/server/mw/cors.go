package mw

import (
	"net/http"
	"strings"

	"github.com/trumchinese/tutor-agent/pkg/server/config"
)

var corsAllowedMethods = "GET, OPTIONS"

var corsAllowedHeaders = strings.Join([]string{
	"Authorization",
	"Content-Type",
	"X-Request-ID",
}, ", ")

// CORS attaches cross-origin headers for allowlisted origins. A "*" entry in
// the allowlist permits every origin; the browser clients the original
// deployment served were hosted off-domain.
func CORS(cfg config.Config, next http.Handler) http.Handler {
	allowed := cfg.CORSAllowedOrigins
	_, wildcard := allowed["*"]
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		originAllowed := wildcard
		if !originAllowed && origin != "" {
			_, originAllowed = allowed[origin]
		}

		// Preflight: explicitly allow/deny so browser callers get deterministic behavior.
		if r.Method == http.MethodOptions && strings.TrimSpace(r.Header.Get("Access-Control-Request-Method")) != "" {
			if origin == "" || !originAllowed {
				http.Error(w, "cors preflight not allowed", http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", corsOrigin(origin, wildcard))
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if origin != "" && originAllowed {
			w.Header().Set("Access-Control-Allow-Origin", corsOrigin(origin, wildcard))
			w.Header().Set("Vary", "Origin")
		}

		next.ServeHTTP(w, r)
	})
}

func corsOrigin(origin string, wildcard bool) string {
	if wildcard {
		return "*"
	}
	return origin
}
