package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trumchinese/tutor-agent/pkg/server/config"
)

func corsConfig(origins ...string) config.Config {
	allowed := make(map[string]struct{})
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return config.Config{CORSAllowedOrigins: allowed}
}

func TestCORS_WildcardAllowsAnyOrigin(t *testing.T) {
	h := CORS(corsConfig("*"), okHandler())

	req := httptest.NewRequest(http.MethodGet, "/chinese-categories", nil)
	req.Header.Set("Origin", "https://anywhere.example")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORS_WildcardPreflight(t *testing.T) {
	h := CORS(corsConfig("*"), okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/getToken", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatal("missing Access-Control-Allow-Methods")
	}
}

func TestCORS_AllowlistedOriginEchoed(t *testing.T) {
	h := CORS(corsConfig("https://app.example"), okHandler())

	req := httptest.NewRequest(http.MethodGet, "/chinese-categories", nil)
	req.Header.Set("Origin", "https://app.example")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORS_UnlistedOriginDenied(t *testing.T) {
	h := CORS(corsConfig("https://app.example"), okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/getToken", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("preflight status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/chinese-categories", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want unset", got)
	}
}
