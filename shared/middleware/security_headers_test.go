package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityHeadersWithCSP(t *testing.T) {
	t.Run("plain http without csp", func(t *testing.T) {
		w := httptest.NewRecorder()
		SecurityHeadersWithCSP(false, "")(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		assert.Empty(t, w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("https with csp", func(t *testing.T) {
		w := httptest.NewRecorder()
		SecurityHeadersWithCSP(true, "default-src 'none'")(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
		assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=")
	})
}
