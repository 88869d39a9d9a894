package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		apiKey     string
		authHeader string
		apiKeyHdr  string
		wantStatus int
	}{
		{"no key configured, open access", "", "", "", http.StatusOK},
		{"valid bearer token", "secret", "Bearer secret", "", http.StatusOK},
		{"bearer case-insensitive scheme", "secret", "bearer secret", "", http.StatusOK},
		{"valid x-api-key", "secret", "", "secret", http.StatusOK},
		{"wrong bearer token", "secret", "Bearer nope", "", http.StatusUnauthorized},
		{"wrong x-api-key", "secret", "", "nope", http.StatusUnauthorized},
		{"missing credentials", "secret", "", "", http.StatusUnauthorized},
		{"malformed authorization header", "secret", "secret", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Auth(tt.apiKey)(next)
			req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.apiKeyHdr != "" {
				req.Header.Set("X-API-Key", tt.apiKeyHdr)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
