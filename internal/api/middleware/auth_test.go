package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func guarded(token string) http.Handler {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return AdminToken(token)(handler)
}

func TestAdminToken_Success(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()

	guarded("s3cret").ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminToken_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		header  string
		message string
	}{
		{"missing header", "s3cret", "", "missing authorization header"},
		{"invalid format", "s3cret", "Basic abc123", "invalid authorization format"},
		{"wrong token", "s3cret", "Bearer nope", "invalid admin token"},
		{"disabled", "", "Bearer anything", "admin endpoints are disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AdminToken(tt.token)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
		})
	}
}
