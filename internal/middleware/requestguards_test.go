package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"get without content type", http.MethodGet, "", http.StatusOK},
		{"post without content type", http.MethodPost, "", http.StatusBadRequest},
		{"post with json", http.MethodPost, "application/json", http.StatusOK},
		{"post with json and charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"put with form encoding", http.MethodPut, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"patch with text", http.MethodPatch, "text/plain", http.StatusUnsupportedMediaType},
	}

	handler := ContentType(okHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/habits", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	handler := MaxRequestSize(64)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/habits", strings.NewReader(strings.Repeat("x", 128)))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413 for oversized body, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/habits", strings.NewReader("{}"))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for small body, got %d", w.Code)
	}
}

func TestTimeout_CutsOffSlowHandlers(t *testing.T) {
	t.Parallel()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		w.WriteHeader(http.StatusOK)
	})

	handler := Timeout(20 * time.Millisecond)(slow)
	req := httptest.NewRequest(http.MethodGet, "/habits", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 after timeout, got %d", w.Code)
	}
}

func TestTimeout_PassesFastHandlers(t *testing.T) {
	t.Parallel()

	handler := Timeout(time.Second)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/habits", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}
