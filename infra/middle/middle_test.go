package middle

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := SecurityHeadersMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
	for key, want := range headers {
		if got := rec.Header().Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("Strict-Transport-Security must be set")
	}
}

func TestRequestValidationMiddleware(t *testing.T) {
	handler := RequestValidationMiddleware()(okHandler())

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		wantCode    int
	}{
		{
			name:        "JSON post accepted",
			method:      http.MethodPost,
			path:        "/orders",
			contentType: "application/json",
			wantCode:    http.StatusOK,
		},
		{
			name:        "Form post rejected outside IPN",
			method:      http.MethodPost,
			path:        "/orders",
			contentType: "application/x-www-form-urlencoded",
			wantCode:    http.StatusUnsupportedMediaType,
		},
		{
			name:        "Form post accepted on IPN endpoint",
			method:      http.MethodPost,
			path:        "/plugins/payments-twocheckout/ipn",
			contentType: "application/x-www-form-urlencoded",
			wantCode:    http.StatusOK,
		},
		{
			name:        "JSON post accepted on IPN endpoint",
			method:      http.MethodPost,
			path:        "/plugins/payments-twocheckout/ipn",
			contentType: "application/json",
			wantCode:    http.StatusOK,
		},
		{
			name:        "XML post rejected on IPN endpoint",
			method:      http.MethodPost,
			path:        "/plugins/payments-twocheckout/ipn",
			contentType: "text/xml",
			wantCode:    http.StatusUnsupportedMediaType,
		},
		{
			name:     "Missing content type rejected outside IPN",
			method:   http.MethodPost,
			path:     "/orders",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "Missing content type tolerated on IPN endpoint",
			method:   http.MethodPost,
			path:     "/plugins/payments-twocheckout/ipn",
			wantCode: http.StatusOK,
		},
		{
			name:     "GET is not content checked",
			method:   http.MethodGet,
			path:     "/orders",
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestRequestValidationMiddleware_OversizedBody(t *testing.T) {
	handler := RequestValidationMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = 2 * 1024 * 1024

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "X-Forwarded-For single",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5"},
			want:       "203.0.113.5",
		},
		{
			name:       "X-Forwarded-For chain uses first hop",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"},
			want:       "203.0.113.5",
		},
		{
			name:       "X-Real-IP fallback",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "RemoteAddr fallback",
			remoteAddr: "203.0.113.9:5678",
			want:       "203.0.113.9",
		},
		{
			name:       "IPv6 loopback",
			remoteAddr: "[::1]:5678",
			want:       "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}

			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
