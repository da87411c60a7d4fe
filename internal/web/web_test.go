package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/tonswap/internal/apperror"
	"github.com/fd1az/tonswap/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

func TestAllowedOrigin(t *testing.T) {
	allowed := []string{"https://tonapi.netlify.app", "http://localhost:4321"}

	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    string
	}{
		{name: "listed origin echoed", origin: "http://localhost:4321", allowed: allowed, want: "http://localhost:4321"},
		{name: "unknown origin gets first", origin: "https://evil.example", allowed: allowed, want: "https://tonapi.netlify.app"},
		{name: "no origin gets first", origin: "", allowed: allowed, want: "https://tonapi.netlify.app"},
		{name: "empty list allows all", origin: "https://any.example", want: "*"},
		{name: "wildcard in list", origin: "https://any.example", allowed: []string{"https://a", "*"}, want: "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllowedOrigin(tt.origin, tt.allowed); got != tt.want {
				t.Errorf("AllowedOrigin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServer_RoutesWithMiddlewares(t *testing.T) {
	s := NewServer(":0", 0, nil, &mockLogger{})
	s.Router().HandleFunc("/estimate", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, apperror.New(apperror.CodeMissingParameter))
	}).Methods(http.MethodPost, http.MethodOptions)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	t.Run("preflight", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/estimate", nil)
		req.Header.Set("Origin", "http://localhost:4321")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d", resp.StatusCode)
		}
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("allow origin = %q", resp.Header.Get("Access-Control-Allow-Origin"))
		}
		if resp.Header.Get("Access-Control-Max-Age") != "86400" {
			t.Errorf("max age = %q", resp.Header.Get("Access-Control-Max-Age"))
		}
	})

	t.Run("error status", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/estimate", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
		if resp.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
		}
	})
}
