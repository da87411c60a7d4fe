package apm

import (
	"context"
	"errors"
	"testing"

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

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders("x-honeycomb-team=abc, api-key=k=v ,broken,=x")
	if len(got) != 2 || got["x-honeycomb-team"] != "abc" || got["api-key"] != "k=v" {
		t.Errorf("ParseHeaders = %v", got)
	}
}

func TestNewTraceProvider(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		tp, err := NewTraceProvider(&mockLogger{}, WithProvider(EmptyProvider))
		if err != nil {
			t.Fatal(err)
		}
		if err := tp.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	})

	t.Run("console", func(t *testing.T) {
		tp, err := NewTraceProvider(&mockLogger{}, WithProvider(ConsoleProvider), WithServiceName("tonswap"))
		if err != nil {
			t.Fatal(err)
		}
		_, span := NewTracer("test").StartSpanFromContext(context.Background(), "op")
		span.NoticeError(errors.New("boom"))
		span.End()
		if err := tp.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		tp, err := NewTraceProvider(&mockLogger{}, WithProvider("jaeger"))
		if err == nil {
			t.Fatal("expected error for unknown provider")
		}
		if tp == nil || tp.Stop() != nil {
			t.Error("fallback provider must be usable")
		}
	})
}
