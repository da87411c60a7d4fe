package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	quotingdomain "github.com/fd1az/tonswap/business/quoting/domain"
	"github.com/fd1az/tonswap/business/session/domain"
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

// fakePrices answers every pair with an entry named after the pair.
type fakePrices struct{}

func (fakePrices) Prices(ctx context.Context, pairs []string) map[string]quotingdomain.PriceEntry {
	out := make(map[string]quotingdomain.PriceEntry, len(pairs))
	for _, p := range pairs {
		out[p] = quotingdomain.PriceEntry{Dex: "dedust", Address: p}
	}
	return out
}

type fakeSink struct {
	id  string
	err error

	mu      sync.Mutex
	updates []domain.PriceUpdate
	signal  chan struct{}
}

func newFakeSink(id string) *fakeSink {
	return &fakeSink{id: id, signal: make(chan struct{}, 64)}
}

func (f *fakeSink) ID() string { return f.id }

func (f *fakeSink) PushPrices(ctx context.Context, update domain.PriceUpdate) error {
	f.mu.Lock()
	f.updates = append(f.updates, update)
	f.mu.Unlock()

	select {
	case f.signal <- struct{}{}:
	default:
	}
	return f.err
}

func (f *fakeSink) received() []domain.PriceUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.PriceUpdate(nil), f.updates...)
}

func (f *fakeSink) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("no price update delivered")
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(fakePrices{}, Options{
		DefaultInterval: 20 * time.Millisecond,
		MinInterval:     5 * time.Millisecond,
	}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestManager_Interval(t *testing.T) {
	m, err := NewManager(fakePrices{}, Options{}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	tests := []struct {
		name      string
		requested time.Duration
		want      time.Duration
	}{
		{"zero uses default", 0, DefaultInterval},
		{"negative uses default", -time.Second, DefaultInterval},
		{"below floor", 100 * time.Millisecond, DefaultMinInterval},
		{"at floor", DefaultMinInterval, DefaultMinInterval},
		{"above floor", 5 * time.Second, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Interval(tt.requested); got != tt.want {
				t.Errorf("Interval(%v) = %v, want %v", tt.requested, got, tt.want)
			}
		})
	}
}

func TestManager_SubscribeDeliversUpdates(t *testing.T) {
	m := newTestManager(t)
	sink := newFakeSink("client-1")
	id := m.Connect(sink)
	defer m.Disconnect(id)

	if id != "client-1" {
		t.Fatalf("Connect() = %q, want sink id", id)
	}

	sub, err := m.Subscribe(context.Background(), id, []string{"TON/USDT"}, 0)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if sub.Interval != 20*time.Millisecond {
		t.Errorf("Interval = %v, want configured default", sub.Interval)
	}

	sink.wait(t)

	updates := sink.received()
	if _, ok := updates[0].Prices["TON/USDT"]; !ok {
		t.Errorf("update prices = %v, want TON/USDT", updates[0].Prices)
	}
	if updates[0].Timestamp.IsZero() {
		t.Error("update timestamp not set")
	}

	view, ok := m.Session(id)
	if !ok {
		t.Fatal("Session() not found")
	}
	if view.State != domain.StateSubscribed {
		t.Errorf("State = %v, want %v", view.State, domain.StateSubscribed)
	}
	if view.Subscription == nil || view.Subscription.Pairs[0] != "TON/USDT" {
		t.Errorf("Subscription = %+v", view.Subscription)
	}
}

func TestManager_ResubscribeReplacesTask(t *testing.T) {
	m := newTestManager(t)
	sink := newFakeSink("client-1")
	id := m.Connect(sink)
	defer m.Disconnect(id)

	ctx := context.Background()
	if _, err := m.Subscribe(ctx, id, []string{"OLD/PAIR"}, 5*time.Millisecond); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	sink.wait(t)

	if _, err := m.Subscribe(ctx, id, []string{"NEW/PAIR"}, 5*time.Millisecond); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	before := len(sink.received())

	// Let several ticks pass.
	time.Sleep(60 * time.Millisecond)

	after := sink.received()[before:]
	if len(after) == 0 {
		t.Fatal("no updates after resubscribe")
	}
	for _, u := range after {
		if _, ok := u.Prices["OLD/PAIR"]; ok {
			t.Fatal("update from replaced subscription delivered")
		}
	}

	if _, subs := m.Stats(); subs != 1 {
		t.Errorf("subscriptions = %d, want 1", subs)
	}
}

func TestManager_NoPushAfterDisconnect(t *testing.T) {
	m := newTestManager(t)
	sink := newFakeSink("client-1")
	id := m.Connect(sink)

	if _, err := m.Subscribe(context.Background(), id, []string{"TON/USDT"}, 5*time.Millisecond); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	sink.wait(t)

	m.Disconnect(id)
	count := len(sink.received())

	time.Sleep(40 * time.Millisecond)

	if got := len(sink.received()); got != count {
		t.Errorf("updates after disconnect = %d, want %d", got, count)
	}

	// Second call is a no-op.
	m.Disconnect(id)

	if _, ok := m.Session(id); ok {
		t.Error("session still registered after disconnect")
	}
	if _, err := m.Subscribe(context.Background(), id, nil, 0); apperror.GetCode(err) != apperror.CodeSessionNotFound {
		t.Errorf("Subscribe() after disconnect code = %v, want %v", apperror.GetCode(err), apperror.CodeSessionNotFound)
	}
}

func TestManager_Unsubscribe(t *testing.T) {
	m := newTestManager(t)
	sink := newFakeSink("client-1")
	id := m.Connect(sink)
	defer m.Disconnect(id)

	t.Run("without subscription", func(t *testing.T) {
		if err := m.Unsubscribe(context.Background(), id); err != nil {
			t.Errorf("Unsubscribe() error = %v", err)
		}
	})

	t.Run("stops updates", func(t *testing.T) {
		if _, err := m.Subscribe(context.Background(), id, []string{"TON/USDT"}, 5*time.Millisecond); err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
		sink.wait(t)

		if err := m.Unsubscribe(context.Background(), id); err != nil {
			t.Fatalf("Unsubscribe() error = %v", err)
		}
		count := len(sink.received())
		time.Sleep(40 * time.Millisecond)

		if got := len(sink.received()); got != count {
			t.Errorf("updates after unsubscribe = %d, want %d", got, count)
		}

		view, _ := m.Session(id)
		if view.State != domain.StateConnected {
			t.Errorf("State = %v, want %v", view.State, domain.StateConnected)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		err := m.Unsubscribe(context.Background(), "missing")
		if apperror.GetCode(err) != apperror.CodeSessionNotFound {
			t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeSessionNotFound)
		}
	})
}

func TestManager_PushFailureKeepsSubscription(t *testing.T) {
	m := newTestManager(t)
	sink := newFakeSink("client-1")
	sink.err = errors.New("send failed")
	id := m.Connect(sink)
	defer m.Disconnect(id)

	if _, err := m.Subscribe(context.Background(), id, []string{"TON/USDT"}, 5*time.Millisecond); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	sink.wait(t)
	sink.wait(t)

	if _, subs := m.Stats(); subs != 1 {
		t.Errorf("subscriptions = %d, want 1", subs)
	}
}

func TestManager_StatsAndClose(t *testing.T) {
	m := newTestManager(t)
	a := m.Connect(newFakeSink("a"))
	m.Connect(newFakeSink("b"))

	if _, err := m.Subscribe(context.Background(), a, []string{"TON/USDT"}, time.Second); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	sessions, subs := m.Stats()
	if sessions != 2 || subs != 1 {
		t.Errorf("Stats() = (%d, %d), want (2, 1)", sessions, subs)
	}

	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	sessions, subs = m.Stats()
	if sessions != 0 || subs != 0 {
		t.Errorf("Stats() after Close = (%d, %d), want (0, 0)", sessions, subs)
	}
}
