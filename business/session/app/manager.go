// Package app manages client sessions and their price subscriptions.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	quotingdomain "github.com/fd1az/tonswap/business/quoting/domain"
	"github.com/fd1az/tonswap/business/session/domain"
	"github.com/fd1az/tonswap/internal/apperror"
	"github.com/fd1az/tonswap/internal/logger"
)

const (
	meterName = "session"

	DefaultInterval    = 3 * time.Second
	DefaultMinInterval = 500 * time.Millisecond
)

// PriceSource builds the price view for a set of pairs.
type PriceSource interface {
	Prices(ctx context.Context, pairs []string) map[string]quotingdomain.PriceEntry
}

// Sink delivers pushes to one client.
type Sink interface {
	ID() string
	PushPrices(ctx context.Context, update domain.PriceUpdate) error
}

// Options configures subscription timing.
type Options struct {
	DefaultInterval time.Duration
	MinInterval     time.Duration
}

type managerMetrics struct {
	activeSessions metric.Int64UpDownCounter
	priceUpdates   metric.Int64Counter
	pushFailures   metric.Int64Counter
}

// task is one running refresh loop.
type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *task) stop() {
	if t == nil {
		return
	}
	t.cancel()
	<-t.done
}

type session struct {
	id          string
	sink        Sink
	connectedAt time.Time

	mu    sync.Mutex
	alive bool
	// gen changes on every subscribe, unsubscribe and disconnect. A tick is
	// delivered only if the generation it started under is still current.
	gen  uint64
	task *task
	sub  *domain.Subscription
}

// Manager owns the session registry. Refresh tasks run outside the
// registry lock.
type Manager struct {
	prices PriceSource
	opts   Options
	logger logger.LoggerInterface

	mu       sync.Mutex
	sessions map[string]*session

	metrics *managerMetrics
}

// NewManager creates a session manager.
func NewManager(prices PriceSource, opts Options, log logger.LoggerInterface) (*Manager, error) {
	if opts.DefaultInterval <= 0 {
		opts.DefaultInterval = DefaultInterval
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}

	m := &Manager{
		prices:   prices,
		opts:     opts,
		logger:   log,
		sessions: make(map[string]*session),
	}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return m, nil
}

func (m *Manager) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	m.metrics = &managerMetrics{}

	m.metrics.activeSessions, err = meter.Int64UpDownCounter(
		"ws_sessions_active",
		metric.WithDescription("Connected WebSocket sessions"),
	)
	if err != nil {
		return err
	}

	m.metrics.priceUpdates, err = meter.Int64Counter(
		"price_updates_pushed_total",
		metric.WithDescription("Price updates delivered to subscribers"),
	)
	if err != nil {
		return err
	}

	m.metrics.pushFailures, err = meter.Int64Counter(
		"price_update_failures_total",
		metric.WithDescription("Price updates that could not be delivered"),
	)
	return err
}

// Connect registers a session for sink and returns its id.
func (m *Manager) Connect(sink Sink) string {
	s := &session{
		id:          sink.ID(),
		sink:        sink,
		connectedAt: time.Now(),
		alive:       true,
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.metrics.activeSessions.Add(context.Background(), 1)
	return s.id
}

// Interval applies the default and the floor to a requested period.
func (m *Manager) Interval(requested time.Duration) time.Duration {
	if requested <= 0 {
		return m.opts.DefaultInterval
	}
	if requested < m.opts.MinInterval {
		return m.opts.MinInterval
	}
	return requested
}

// Subscribe replaces the session's subscription. The previous task is
// stopped and waited for before the new one starts.
func (m *Manager) Subscribe(ctx context.Context, id string, pairs []string, interval time.Duration) (domain.Subscription, error) {
	s, err := m.get(id)
	if err != nil {
		return domain.Subscription{}, err
	}

	sub := domain.Subscription{Pairs: pairs, Interval: m.Interval(interval)}
	if sub.Pairs == nil {
		sub.Pairs = []string{}
	}

	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return domain.Subscription{}, apperror.New(apperror.CodeSessionNotFound, apperror.WithContext(id))
	}
	old := s.task
	s.task = nil
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	old.stop()

	s.mu.Lock()
	if !s.alive || s.gen != gen {
		// Disconnected or superseded while the old task wound down.
		s.mu.Unlock()
		return domain.Subscription{}, apperror.New(apperror.CodeSessionNotFound, apperror.WithContext(id))
	}
	taskCtx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.task = t
	s.sub = &sub
	s.mu.Unlock()

	go m.run(taskCtx, s, gen, sub, t.done)

	m.logger.Debug(ctx, "price subscription started",
		"session", id,
		"pairs", sub.Pairs,
		"interval", sub.Interval.String())
	return sub, nil
}

// Unsubscribe stops the session's subscription, if any.
func (m *Manager) Unsubscribe(ctx context.Context, id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	t := s.task
	s.task = nil
	s.sub = nil
	s.gen++
	s.mu.Unlock()

	t.stop()
	if t != nil {
		m.logger.Debug(ctx, "price subscription cancelled", "session", id)
	}
	return nil
}

// Disconnect removes the session. It is safe to call more than once.
func (m *Manager) Disconnect(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	s.alive = false
	s.gen++
	t := s.task
	s.task = nil
	s.sub = nil
	s.mu.Unlock()

	t.stop()
	m.metrics.activeSessions.Add(context.Background(), -1)
}

// Close disconnects every session.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Disconnect(id)
	}

	m.logger.Info(ctx, "sessions closed", "count", len(ids))
	return nil
}

// Stats returns the live session and subscription counts.
func (m *Manager) Stats() (sessions, subscriptions int) {
	m.mu.Lock()
	list := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.Unlock()

	for _, s := range list {
		s.mu.Lock()
		if s.task != nil {
			subscriptions++
		}
		s.mu.Unlock()
	}
	return len(list), subscriptions
}

// Session returns a snapshot of session id.
func (m *Manager) Session(id string) (domain.Session, bool) {
	s, err := m.get(id)
	if err != nil {
		return domain.Session{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view := domain.Session{ID: s.id, ConnectedAt: s.connectedAt}
	switch {
	case !s.alive:
		view.State = domain.StateDisconnected
	case s.task != nil:
		view.State = domain.StateSubscribed
		sub := *s.sub
		view.Subscription = &sub
	default:
		view.State = domain.StateConnected
	}
	return view, true
}

func (m *Manager) get(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, apperror.New(apperror.CodeSessionNotFound, apperror.WithContext(id))
	}
	return s, nil
}

func (m *Manager) run(ctx context.Context, s *session, gen uint64, sub domain.Subscription, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(sub.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prices := m.prices.Prices(ctx, sub.Pairs)
			if ctx.Err() != nil {
				return
			}
			m.deliver(ctx, s, gen, domain.PriceUpdate{Prices: prices, Timestamp: time.Now()})
		}
	}
}

// deliver pushes update while holding the session lock, so nothing reaches
// the client after Disconnect or a newer Subscribe returns.
func (m *Manager) deliver(ctx context.Context, s *session, gen uint64, update domain.PriceUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.alive || s.gen != gen {
		return
	}

	if err := s.sink.PushPrices(ctx, update); err != nil {
		m.metrics.pushFailures.Add(ctx, 1)
		m.logger.Warn(ctx, "price update not delivered", "session", s.id, "error", err)
		return
	}
	m.metrics.priceUpdates.Add(ctx, 1, metric.WithAttributes(attribute.Int("pairs", len(update.Prices))))
}
