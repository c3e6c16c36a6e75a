package idle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/kvstore"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/logger"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/metrics"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/pkg/clock"
)

// ErrExpired is returned by Resume when the stored activity is already too old.
var ErrExpired = errors.New("idle: session expired while inactive")

const (
	namespace = "session"
	keyName   = "last_active"
)

// State of an audience's session as seen by the monitor.
type State int

const (
	Unarmed State = iota
	Watching
	Expired
)

func (s State) String() string {
	switch s {
	case Watching:
		return "watching"
	case Expired:
		return "expired"
	default:
		return "unarmed"
	}
}

// Disposer stops watching the session it was returned for.
// It does nothing once that session has been disarmed or re-armed.
type Disposer func()

// Monitor ends sessions after a period without user activity.
// Each audience is watched independently.
type Monitor struct {
	store   kvstore.Store
	source  Source
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Collector

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	audience    string
	ctx         context.Context
	key         string
	state       State
	onExpire    func()
	timer       clock.Timer
	unsubscribe func()
	limiter     *rate.Limiter
	lastWritten int64
}

// Option configures a Monitor.
type Option func(*Monitor)

func WithClock(c clock.Clock) Option {
	return func(m *Monitor) {
		if c != nil {
			m.clock = c
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(m *Monitor) {
		m.cfg = cfg.withDefaults()
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(m *Monitor) {
		m.metrics = c
	}
}

// New creates a monitor that persists activity in store and listens to source.
func New(store kvstore.Store, source Source, opts ...Option) *Monitor {
	m := &Monitor{
		store:    store,
		source:   source,
		clock:    clock.Real(),
		cfg:      DefaultConfig(),
		logger:   logger.Discard(),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewFromConfig creates a monitor using cfg.
func NewFromConfig(cfg Config, store kvstore.Store, source Source, opts ...Option) *Monitor {
	return New(store, source, append([]Option{WithConfig(cfg)}, opts...)...)
}

// Config returns the effective timings.
func (m *Monitor) Config() Config { return m.cfg }

// Key returns the storage key of the activity timestamp for audience.
func Key(audience string) (string, error) {
	return kvstore.Key(namespace, audience, keyName)
}

// Arm starts watching a fresh session: it records the current time as the
// last activity, listens for activity signals and polls for inactivity.
// onExpire runs once if the session goes idle. Arming an already armed
// audience replaces the previous watch.
func (m *Monitor) Arm(ctx context.Context, audience string, onExpire func()) (Disposer, error) {
	key, err := Key(audience)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev := m.sessions[audience]; prev != nil {
		m.release(prev)
		delete(m.sessions, audience)
	}

	now := m.clock.Now()
	ms := now.UnixMilli()
	if err := m.store.Set(ctx, key, strconv.FormatInt(ms, 10)); err != nil {
		return nil, fmt.Errorf("idle: record activity: %w", err)
	}

	s := &session{
		audience:    audience,
		ctx:         context.WithoutCancel(ctx),
		key:         key,
		state:       Watching,
		onExpire:    onExpire,
		limiter:     rate.NewLimiter(rate.Every(m.cfg.ActivityThrottle), 1),
		lastWritten: ms,
	}
	// The arm write spends the first throttle window.
	s.limiter.AllowN(now, 1)

	if m.source != nil {
		s.unsubscribe = m.source.Subscribe(ActivitySignals, func(Signal) {
			m.touch(s)
		})
	}
	s.timer = m.clock.Every(m.cfg.PollInterval, func(now time.Time) {
		m.poll(s, now)
	})
	m.sessions[audience] = s

	m.logger.DebugContext(ctx, "session monitor armed",
		logger.Component("idle"),
		logger.Audience(audience),
	)

	return func() {
		m.mu.Lock()
		current := m.sessions[audience] == s
		m.mu.Unlock()
		if current {
			_ = m.Disarm(context.Background(), audience)
		}
	}, nil
}

// Resume arms a session restored after a restart. When the stored activity is
// older than the idle timeout, onExpire runs immediately and ErrExpired is
// returned instead of waiting for the first poll.
func (m *Monitor) Resume(ctx context.Context, audience string, onExpire func()) (Disposer, error) {
	stale, err := m.Stale(ctx, audience)
	if err != nil {
		return nil, err
	}
	if stale {
		m.metrics.SessionExpired(audience)
		m.logger.InfoContext(ctx, "restored session already idle",
			logger.Component("idle"),
			logger.Audience(audience),
		)
		if onExpire != nil {
			onExpire()
		}
		return nil, ErrExpired
	}
	return m.Arm(ctx, audience, onExpire)
}

// Disarm stops watching audience and removes its activity timestamp.
// Calling it for an unarmed audience only removes the timestamp.
func (m *Monitor) Disarm(ctx context.Context, audience string) error {
	key, err := Key(audience)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if s := m.sessions[audience]; s != nil {
		m.release(s)
		delete(m.sessions, audience)
	}
	m.mu.Unlock()

	if err := m.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("idle: clear activity: %w", err)
	}
	return nil
}

// Stale reports whether the stored activity for audience is older than the
// idle timeout. A missing timestamp is not stale.
func (m *Monitor) Stale(ctx context.Context, audience string) (bool, error) {
	key, err := Key(audience)
	if err != nil {
		return false, err
	}
	last, ok, err := m.read(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return m.clock.Now().Sub(last) > m.cfg.IdleTimeout, nil
}

// LastActivity returns the stored activity time for audience.
func (m *Monitor) LastActivity(ctx context.Context, audience string) (time.Time, bool, error) {
	key, err := Key(audience)
	if err != nil {
		return time.Time{}, false, err
	}
	return m.read(ctx, key)
}

// State returns the current state of audience.
func (m *Monitor) State(audience string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.sessions[audience]; s != nil {
		return s.state
	}
	return Unarmed
}

// Close stops every watch but keeps the stored timestamps, so a later
// process can Resume the sessions.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for aud, s := range m.sessions {
		m.release(s)
		delete(m.sessions, aud)
	}
}

func (m *Monitor) touch(s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions[s.audience] != s || s.state != Watching {
		return
	}

	now := m.clock.Now()
	if !s.limiter.AllowN(now, 1) {
		return
	}

	ms := max(now.UnixMilli(), s.lastWritten)
	if err := m.store.Set(s.ctx, s.key, strconv.FormatInt(ms, 10)); err != nil {
		m.logger.WarnContext(s.ctx, "failed to record activity",
			logger.Component("idle"),
			logger.Audience(s.audience),
			logger.Error(err),
		)
		return
	}
	s.lastWritten = ms
	m.metrics.ActivityWrite(s.audience)
}

func (m *Monitor) poll(s *session, now time.Time) {
	m.mu.Lock()
	if m.sessions[s.audience] != s || s.state != Watching {
		m.mu.Unlock()
		return
	}

	last, ok, err := m.read(s.ctx, s.key)
	if err != nil {
		m.mu.Unlock()
		m.logger.WarnContext(s.ctx, "failed to read activity",
			logger.Component("idle"),
			logger.Audience(s.audience),
			logger.Error(err),
		)
		return
	}
	// A missing timestamp means the session was ended elsewhere.
	if ok && now.Sub(last) <= m.cfg.IdleTimeout {
		m.mu.Unlock()
		return
	}

	s.state = Expired
	m.release(s)
	onExpire := s.onExpire
	m.mu.Unlock()

	m.metrics.SessionExpired(s.audience)
	attrs := []any{logger.Component("idle"), logger.Audience(s.audience)}
	if ok {
		attrs = append(attrs, logger.Idle(now.Sub(last)))
	}
	m.logger.InfoContext(s.ctx, "session expired after inactivity", attrs...)

	if onExpire != nil {
		onExpire()
	}

	m.mu.Lock()
	if m.sessions[s.audience] == s {
		delete(m.sessions, s.audience)
	}
	m.mu.Unlock()
}

// release stops the poll timer and the activity subscription. Callers hold m.mu.
func (m *Monitor) release(s *session) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.limiter = nil
}

func (m *Monitor) read(ctx context.Context, key string) (time.Time, bool, error) {
	v, err := m.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("idle: read activity: %w", err)
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		m.logger.WarnContext(ctx, "ignoring malformed activity timestamp",
			logger.Component("idle"),
			logger.Key("value", v),
		)
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}
