package trending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nfrund/trendline/internal/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRefreshTimeout bounds a single Refresh call.
const DefaultRefreshTimeout = 5 * time.Second

// Topic is a trending topic. Topics compare by value and may repeat.
type Topic = string

// Snapshot is the topic list at one instant. The store never modifies a snapshot
// after handing it out.
type Snapshot []Topic

// Reason names the operation that produced an update.
type Reason string

const (
	ReasonSet     Reason = "set"
	ReasonAdd     Reason = "add"
	ReasonRemove  Reason = "remove"
	ReasonRefresh Reason = "refresh"
)

// Update is delivered to listeners after every successful mutation.
type Update struct {
	Topics  Snapshot
	Version uint64
	Reason  Reason
}

// RefreshResult describes a completed Refresh.
type RefreshResult struct {
	Topics   Snapshot
	Version  uint64
	Duration time.Duration
}

type state struct {
	topics  Snapshot
	version uint64
	reason  Reason
}

// Store is the trending-topics container. Writes are serialized; reads are lock-free.
type Store struct {
	source         Source
	publisher      pubsub.Publisher
	metrics        *Metrics
	logger         *slog.Logger
	tracer         trace.Tracer
	refreshTimeout time.Duration

	// ctx lives as long as the store; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	current   atomic.Pointer[state]
	closed    atomic.Bool
	activated atomic.Bool
	listeners map[uint64]func(Update)
	nextID    uint64
	wg        sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher publishes a TopicsUpdated event for every mutation.
func WithPublisher(p pubsub.Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithMetrics records store activity on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithRefreshTimeout overrides DefaultRefreshTimeout. Non-positive values are ignored.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.refreshTimeout = d
		}
	}
}

// WithLogger sets the logger used for background refresh failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a store holding the empty list. src is consulted by Refresh.
func New(src Source, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		source:         src,
		logger:         slog.Default().With("component", "trending"),
		tracer:         otel.Tracer("trendline/trending"),
		refreshTimeout: DefaultRefreshTimeout,
		ctx:            ctx,
		cancel:         cancel,
		listeners:      make(map[uint64]func(Update)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&state{topics: Snapshot{}})
	s.metrics.setTopics(0)
	return s
}

func (s *Store) check(op string) error {
	if s == nil || s.current.Load() == nil {
		return &ScopeError{Op: op}
	}
	if s.closed.Load() {
		return &ScopeError{Op: op, Closed: true}
	}
	return nil
}

// Topics returns a copy of the current snapshot.
func (s *Store) Topics() (Snapshot, error) {
	if err := s.check("Topics"); err != nil {
		return nil, err
	}
	return slices.Clone(s.current.Load().topics), nil
}

// Current returns the current snapshot together with its version and the reason
// of the last mutation. Version 0 means nothing has been written yet.
func (s *Store) Current() (Update, error) {
	if err := s.check("Current"); err != nil {
		return Update{}, err
	}
	st := s.current.Load()
	return Update{Topics: slices.Clone(st.topics), Version: st.version, Reason: st.reason}, nil
}

// SetTopics replaces the whole list with a copy of topics.
func (s *Store) SetTopics(topics []Topic) error {
	if err := s.check("SetTopics"); err != nil {
		return err
	}
	_, err := s.commit(context.Background(), "SetTopics", ReasonSet, func(Snapshot) Snapshot {
		return Snapshot(slices.Clone(topics))
	})
	return err
}

// AddTopic appends topic to the end of the list.
func (s *Store) AddTopic(topic Topic) error {
	if err := s.check("AddTopic"); err != nil {
		return err
	}
	_, err := s.commit(context.Background(), "AddTopic", ReasonAdd, func(prev Snapshot) Snapshot {
		next := make(Snapshot, len(prev), len(prev)+1)
		copy(next, prev)
		return append(next, topic)
	})
	return err
}

// RemoveTopic drops every element equal to topic, keeping the order of the rest.
func (s *Store) RemoveTopic(topic Topic) error {
	if err := s.check("RemoveTopic"); err != nil {
		return err
	}
	_, err := s.commit(context.Background(), "RemoveTopic", ReasonRemove, func(prev Snapshot) Snapshot {
		next := make(Snapshot, 0, len(prev))
		for _, t := range prev {
			if t != topic {
				next = append(next, t)
			}
		}
		return next
	})
	return err
}

// Refresh fetches the list from the source and replaces the current topics with it.
// The fetch is bounded by the refresh timeout and by the store's lifetime. On failure
// the current topics are untouched and the error wraps ErrRefreshFailed. If the store
// is closed while the fetch is pending, the result is discarded and a *ScopeError
// is returned.
func (s *Store) Refresh(ctx context.Context) (RefreshResult, error) {
	if err := s.check("Refresh"); err != nil {
		return RefreshResult{}, err
	}

	ctx, span := s.tracer.Start(ctx, "trending.refresh",
		trace.WithAttributes(attribute.String("trending.timeout", s.refreshTimeout.String())))
	defer span.End()

	fetchCtx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	start := time.Now()
	topics, err := s.source.Fetch(fetchCtx)
	elapsed := time.Since(start)

	if s.closed.Load() {
		span.SetStatus(codes.Error, "store closed")
		return RefreshResult{}, &ScopeError{Op: "Refresh", Closed: true}
	}

	if err != nil {
		s.metrics.refreshFailed()
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("timed out after %s: %w", s.refreshTimeout, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RefreshResult{Duration: elapsed}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	s.metrics.observeRefresh(elapsed)

	upd, err := s.commit(ctx, "Refresh", ReasonRefresh, func(Snapshot) Snapshot {
		return Snapshot(slices.Clone(topics))
	})
	if err != nil {
		return RefreshResult{}, err
	}

	span.SetAttributes(attribute.Int("trending.topics", len(upd.Topics)))
	return RefreshResult{Topics: slices.Clone(upd.Topics), Version: upd.Version, Duration: elapsed}, nil
}

// Activate seeds the store by launching one asynchronous Refresh. Only the first
// call does anything. ctx supplies values for the background refresh; its
// cancellation does not stop it, closing the store does.
func (s *Store) Activate(ctx context.Context) error {
	if err := s.check("Activate"); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return &ScopeError{Op: "Activate", Closed: true}
	}
	if !s.activated.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return nil
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		res, err := s.Refresh(context.WithoutCancel(ctx))
		switch {
		case errors.Is(err, ErrOutOfScope):
			s.logger.Debug("Seeding refresh discarded, store closed")
		case err != nil:
			s.logger.Error("Seeding refresh failed", "error", err)
		default:
			s.logger.Info("Seeded trending topics", "count", len(res.Topics), "duration", res.Duration)
		}
	}()
	return nil
}

// Subscribe registers fn to receive every future Update. Listeners run synchronously
// on the writer's goroutine, in version order. They must not write to the store or
// modify the snapshot they are given.
// The returned function removes the listener.
func (s *Store) Subscribe(fn func(Update)) (func(), error) {
	if err := s.check("Subscribe"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}, nil
}

// Close ends the store's scope. Pending refreshes are canceled and their results
// discarded. Every later capability call reports a *ScopeError. Close is idempotent.
func (s *Store) Close() error {
	if s == nil || s.current.Load() == nil {
		return &ScopeError{Op: "Close"}
	}

	s.mu.Lock()
	if s.closed.Swap(true) {
		s.mu.Unlock()
		return nil
	}
	s.listeners = make(map[uint64]func(Update))
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}

// commit applies next to the current state under the write lock, then notifies
// listeners and the bus. Each listener gets its own copy of the new snapshot.
func (s *Store) commit(ctx context.Context, op string, reason Reason, next func(Snapshot) Snapshot) (Update, error) {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return Update{}, &ScopeError{Op: op, Closed: true}
	}

	prev := s.current.Load()
	topics := next(prev.topics)
	if topics == nil {
		topics = Snapshot{}
	}
	st := &state{
		topics:  topics,
		version: prev.version + 1,
		reason:  reason,
	}
	s.current.Store(st)

	// The stored slice never leaves the store; listeners and callers get copies.
	upd := Update{Topics: slices.Clone(st.topics), Version: st.version, Reason: reason}
	for _, fn := range s.listeners {
		fn(Update{Topics: slices.Clone(st.topics), Version: st.version, Reason: reason})
	}
	s.mu.Unlock()

	s.metrics.mutated(reason, len(st.topics))

	if s.publisher != nil {
		if err := pubsub.Publish(ctx, s.publisher, TopicsUpdated, "trending", newUpdatedEvent(upd)); err != nil {
			s.logger.Error("Failed to publish topics update", "version", upd.Version, "error", err)
		}
	}
	return upd, nil
}
