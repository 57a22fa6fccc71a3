package trending

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/trendline/internal/pubsub"
)

func staticSource(topics ...Topic) Source {
	return SourceFunc(func(ctx context.Context) ([]Topic, error) {
		return topics, nil
	})
}

func mustTopics(t *testing.T, s *Store) Snapshot {
	t.Helper()
	topics, err := s.Topics()
	require.NoError(t, err)
	return topics
}

func TestStore_InitialStateIsEmpty(t *testing.T) {
	s := New(staticSource())
	defer s.Close()

	topics := mustTopics(t, s)
	assert.NotNil(t, topics)
	assert.Empty(t, topics)

	cur, err := s.Current()
	require.NoError(t, err)
	assert.Zero(t, cur.Version)
}

func TestStore_SetTopics(t *testing.T) {
	s := New(staticSource())
	defer s.Close()

	input := []Topic{"Go", "Rust", "Go"}
	require.NoError(t, s.SetTopics(input))
	assert.Equal(t, Snapshot{"Go", "Rust", "Go"}, mustTopics(t, s))

	// The store keeps its own copy.
	input[0] = "Changed"
	assert.Equal(t, Snapshot{"Go", "Rust", "Go"}, mustTopics(t, s))

	require.NoError(t, s.SetTopics(nil))
	topics := mustTopics(t, s)
	assert.NotNil(t, topics)
	assert.Empty(t, topics)
}

func TestStore_AddTopic(t *testing.T) {
	s := New(staticSource())
	defer s.Close()

	require.NoError(t, s.SetTopics([]Topic{"A", "B"}))
	before := mustTopics(t, s)

	require.NoError(t, s.AddTopic("C"))
	after := mustTopics(t, s)

	assert.Equal(t, Snapshot{"A", "B", "C"}, after)
	assert.Len(t, after, len(before)+1)
	assert.Equal(t, Snapshot{"A", "B"}, before, "earlier snapshot must not change")

	// Duplicates are allowed.
	require.NoError(t, s.AddTopic("A"))
	assert.Equal(t, Snapshot{"A", "B", "C", "A"}, mustTopics(t, s))
}

func TestStore_RemoveTopic(t *testing.T) {
	tests := []struct {
		name   string
		start  []Topic
		remove Topic
		want   Snapshot
	}{
		{"removes every match", []Topic{"AI", "Go", "AI", "Rust", "AI"}, "AI", Snapshot{"Go", "Rust"}},
		{"keeps order of the rest", []Topic{"c", "b", "a"}, "b", Snapshot{"c", "a"}},
		{"missing topic is a no-op", []Topic{"x", "y"}, "z", Snapshot{"x", "y"}},
		{"exact match only", []Topic{"ai", "AI", "AI "}, "AI", Snapshot{"ai", "AI "}},
		{"can empty the list", []Topic{"only", "only"}, "only", Snapshot{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(staticSource())
			defer s.Close()

			require.NoError(t, s.SetTopics(tt.start))
			before := mustTopics(t, s)

			require.NoError(t, s.RemoveTopic(tt.remove))
			assert.Equal(t, tt.want, mustTopics(t, s))
			assert.Equal(t, Snapshot(tt.start), before, "earlier snapshot must not change")
		})
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := New(staticSource())
	defer s.Close()

	require.NoError(t, s.SetTopics([]Topic{"A"}))
	snap := mustTopics(t, s)
	snap[0] = "mutated by caller"

	assert.Equal(t, Snapshot{"A"}, mustTopics(t, s))
}

func TestStore_RefreshResultIsolation(t *testing.T) {
	s := New(staticSource("A", "B"))
	defer s.Close()

	res, err := s.Refresh(context.Background())
	require.NoError(t, err)
	res.Topics[0] = "mutated by caller"

	assert.Equal(t, Snapshot{"A", "B"}, mustTopics(t, s))
}

func TestStore_ListenerSnapshotIsolation(t *testing.T) {
	s := New(staticSource())
	defer s.Close()

	var second Update
	_, err := s.Subscribe(func(u Update) {
		u.Topics[0] = "mutated by listener"
	})
	require.NoError(t, err)
	_, err = s.Subscribe(func(u Update) {
		second = u
	})
	require.NoError(t, err)

	require.NoError(t, s.SetTopics([]Topic{"A"}))

	assert.Equal(t, Snapshot{"A"}, mustTopics(t, s))
	assert.Equal(t, Snapshot{"A"}, second.Topics, "listeners must not see each other's writes")
}

func TestStore_RefreshWithPlaceholder(t *testing.T) {
	s := New(NewPlaceholderSource(0))
	defer s.Close()

	start := time.Now()
	res, err := s.Refresh(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), DefaultPlaceholderDelay)
	want := Snapshot{"React", "TypeScript", "Web Development", "AI", "OpenAI"}
	assert.Equal(t, want, res.Topics)
	assert.Equal(t, want, mustTopics(t, s))
	assert.Equal(t, uint64(1), res.Version)
}

func TestStore_ActivateSeedsOnce(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	src := SourceFunc(func(ctx context.Context) ([]Topic, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return []Topic{"seed"}, nil
	})

	s := New(src)
	defer s.Close()

	require.NoError(t, s.Activate(context.Background()))
	require.NoError(t, s.Activate(context.Background()))

	assert.Eventually(t, func() bool {
		topics, _ := s.Topics()
		return len(topics) == 1 && topics[0] == "seed"
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestStore_ActivateIsAsynchronous(t *testing.T) {
	s := New(NewPlaceholderSource(200 * time.Millisecond))
	defer s.Close()

	require.NoError(t, s.Activate(context.Background()))
	assert.Empty(t, mustTopics(t, s), "topics stay empty until the seeding refresh resolves")

	assert.Eventually(t, func() bool {
		topics, _ := s.Topics()
		return len(topics) == len(PlaceholderTopics)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStore_RefreshFailureKeepsTopics(t *testing.T) {
	boom := errors.New("feed unavailable")
	s := New(SourceFunc(func(ctx context.Context) ([]Topic, error) {
		return nil, boom
	}))
	defer s.Close()

	require.NoError(t, s.SetTopics([]Topic{"kept"}))

	_, err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Snapshot{"kept"}, mustTopics(t, s))
}

func TestStore_RefreshTimeout(t *testing.T) {
	s := New(NewPlaceholderSource(time.Second), WithRefreshTimeout(20*time.Millisecond))
	defer s.Close()

	_, err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")
	assert.Empty(t, mustTopics(t, s))
}

func TestStore_CloseDuringRefreshDiscardsResult(t *testing.T) {
	started := make(chan struct{})
	src := SourceFunc(func(ctx context.Context) ([]Topic, error) {
		close(started)
		<-ctx.Done()
		return []Topic{"late"}, nil
	})
	s := New(src)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Refresh(context.Background())
		errCh <- err
	}()

	<-started
	require.NoError(t, s.Close())

	select {
	case err := <-errCh:
		var scopeErr *ScopeError
		require.ErrorAs(t, err, &scopeErr)
		assert.True(t, scopeErr.Closed)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not return after Close")
	}
}

func TestStore_OutOfScope(t *testing.T) {
	closed := New(staticSource())
	require.NoError(t, closed.Close())
	require.NoError(t, closed.Close(), "Close is idempotent")

	var nilStore *Store
	zero := &Store{}

	for name, s := range map[string]*Store{"nil": nilStore, "zero value": zero, "closed": closed} {
		t.Run(name, func(t *testing.T) {
			// Every call, every time.
			for i := 0; i < 2; i++ {
				_, err := s.Topics()
				assert.ErrorIs(t, err, ErrOutOfScope)
				_, err = s.Current()
				assert.ErrorIs(t, err, ErrOutOfScope)
				assert.ErrorIs(t, s.SetTopics([]Topic{"x"}), ErrOutOfScope)
				assert.ErrorIs(t, s.AddTopic("x"), ErrOutOfScope)
				assert.ErrorIs(t, s.RemoveTopic("x"), ErrOutOfScope)
				_, err = s.Refresh(context.Background())
				assert.ErrorIs(t, err, ErrOutOfScope)
				assert.ErrorIs(t, s.Activate(context.Background()), ErrOutOfScope)
				_, err = s.Subscribe(func(Update) {})
				assert.ErrorIs(t, err, ErrOutOfScope)
			}
		})
	}

	var scopeErr *ScopeError
	require.ErrorAs(t, zero.AddTopic("x"), &scopeErr)
	assert.Equal(t, "AddTopic", scopeErr.Op)
	assert.False(t, scopeErr.Closed)
	assert.ErrorIs(t, nilStore.Close(), ErrOutOfScope)
}

func TestStore_Subscribe(t *testing.T) {
	s := New(staticSource("r1", "r2"))
	defer s.Close()

	var updates []Update
	cancel, err := s.Subscribe(func(u Update) {
		updates = append(updates, u)
	})
	require.NoError(t, err)

	require.NoError(t, s.SetTopics([]Topic{"a"}))
	require.NoError(t, s.AddTopic("b"))
	require.NoError(t, s.RemoveTopic("a"))
	_, err = s.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, updates, 4)
	assert.Equal(t, []Reason{ReasonSet, ReasonAdd, ReasonRemove, ReasonRefresh},
		[]Reason{updates[0].Reason, updates[1].Reason, updates[2].Reason, updates[3].Reason})
	assert.Equal(t, Snapshot{"b"}, updates[2].Topics)
	assert.Equal(t, uint64(4), updates[3].Version)

	cancel()
	cancel()
	require.NoError(t, s.AddTopic("after cancel"))
	assert.Len(t, updates, 4)
}

func TestStore_PublishesUpdates(t *testing.T) {
	bus := pubsub.NewWatermillBridge()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan UpdatedEvent, 4)
	err := pubsub.Subscribe(ctx, bus, TopicsUpdated, func(ctx context.Context, e UpdatedEvent) error {
		events <- e
		return nil
	})
	require.NoError(t, err)

	s := New(staticSource(), WithPublisher(bus))
	defer s.Close()

	require.NoError(t, s.SetTopics([]Topic{"Go", "HTMX"}))

	select {
	case e := <-events:
		assert.Equal(t, []string{"Go", "HTMX"}, e.Topics)
		assert.Equal(t, uint64(1), e.Version)
		assert.Equal(t, "set", e.Reason)
		assert.NotEmpty(t, e.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update event")
	}
}

func TestStore_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	failing := true
	s := New(SourceFunc(func(ctx context.Context) ([]Topic, error) {
		if failing {
			return nil, errors.New("down")
		}
		return []Topic{"a", "b", "c"}, nil
	}), WithMetrics(m))
	defer s.Close()

	require.NoError(t, s.AddTopic("x"))
	require.NoError(t, s.AddTopic("y"))
	require.NoError(t, s.RemoveTopic("x"))

	_, err := s.Refresh(context.Background())
	require.Error(t, err)
	failing = false
	_, err = s.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("remove")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("refresh")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.topics))
}

func TestStore_ConcurrentWriters(t *testing.T) {
	s := New(staticSource())
	defer s.Close()

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_ = s.AddTopic("t")
				_, _ = s.Topics()
			}
		}()
	}
	wg.Wait()

	cur, err := s.Current()
	require.NoError(t, err)
	assert.Len(t, cur.Topics, writers*perWriter)
	assert.Equal(t, uint64(writers*perWriter), cur.Version)
}
