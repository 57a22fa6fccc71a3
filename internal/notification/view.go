package notification

import (
	"context"
	"errors"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State is the lifecycle stage of a View.
type State int

const (
	// StateEmpty is the initial state, before the fetch has run.
	StateEmpty State = iota
	// StateLoaded is terminal: the records are in place and never change.
	StateLoaded
	// StateFailed is terminal: the source returned an error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// View loads notifications once and then serves them unchanged.
type View struct {
	source Source
	group  singleflight.Group

	mu    sync.Mutex
	state State
	items []Notification
	err   error
}

// NewView creates an empty view backed by source.
func NewView(source Source) *View {
	return &View{source: source}
}

// Load performs the single fetch. Once the view has left StateEmpty, Load does not
// call the source again and returns the recorded outcome. Concurrent callers share
// one fetch, and the lock is not held while the source runs.
func (v *View) Load(ctx context.Context) error {
	for {
		if state, err := v.settled(); state != StateEmpty {
			return err
		}

		ch := v.group.DoChan("load", func() (any, error) {
			return nil, v.fetch(ctx)
		})

		select {
		case res := <-ch:
			// The shared fetch was canceled by another caller; try again with ours.
			if res.Err != nil && ctx.Err() == nil && v.State() == StateEmpty && isCanceled(res.Err) {
				continue
			}
			return res.Err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (v *View) settled() (State, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state, v.err
}

func (v *View) fetch(ctx context.Context) error {
	if state, err := v.settled(); state != StateEmpty {
		return err
	}

	items, err := v.source.Notifications(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		// A canceled caller leaves the view empty so the next request can load it.
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return err
		}
		v.state = StateFailed
		v.err = err
		return err
	}
	if items == nil {
		items = []Notification{}
	}
	v.items = items
	v.state = StateLoaded
	return nil
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// State reports the current lifecycle stage.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Items returns a copy of the loaded records, or nil before loading.
func (v *View) Items() []Notification {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.items)
}

// Err returns the source error of a failed load.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}
