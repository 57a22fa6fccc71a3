package trending

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfScope is matched by every *ScopeError.
	ErrOutOfScope = errors.New("trending: store used outside its scope")

	// ErrRefreshFailed wraps source failures and timeouts during Refresh.
	ErrRefreshFailed = errors.New("trending: refresh failed")
)

// ScopeError reports a capability invoked on a store that was never built by New
// or has already been closed. It signals a wiring defect, not a runtime condition.
type ScopeError struct {
	Op     string
	Closed bool
}

func (e *ScopeError) Error() string {
	if e.Closed {
		return fmt.Sprintf("trending: %s called on a closed store", e.Op)
	}
	return fmt.Sprintf("trending: %s must be called on a store created by trending.New", e.Op)
}

// Is makes errors.Is(err, ErrOutOfScope) hold for every ScopeError.
func (e *ScopeError) Is(target error) bool {
	return target == ErrOutOfScope
}
