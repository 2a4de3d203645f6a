package service

import (
	"context"
	"sync/atomic"
)

// Flow is one page load or checkout attempt. Once it is abandoned, late results
// are discarded instead of being applied to a view that no longer exists.
type Flow struct {
	abandoned atomic.Bool
	stop      func() bool
}

// NewFlow starts a flow that is abandoned when ctx ends
func NewFlow(ctx context.Context) *Flow {
	f := &Flow{}
	f.stop = context.AfterFunc(ctx, f.Abandon)
	return f
}

// Abandon marks the flow dead; it is safe to call more than once
func (f *Flow) Abandon() {
	f.abandoned.Store(true)
}

// Alive reports whether results may still be applied
func (f *Flow) Alive() bool {
	return !f.abandoned.Load()
}

// Close detaches the flow from its context once the flow has finished
func (f *Flow) Close() {
	if f.stop != nil {
		f.stop()
	}
}
