// Package deadline maps context lifetimes onto connection deadlines.
package deadline

import (
	"context"
	"time"
)

// A SetFunc sets an IO deadline on a connection. Setting an already
// expired deadline unblocks the operations the deadline bounds.
type SetFunc func(time.Time) error

// Watch bounds a connection operation with a context. The context
// deadline is applied up front, and cancellation expires the deadline
// early so a blocked read or write returns instead of waiting out the
// connection. The returned stop function must be called once the
// operation finishes; it waits for the watcher and clears the deadline
// again.
func Watch(ctx context.Context, set SetFunc) (stop func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ctx.Done() == nil {
		return func() {}, nil
	}
	if d, ok := ctx.Deadline(); ok {
		if err := set(d); err != nil {
			return nil, err
		}
	}
	finished := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			set(time.Now())
		case <-finished:
		}
	}()
	return func() {
		close(finished)
		<-stopped
		set(time.Time{})
	}, nil
}
