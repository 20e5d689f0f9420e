package wait

import (
	"context"
	"time"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
)

// Sleep is context-interruptable sleep.
// Returns an error if the context was cancelled before d has elapsed
func Sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	select {
	case <-ctx.Done():
		return trace.Wrap(ctx.Err())
	case <-clock.After(d):
		return nil
	}
}
