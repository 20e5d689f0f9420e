package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/gravitational/installdriver/lib/defaults"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// Abort wraps an error that should not be retried
func Abort(err error) error {
	return abortError{err: err}
}

type abortError struct {
	err error
}

func (r abortError) Error() string {
	return fmt.Sprintf("aborted: %v", r.err)
}

// Retryer calls a function until it succeeds, returns an Abort error
// or runs out of attempts. The delay doubles after every failed attempt
// up to defaults.RetryMaxDelay
type Retryer struct {
	// Delay is the interval after the first failed attempt
	Delay time.Duration
	// Attempts is the total number of calls, at least one call is made
	Attempts int
	// Clock measures the delay between attempts
	Clock clockwork.Clock
	// FieldLogger specifies the log sink
	log.FieldLogger
}

// Do calls fn according to the retry policy.
// Returns the last error of fn, or the context error if cancelled between attempts
func (r Retryer) Do(ctx context.Context, fn func() error) error {
	if r.FieldLogger == nil {
		r.FieldLogger = log.StandardLogger()
	}
	if r.Clock == nil {
		r.Clock = clockwork.NewRealClock()
	}
	if r.Attempts < 1 {
		r.Attempts = 1
	}
	if err := ctx.Err(); err != nil {
		return trace.Wrap(err)
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if abort, ok := err.(abortError); ok {
			r.WithError(abort.err).Debug("Giving up.")
			return abort.err
		}
		if attempt == r.Attempts {
			break
		}
		delay := backoff(r.Delay, attempt)
		r.Debugf("Attempt %v of %v failed: %v, next in %v.", attempt, r.Attempts, trace.UserMessage(err), delay)
		if errSleep := Sleep(ctx, r.Clock, delay); errSleep != nil {
			return trace.Wrap(errSleep)
		}
	}
	return trace.Wrap(err)
}

func backoff(base time.Duration, attempt int) time.Duration {
	delay := base << uint(attempt-1)
	if delay > defaults.RetryMaxDelay || delay <= 0 {
		return defaults.RetryMaxDelay
	}
	return delay
}
