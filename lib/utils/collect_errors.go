package utils

import (
	"context"

	"github.com/gravitational/trace"
)

// CollectErrors waits for count results on errChan, honouring the context.
// Once the context is done the remaining results are reported as timed out
func CollectErrors(ctx context.Context, count int, errChan <-chan error) error {
	if count <= 0 {
		return trace.BadParameter("count(%d) <= 0", count)
	}

	errors := []error{}
	for i := 0; i < count; i++ {
		select {
		case <-ctx.Done():
			errors = append(errors, trace.LimitExceeded("timed out waiting for %d result(s)", count-i))
			return trace.NewAggregate(errors...)
		case err := <-errChan:
			if err != nil {
				errors = append(errors, err)
			}
		}
	}
	return trace.NewAggregate(errors...)
}
