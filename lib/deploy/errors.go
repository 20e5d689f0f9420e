package deploy

import (
	"fmt"

	"github.com/gravitational/trace"
)

// Stage names a step of the deployment for error reporting
type Stage string

const (
	// StageInit is pushing the configuration and waiting for INIT
	StageInit Stage = "initialization"
	// StageCheck is checking and provisioning the hosts
	StageCheck Stage = "validation"
	// StageInstall is installing and licensing the services
	StageInstall Stage = "installation"
)

// StageError attributes a failure to the deployment stage it occurred in
type StageError struct {
	// Stage is the failed stage
	Stage Stage
	// State is the last observed process state
	State string
	// Err is the underlying error
	Err error
}

// Error returns the error message
func (e *StageError) Error() string {
	return fmt.Sprintf("cluster %v failed in state %q: %v", e.Stage, e.State, e.Err)
}

func (d *Driver) stageError(stage Stage, err error) error {
	return trace.Wrap(&StageError{Stage: stage, State: d.state, Err: err})
}

// AsStageError returns the stage error wrapped in err, if any
func AsStageError(err error) (*StageError, bool) {
	stageErr, ok := trace.Unwrap(err).(*StageError)
	return stageErr, ok
}
