package lanes

import "errors"

var (
	// ErrInvalidConfiguration is returned when an executor is built with fewer than one lane.
	ErrInvalidConfiguration = errors.New("invalid lane configuration")
	// ErrRejectedSubmission is returned for work submitted after shutdown has begun.
	ErrRejectedSubmission = errors.New("submission rejected: executor is shut down")
	// ErrInterruptedWait is returned when AwaitTermination is abandoned through its context.
	ErrInterruptedWait = errors.New("wait for termination interrupted")
	// ErrTaskDiscarded is the failure given to a drained task's future by Task.Discard(nil).
	ErrTaskDiscarded = errors.New("task discarded before it started")
)
