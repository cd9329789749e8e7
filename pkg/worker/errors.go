package worker

import "errors"

// Pool errors. Submit returns the first three; callers map ErrQueueFull to a
// rate-limit rejection rather than retrying in place.
var (
	ErrPoolNotStarted = errors.New("worker pool: submit before Start")
	ErrPoolStopped    = errors.New("worker pool: submit after Stop")
	ErrQueueFull      = errors.New("worker pool: queue at capacity")

	// ErrPoolAlreadyStarted is returned by a second Start.
	ErrPoolAlreadyStarted = errors.New("worker pool: already started")

	// ErrNilProcessor is returned by NewPool.
	ErrNilProcessor = errors.New("worker pool: nil processor")

	// ErrStopTimeout means in-flight requests were still running when the
	// Stop deadline passed; they are abandoned, not cancelled.
	ErrStopTimeout = errors.New("worker pool: stop deadline exceeded before workers drained")
)
