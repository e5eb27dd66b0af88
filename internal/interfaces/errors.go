package interfaces

import "errors"

var (
	// ErrTaskNotFound is returned when a task ID is unknown to the task manager
	ErrTaskNotFound = errors.New("task not found")

	// ErrNotAccepting is returned when submitting to a stopped task manager
	ErrNotAccepting = errors.New("task manager is not accepting tasks")

	// ErrMissingInput is returned when a generation request carries no document
	ErrMissingInput = errors.New("no document input provided")

	// ErrUnsupportedFormat is returned for document types the processor cannot read
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyPlan is returned when the planning stage yields no slides
	ErrEmptyPlan = errors.New("presentation plan contains no slides")

	// ErrResultNotReady is returned when a result is requested before the task completes
	ErrResultNotReady = errors.New("task result is not ready")
)
