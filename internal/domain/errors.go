package domain

import "errors"

var (
	// ErrFetchFailed is fatal to a run but never to the scheduler.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrMalformedDocument aborts the extraction step of a run.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrClassification is item-local; the pipeline degrades the item to SAFE.
	ErrClassification = errors.New("classification error")
	// ErrModelUnavailable never leaves the model store.
	ErrModelUnavailable = errors.New("model unavailable")

	ErrAlreadyRunning  = errors.New("monitor already running")
	ErrInvalidInterval = errors.New("interval must be positive")
)
