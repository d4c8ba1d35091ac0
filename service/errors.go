package service

import "errors"

// Error taxonomy for the contract workflow. Handlers map these to HTTP
// status codes with errors.Is; everything else is a 500.
var (
	// ErrValidation marks bad caller input. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an unknown contract id or missing artifact.
	ErrNotFound = errors.New("not found")

	// ErrAuthentication marks a failed credential exchange with the
	// signing provider.
	ErrAuthentication = errors.New("signing provider authentication failed")

	// ErrSubmission marks an envelope rejected by the signing provider.
	// Not retried automatically: resubmission would create a duplicate
	// envelope.
	ErrSubmission = errors.New("envelope submission failed")

	// ErrLinkUnavailable marks a signing link that could not be obtained
	// after all retry attempts.
	ErrLinkUnavailable = errors.New("signing link unavailable")
)
