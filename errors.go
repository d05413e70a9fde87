package taskflow

import "errors"

// Custom errors
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")

	ErrConfirmationRequired = errors.New("confirmation required")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrApprovalRequired     = errors.New("transition requires approval")
	ErrNoRecipients         = errors.New("no forward recipients selected")
	ErrInvalidRecipient     = errors.New("recipient is not a valid forward target")
	ErrPartialForward       = errors.New("forward partially failed")
)
