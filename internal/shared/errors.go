package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Transport and controller errors
	ErrTransport          = fmt.Errorf("transport request failed")
	ErrMutation           = fmt.Errorf("delete request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrImageNotFound      = fmt.Errorf("image not found")
	ErrAlreadyDeleted     = fmt.Errorf("image already deleted")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
