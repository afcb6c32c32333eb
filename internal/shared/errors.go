package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Listener and relay errors
	ErrBindFailed   = fmt.Errorf("failed to bind listener")
	ErrReadFailed   = fmt.Errorf("failed to read request")
	ErrParseFailed  = fmt.Errorf("failed to parse request")
	ErrWriteFailed  = fmt.Errorf("failed to write response")
	ErrTimeout      = fmt.Errorf("operation timed out")
	ErrMissingField = fmt.Errorf("missing form field")

	// Service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
