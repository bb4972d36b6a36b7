package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Credential and catalog errors
	ErrMissingCredential = fmt.Errorf("missing required credential")
	ErrInvalidPortalURL  = fmt.Errorf("invalid portal url")
	ErrUnknownCategory   = fmt.Errorf("unknown category")

	// Wizard session errors
	ErrBusy        = fmt.Errorf("another request is already in flight")
	ErrInvalidStep = fmt.Errorf("action not available in this step")
	ErrNoArtifact  = fmt.Errorf("nothing has been generated yet")

	// Transport and service errors
	ErrTransport          = fmt.Errorf("request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Storage errors
	ErrAccountNotFound    = fmt.Errorf("account not found")
	ErrGenerationNotFound = fmt.Errorf("generation not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
