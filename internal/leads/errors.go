package leads

import "errors"

var (
	// ErrLeadNotFound is returned when a lead doesn't exist
	ErrLeadNotFound = errors.New("lead not found")
	// ErrConsentRequired is returned when a write is attempted without consent
	ErrConsentRequired = errors.New("explicit consent is required to store a lead")
)
