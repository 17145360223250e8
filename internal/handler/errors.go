package handler

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyProperty is wrapped by a ConfigurationError for a required
	// property that is set to the empty string.
	ErrEmptyProperty = errors.New("property is empty")
	// ErrNotConfigured is wrapped by a ConfigurationError when Execute runs
	// before a successful Configure.
	ErrNotConfigured = errors.New("handler is not configured")
	// ErrAlreadyConfigured is wrapped by a ConfigurationError when Configure
	// is called on a configured handler.
	ErrAlreadyConfigured = errors.New("handler is already configured")
	// ErrMissingEntityAddressInfo is wrapped by an AssociationError when the
	// fetched record has no entity address info id.
	ErrMissingEntityAddressInfo = errors.New("managed object has no entity address info id")
)

// ConfigurationError reports a missing or empty required property, or a
// lifecycle misuse of the handler.
type ConfigurationError struct {
	Property string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Property == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration property %q: %v", e.Property, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// LookupError reports a failure to resolve the remote DPS: the naming
// lookup, narrowing the reference or creating the session.
type LookupError struct {
	Address string
	// Step is one of "lookup", "narrow" or "create".
	Step string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("resolve DPS %s (%s): %v", e.Address, e.Step, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// NotFoundError reports that no managed object exists at FDN.
type NotFoundError struct {
	FDN string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("managed object %q not found", e.FDN)
}

// FetchError reports a failed managed object fetch.
type FetchError struct {
	FDN string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch managed object %q: %v", e.FDN, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AssociationError reports a failure to associate the record at FDN. SourceID
// is nil when the record carried no entity address info id.
type AssociationError struct {
	FDN      string
	SourceID *int64
	TargetID int64
	Endpoint string
	Err      error
}

func (e *AssociationError) Error() string {
	source := "<none>"
	if e.SourceID != nil {
		source = fmt.Sprint(*e.SourceID)
	}
	return fmt.Sprintf("associate %q (%s -%s-> %d): %v", e.FDN, source, e.Endpoint, e.TargetID, e.Err)
}

func (e *AssociationError) Unwrap() error { return e.Err }

// Outcome classifies err into a short label suitable for metrics.
func Outcome(err error) string {
	var (
		cfgErr    *ConfigurationError
		lookupErr *LookupError
		notFound  *NotFoundError
		fetchErr  *FetchError
		assocErr  *AssociationError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &cfgErr):
		return "configuration_error"
	case errors.As(err, &lookupErr):
		return "lookup_error"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &fetchErr):
		return "fetch_error"
	case errors.As(err, &assocErr):
		return "association_error"
	default:
		return "error"
	}
}
