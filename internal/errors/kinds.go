package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies failures of the mapping widget. None of them is fatal.
type Kind string

const (
	KindConfiguration      Kind = "configuration"
	KindCatalogFetch       Kind = "catalog_fetch"
	KindValidation         Kind = "validation"
	KindExecutionHTTP      Kind = "execution_http"
	KindExecutionTransport Kind = "execution_transport"
)

// ConfigurationError reports a rejected base URL or file size limit.
// The previous valid value stays in effect.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
func (e *ConfigurationError) Kind() Kind    { return KindConfiguration }

// CatalogFetchError wraps network, status and parse failures of the catalog request.
type CatalogFetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *CatalogFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("load mappings from %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("load mappings from %s: %v", e.URL, e.Err)
}

func (e *CatalogFetchError) Unwrap() error { return e.Err }
func (e *CatalogFetchError) Kind() Kind    { return KindCatalogFetch }

// ValidationError aborts an execution before any request is sent.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }
func (e *ValidationError) Kind() Kind    { return KindValidation }

// ExecutionHTTPError is a non-200 answer of the execution endpoint.
type ExecutionHTTPError struct {
	MappingID  string
	StatusCode int
}

func (e *ExecutionHTTPError) Error() string {
	return fmt.Sprintf("Mapping failed. Service returned with status %d.", e.StatusCode)
}

func (e *ExecutionHTTPError) Kind() Kind { return KindExecutionHTTP }

// ExecutionTransportError is a request that never produced a response.
type ExecutionTransportError struct {
	MappingID string
	Err       error
}

func (e *ExecutionTransportError) Error() string {
	if e.Err == nil {
		return "execution request failed"
	}
	return e.Err.Error()
}

func (e *ExecutionTransportError) Unwrap() error { return e.Err }
func (e *ExecutionTransportError) Kind() Kind    { return KindExecutionTransport }

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var k interface{ Kind() Kind }
	if stderrors.As(err, &k) {
		return k.Kind(), true
	}
	return "", false
}
