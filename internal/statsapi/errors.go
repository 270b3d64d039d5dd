package statsapi

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failed fetch.
type Kind string

// Fetch failure kinds.
const (
	KindTimeout      Kind = "timeout"
	KindConnectivity Kind = "connectivity"
	KindHTTPStatus   Kind = "http_status"
	KindGeneric      Kind = "generic"
)

const (
	connectivityMessage = "Cannot connect to the API server. Check: 1) Is the server running? " +
		"2) Is CORS configured? 3) Is the URL correct?"
	genericFallbackMessage = "Could not load data"
)

// FetchError is a classified fetch failure.
type FetchError struct {
	Kind       Kind
	StatusCode int           // set for KindHTTPStatus
	Timeout    time.Duration // set for KindTimeout
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("statsapi: %s", e.Kind)
	}
	return fmt.Sprintf("statsapi: %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Message is the text shown to the user for this failure.
func (e *FetchError) Message() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("Timeout: the API did not respond within %s", humanSeconds(e.Timeout))
	case KindConnectivity:
		return connectivityMessage
	case KindHTTPStatus:
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	default:
		if e.Err != nil && e.Err.Error() != "" {
			return e.Err.Error()
		}
		return genericFallbackMessage
	}
}

// AsFetchError returns err as a *FetchError.
// Errors that were never classified become KindGeneric.
func AsFetchError(err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Kind: KindGeneric, Err: err}
}

func humanSeconds(d time.Duration) string {
	if d <= 0 {
		d = DefaultTimeout
	}
	secs := int(d.Round(time.Second) / time.Second)
	if secs == 1 {
		return "1 second"
	}
	if secs == 0 {
		return d.String()
	}
	return fmt.Sprintf("%d seconds", secs)
}
