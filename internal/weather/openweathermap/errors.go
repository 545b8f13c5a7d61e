package openweathermap

import (
	"errors"
	"fmt"
)

// Kind classifies why a request failed.
type Kind int

const (
	KindNonHTTPRequest Kind = iota + 1
	KindRequestFailed
	KindServerError
	KindNetworkError
	KindDecodingError
)

// Sentinels for errors.Is; an *HTTPError matches the sentinel of its Kind.
var (
	ErrNonHTTPRequest = &HTTPError{Kind: KindNonHTTPRequest}
	ErrRequestFailed  = &HTTPError{Kind: KindRequestFailed}
	ErrServerError    = &HTTPError{Kind: KindServerError}
	ErrNetwork        = &HTTPError{Kind: KindNetworkError}
	ErrDecoding       = &HTTPError{Kind: KindDecodingError}
)

// HTTPError is the closed error set returned by Fetch.
type HTTPError struct {
	Kind       Kind
	StatusCode int   // set for KindRequestFailed and KindServerError
	Cause      error // set for KindNetworkError and KindDecodingError
}

func (e *HTTPError) Error() string {
	switch e.Kind {
	case KindNonHTTPRequest:
		return "Non HTTP URL Request"
	case KindRequestFailed:
		return fmt.Sprintf("Request failed with status code: %d", e.StatusCode)
	case KindServerError:
		return fmt.Sprintf("Server error, status code: %d", e.StatusCode)
	case KindNetworkError, KindDecodingError:
		if e.Cause != nil {
			return e.Cause.Error()
		}
	}
	return "unknown http error"
}

func (e *HTTPError) Unwrap() error { return e.Cause }

func (e *HTTPError) Is(target error) bool {
	t, ok := target.(*HTTPError)
	return ok && t.Kind == e.Kind && (t.StatusCode == 0 || t.StatusCode == e.StatusCode)
}

// Retriable reports whether a repeat of the same request could succeed.
// Nothing in this module acts on it.
func (e *HTTPError) Retriable() bool {
	switch e.Kind {
	case KindDecodingError:
		return false
	case KindRequestFailed:
		return e.StatusCode == 408 || e.StatusCode == 429
	default:
		return true
	}
}

// IsRetriable is Retriable for arbitrary errors; non-HTTPErrors are not retriable.
func IsRetriable(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Retriable()
}
