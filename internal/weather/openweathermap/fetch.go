package openweathermap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetch issues a single GET and decodes the JSON body into T.
// Every failure is returned as an *HTTPError.
func Fetch[T any](ctx context.Context, client Doer, u *url.URL) (T, error) {
	var zero T

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return zero, &HTTPError{Kind: KindNetworkError, Cause: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return zero, &HTTPError{Kind: KindNetworkError, Cause: err}
	}
	if resp == nil {
		return zero, &HTTPError{Kind: KindNonHTTPRequest}
	}
	defer resp.Body.Close()

	switch code := resp.StatusCode; {
	case code < 100:
		return zero, &HTTPError{Kind: KindNonHTTPRequest}
	case code >= 400 && code < 500:
		return zero, &HTTPError{Kind: KindRequestFailed, StatusCode: code}
	case code >= 500 && code < 600:
		return zero, &HTTPError{Kind: KindServerError, StatusCode: code}
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, &HTTPError{Kind: KindDecodingError, Cause: err}
	}
	return out, nil
}
