package openweathermap

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	DefaultScheme = "https"
	DefaultHost   = "api.openweathermap.org"
)

// Route is one of the fixed API endpoints.
type Route string

const (
	RouteWeather  Route = "/data/2.5/weather"
	RouteForecast Route = "/data/2.5/forecast"
	RouteSearch   Route = "/geo/1.0/direct"
)

// URLBuilder assembles request URLs. It exists as an interface so tests can
// observe exactly what a gateway asked for.
type URLBuilder interface {
	Build(scheme, host, path string, query map[string]string) (*url.URL, error)
}

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*$`)

// ComponentsBuilder is the default URLBuilder.
type ComponentsBuilder struct{}

// Build fails only when the components cannot form a URL.
func (ComponentsBuilder) Build(scheme, host, path string, query map[string]string) (*url.URL, error) {
	if !schemeRe.MatchString(scheme) {
		return nil, fmt.Errorf("invalid scheme %q", scheme)
	}
	if host == "" || strings.ContainsAny(host, "/?# ") {
		return nil, fmt.Errorf("invalid host %q", host)
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("path %q must be absolute", path)
	}

	q := url.Values{}
	for k, v := range query {
		q.Set(k, v)
	}
	return &url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     path,
		RawQuery: q.Encode(),
	}, nil
}
