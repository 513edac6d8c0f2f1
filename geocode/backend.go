// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode turns free-text addresses into coordinates by querying
// external geocoding services through a tiered relaxation policy.
package geocode

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"geoconv/spatial"
	"geoconv/utils/httputils"
	"golang.org/x/time/rate"
)

// ErrNoMatch is returned by a backend when the service answered but produced
// no result for the query. It is an expected outcome, not a failure.
var ErrNoMatch = errors.New("geocode: no match")

// Match is a single best-match result from a geocoding backend, with both
// provider result shapes normalized to a lat/lng pair.
type Match struct {
	Point       spatial.Point
	DisplayName string
	Confidence  string // high, medium, low
}

// Backend is a geocoding service the resolver can query. Implementations own
// their rate limiting; a call blocks until the client's minimum interval
// since the previous request has elapsed.
type Backend interface {
	// Name identifies the backend ("photon", "nominatim", ...) and doubles
	// as the match-level tag when a secondary backend supplies the result.
	Name() string

	// Geocode resolves a free-text query to at most one best match.
	// It returns ErrNoMatch when the service has no result.
	Geocode(ctx context.Context, query string, limit int) (*Match, error)
}

// ClientOptions configures the HTTP side of a geocoding backend client.
type ClientOptions struct {
	// BaseURL overrides the service endpoint, mainly for tests.
	BaseURL string

	// UserAgent identifies this tool to the service. Public Nominatim and
	// Photon instances require a meaningful value.
	UserAgent string

	// Timeout bounds a single request. Defaults to 10s.
	Timeout time.Duration

	// MinInterval is the minimum delay between two requests to the same
	// backend. Defaults to one second, per the public instances' usage
	// policies.
	MinInterval time.Duration

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool
}

const (
	defaultTimeout     = 10 * time.Second
	defaultMinInterval = time.Second
	defaultUserAgent   = "geoconv/unknown"
)

// newHTTPClient builds the shared transport stack: logging, default headers,
// sane connection limits.
func newHTTPClient(options ClientOptions) *http.Client {
	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		MaxConnsPerHost:       2,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := defaultUserAgent
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		Transport: loggingTransport,
	}

	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: headerTransport,
	}
}

// newLimiter builds the per-backend minimum-interval gate.
func newLimiter(options ClientOptions) *rate.Limiter {
	interval := options.MinInterval
	if interval <= 0 {
		interval = defaultMinInterval
	}

	return rate.NewLimiter(rate.Every(interval), 1)
}
