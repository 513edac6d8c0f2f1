// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClientOptions(baseURL string) ClientOptions {
	return ClientOptions{
		BaseURL:     baseURL,
		UserAgent:   "geoconv-test",
		Timeout:     2 * time.Second,
		MinInterval: time.Millisecond,
	}
}

func TestNominatim_Geocode(t *testing.T) {
	var gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "geoconv-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"lat": "24.4963107", "lon": "54.3705464", "display_name": "Hamdan Bin Mohammed St, Abu Dhabi"},
			{"lat": "0", "lon": "0", "display_name": "noise"}
		]`))
	}))
	defer server.Close()

	backend := NewNominatim(testClientOptions(server.URL))

	match, err := backend.Geocode(t.Context(), "Hamdan Bin Mohammed St, Abu Dhabi", 1)
	require.NoError(t, err)

	assert.Equal(t, "Hamdan Bin Mohammed St, Abu Dhabi", gotQuery)
	assert.InDelta(t, 24.4963107, match.Point.Lat, 1e-9)
	assert.InDelta(t, 54.3705464, match.Point.Lng, 1e-9)
	assert.Equal(t, "Hamdan Bin Mohammed St, Abu Dhabi", match.DisplayName)
}

func TestNominatim_GeocodeNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	backend := NewNominatim(testClientOptions(server.URL))

	_, err := backend.Geocode(t.Context(), "Atlantis", 1)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestNominatim_GeocodeMalformedCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat": "not-a-number", "lon": "54.37"}]`))
	}))
	defer server.Close()

	backend := NewNominatim(testClientOptions(server.URL))

	_, err := backend.Geocode(t.Context(), "whatever", 1)
	require.Error(t, err)

	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, ErrorTypeMalformedResponse, backendErr.Type)
}

func TestNominatim_GeocodeRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	backend := NewNominatim(testClientOptions(server.URL))

	_, err := backend.Geocode(t.Context(), "whatever", 1)
	require.Error(t, err)
	assert.True(t, IsRateLimitError(err))
}

func TestNominatim_MinIntervalGate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat": "1", "lon": "2", "display_name": "x"}]`))
	}))
	defer server.Close()

	options := testClientOptions(server.URL)
	options.MinInterval = 50 * time.Millisecond
	backend := NewNominatim(options)

	start := time.Now()

	for range 3 {
		_, err := backend.Geocode(t.Context(), "x", 1)
		require.NoError(t, err)
	}

	// Two gated waits after the first request.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}
