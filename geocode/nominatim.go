// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"geoconv/spatial"
	"golang.org/x/time/rate"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// Nominatim queries the OpenStreetMap Nominatim search API. The service
// returns a flat JSON list with string-encoded latitude/longitude fields.
type Nominatim struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNominatim creates a Nominatim backend client.
func NewNominatim(options ClientOptions) *Nominatim {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = nominatimBaseURL
	}

	return &Nominatim{
		baseURL:    baseURL,
		httpClient: newHTTPClient(options),
		limiter:    newLimiter(options),
	}
}

// Name implements the Backend interface.
func (n *Nominatim) Name() string {
	return "nominatim"
}

type nominatimItem struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode implements the Backend interface.
func (n *Nominatim) Geocode(ctx context.Context, query string, limit int) (*Match, error) {
	if limit <= 0 {
		limit = 1
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	reqURL := n.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, &BackendError{
			Type:    ErrorTypeNetworkError,
			Message: "nominatim request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPStatus(resp.StatusCode)
	}

	var items []nominatimItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, &BackendError{
			Type:    ErrorTypeMalformedResponse,
			Message: "decoding nominatim response",
			Err:     err,
		}
	}

	if len(items) == 0 {
		return nil, ErrNoMatch
	}

	item := items[0]

	lat, err := strconv.ParseFloat(item.Lat, 64)
	if err != nil {
		return nil, &BackendError{
			Type:    ErrorTypeMalformedResponse,
			Message: fmt.Sprintf("parsing latitude %q", item.Lat),
			Err:     err,
		}
	}

	lon, err := strconv.ParseFloat(item.Lon, 64)
	if err != nil {
		return nil, &BackendError{
			Type:    ErrorTypeMalformedResponse,
			Message: fmt.Sprintf("parsing longitude %q", item.Lon),
			Err:     err,
		}
	}

	match := &Match{
		Point:       spatial.Point{Lat: lat, Lng: lon},
		DisplayName: item.DisplayName,
		Confidence:  "medium",
	}

	if err := match.Point.Validate(); err != nil {
		return nil, &BackendError{
			Type:    ErrorTypeMalformedResponse,
			Message: "nominatim returned coordinates out of range",
			Err:     err,
		}
	}

	return match, nil
}
