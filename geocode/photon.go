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
	"strings"

	"geoconv/spatial"
	"golang.org/x/time/rate"
)

const photonBaseURL = "https://photon.komoot.io"

// Photon queries the komoot Photon API. The service returns a GeoJSON-like
// feature collection; coordinates are ordered [longitude, latitude].
type Photon struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewPhoton creates a Photon backend client.
func NewPhoton(options ClientOptions) *Photon {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = photonBaseURL
	}

	return &Photon{
		baseURL:    baseURL,
		httpClient: newHTTPClient(options),
		limiter:    newLimiter(options),
	}
}

// Name implements the Backend interface.
func (p *Photon) Name() string {
	return "photon"
}

type photonResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Name    string `json:"name"`
			Street  string `json:"street"`
			City    string `json:"city"`
			Country string `json:"country"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode implements the Backend interface.
func (p *Photon) Geocode(ctx context.Context, query string, limit int) (*Match, error) {
	if limit <= 0 {
		limit = 1
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	reqURL := p.baseURL + "/api?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &BackendError{
			Type:    ErrorTypeNetworkError,
			Message: "photon request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPStatus(resp.StatusCode)
	}

	var payload photonResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &BackendError{
			Type:    ErrorTypeMalformedResponse,
			Message: "decoding photon response",
			Err:     err,
		}
	}

	if len(payload.Features) == 0 {
		return nil, ErrNoMatch
	}

	feature := payload.Features[0]
	if len(feature.Geometry.Coordinates) < 2 {
		return nil, &BackendError{
			Type:    ErrorTypeMalformedResponse,
			Message: "photon feature has no coordinate pair",
		}
	}

	// GeoJSON order is [lng, lat]
	match := &Match{
		Point: spatial.Point{
			Lat: feature.Geometry.Coordinates[1],
			Lng: feature.Geometry.Coordinates[0],
		},
		DisplayName: photonDisplayName(
			feature.Properties.Name,
			feature.Properties.Street,
			feature.Properties.City,
			feature.Properties.Country,
		),
		Confidence: "medium",
	}

	if err := match.Point.Validate(); err != nil {
		return nil, &BackendError{
			Type:    ErrorTypeMalformedResponse,
			Message: "photon returned coordinates out of range",
			Err:     err,
		}
	}

	return match, nil
}

func photonDisplayName(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))

	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}

	return strings.Join(nonEmpty, ", ")
}
