// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoconv/spatial"
)

// fakeBackend answers from a fixed query table and records every call.
type fakeBackend struct {
	name      string
	responses map[string]*Match
	errs      map[string]error
	calls     []string
}

func (f *fakeBackend) Name() string {
	return f.name
}

func (f *fakeBackend) Geocode(_ context.Context, query string, _ int) (*Match, error) {
	f.calls = append(f.calls, query)

	if err, ok := f.errs[query]; ok {
		return nil, err
	}

	if match, ok := f.responses[query]; ok {
		return match, nil
	}

	return nil, ErrNoMatch
}

func match(lat, lng float64, name string) *Match {
	return &Match{
		Point:       spatial.Point{Lat: lat, Lng: lng},
		DisplayName: name,
		Confidence:  "medium",
	}
}

func TestResolve_FullTierWinsWithoutFurtherCalls(t *testing.T) {
	primary := &fakeBackend{
		name: "photon",
		responses: map[string]*Match{
			"12 Main Street, Springfield": match(39.8, -89.6, "12 Main Street"),
		},
	}
	secondary := &fakeBackend{name: "nominatim"}

	resolver := NewResolver([]Backend{primary, secondary}, nil)
	resolution := resolver.Resolve(t.Context(), "12 Main Street - Springfield")

	require.True(t, resolution.Resolved())
	assert.Equal(t, MatchFull, resolution.MatchLevel)
	assert.Equal(t, "photon", resolution.Provider)
	assert.Equal(t, "12 Main Street, Springfield", resolution.Query)
	assert.Equal(t, "medium", resolution.Confidence)
	assert.InDelta(t, 39.8, resolution.Point.Lat, 1e-9)
	assert.InDelta(t, -89.6, resolution.Point.Lng, 1e-9)

	// First success wins: exactly one network call, none on the fallback.
	assert.Equal(t, []string{"12 Main Street, Springfield"}, primary.calls)
	assert.Empty(t, secondary.calls)
}

func TestResolve_StreetCityTierDropsFirstComponent(t *testing.T) {
	primary := &fakeBackend{
		name: "photon",
		responses: map[string]*Match{
			"Hamdan Bin Mohammed St, Al Zahiyah, Abu Dhabi": match(24.4963, 54.3705, "Hamdan Bin Mohammed St"),
		},
	}

	resolver := NewResolver([]Backend{primary}, nil)
	resolution := resolver.Resolve(t.Context(),
		"Al Masraf Tower - Hamdan Bin Mohammed St - Al Zahiyah - Abu Dhabi")

	require.True(t, resolution.Resolved())
	assert.Equal(t, MatchStreetCity, resolution.MatchLevel)
	assert.Equal(t, "Hamdan Bin Mohammed St, Al Zahiyah, Abu Dhabi", resolution.Query)
	assert.NotNil(t, resolution.Point)
}

func TestResolve_CityTierUsesLastTwoComponents(t *testing.T) {
	primary := &fakeBackend{
		name: "photon",
		responses: map[string]*Match{
			"Al Zahiyah, Abu Dhabi": match(24.49, 54.37, "Al Zahiyah"),
		},
	}

	resolver := NewResolver([]Backend{primary}, nil)
	resolution := resolver.Resolve(t.Context(),
		"Al Masraf Tower, Hamdan Bin Mohammed St, Al Zahiyah, Abu Dhabi")

	require.True(t, resolution.Resolved())
	assert.Equal(t, MatchCity, resolution.MatchLevel)
	assert.Equal(t, "Al Zahiyah, Abu Dhabi", resolution.Query)

	expectedCalls := []string{
		"Al Masraf Tower, Hamdan Bin Mohammed St, Al Zahiyah, Abu Dhabi",
		"Hamdan Bin Mohammed St, Al Zahiyah, Abu Dhabi",
		"Al Zahiyah, Abu Dhabi",
	}
	if diff := cmp.Diff(expectedCalls, primary.calls); diff != "" {
		t.Errorf("call sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_BackendErrorIsATierMiss(t *testing.T) {
	primary := &fakeBackend{
		name: "photon",
		errs: map[string]error{
			"Main Street, Springfield": &BackendError{Type: ErrorTypeTimeout, Message: "timeout"},
		},
		responses: map[string]*Match{
			"Springfield": match(39.8, -89.6, "Springfield"),
		},
	}

	resolver := NewResolver([]Backend{primary}, nil)
	resolution := resolver.Resolve(t.Context(), "Main Street, Springfield")

	require.True(t, resolution.Resolved())
	assert.Equal(t, MatchStreetCity, resolution.MatchLevel)
}

func TestResolve_SecondaryBackendFallbackTaggedByName(t *testing.T) {
	primary := &fakeBackend{name: "photon"}
	secondary := &fakeBackend{
		name: "nominatim",
		responses: map[string]*Match{
			"Obscure Alley, Nowhere, Faraway": match(1.5, 2.5, "Obscure Alley"),
		},
	}

	resolver := NewResolver([]Backend{primary, secondary}, nil)
	resolution := resolver.Resolve(t.Context(), "Obscure Alley - Nowhere - Faraway")

	require.True(t, resolution.Resolved())
	assert.Equal(t, "nominatim", resolution.MatchLevel)
	assert.Equal(t, "nominatim", resolution.Provider)
}

func TestResolve_NotFoundAfterAllTiers(t *testing.T) {
	primary := &fakeBackend{name: "photon"}
	secondary := &fakeBackend{name: "nominatim"}

	resolver := NewResolver([]Backend{primary, secondary}, nil)
	resolution := resolver.Resolve(t.Context(), "Atlantis - Lost City")

	assert.False(t, resolution.Resolved())
	assert.Nil(t, resolution.Point)
	assert.Equal(t, MatchNotFound, resolution.MatchLevel)
	assert.NotEmpty(t, resolution.Comment)
}

func TestResolve_DuplicateQueriesAreNotRepeated(t *testing.T) {
	// With exactly two components the city tier collapses to the full
	// normalized address, which the primary has already seen.
	primary := &fakeBackend{name: "photon"}

	resolver := NewResolver([]Backend{primary}, nil)
	resolution := resolver.Resolve(t.Context(), "Main Street, Springfield")

	assert.Equal(t, MatchNotFound, resolution.MatchLevel)
	assert.Equal(t, []string{
		"Main Street, Springfield",
		"Springfield",
	}, primary.calls)
}

func TestResolve_EmptyAddressMakesNoNetworkCalls(t *testing.T) {
	primary := &fakeBackend{name: "photon"}

	resolver := NewResolver([]Backend{primary}, nil)
	resolution := resolver.Resolve(t.Context(), "   ")

	assert.Equal(t, MatchNotFound, resolution.MatchLevel)
	assert.Empty(t, primary.calls)
}

func TestResolve_GazetteerShortCircuitsBackends(t *testing.T) {
	primary := &fakeBackend{name: "photon"}

	gazetteer := &Gazetteer{
		places: map[string]*Place{
			"al masraf tower": {
				Name:  "Al Masraf Tower",
				Point: spatial.Point{Lat: 24.4963, Lng: 54.3703},
			},
		},
	}

	resolver := NewResolver([]Backend{primary}, gazetteer)
	resolution := resolver.Resolve(t.Context(), "Al Masraf Tower - Hamdan Bin Mohammed St")

	require.True(t, resolution.Resolved())
	assert.Equal(t, MatchGazetteer, resolution.MatchLevel)
	assert.Equal(t, "Al Masraf Tower", resolution.Comment)
	assert.Equal(t, "high", resolution.Confidence)
	assert.Empty(t, primary.calls)
}
