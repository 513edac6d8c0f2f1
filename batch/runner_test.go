// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoconv/geocode"
	"geoconv/spatial"
)

// scriptedBackend resolves only the queries it was given.
type scriptedBackend struct {
	name      string
	responses map[string]*geocode.Match
}

func (b *scriptedBackend) Name() string {
	return b.name
}

func (b *scriptedBackend) Geocode(_ context.Context, query string, _ int) (*geocode.Match, error) {
	if match, ok := b.responses[query]; ok {
		return match, nil
	}

	return nil, geocode.ErrNoMatch
}

func TestRunner_OneResultPerAddressInInputOrder(t *testing.T) {
	backend := &scriptedBackend{
		name: "photon",
		responses: map[string]*geocode.Match{
			"Montevideo": {Point: spatial.Point{Lat: -34.9, Lng: -56.2}},
			"Abu Dhabi":  {Point: spatial.Point{Lat: 24.5, Lng: 54.4}},
		},
	}

	runner := &Runner{
		Resolver: geocode.NewResolver([]geocode.Backend{backend}, nil),
	}

	resolutions := runner.Run(t.Context(), []string{
		"Montevideo",
		"Middle Of Nowhere",
		"Abu Dhabi",
	})

	// Address #2 fails every tier; #1 and #3 are unaffected.
	require.Len(t, resolutions, 3)

	assert.Equal(t, "Montevideo", resolutions[0].Address)
	assert.True(t, resolutions[0].Resolved())

	assert.Equal(t, "Middle Of Nowhere", resolutions[1].Address)
	assert.False(t, resolutions[1].Resolved())
	assert.Nil(t, resolutions[1].Point)
	assert.Equal(t, geocode.MatchNotFound, resolutions[1].MatchLevel)

	assert.Equal(t, "Abu Dhabi", resolutions[2].Address)
	assert.True(t, resolutions[2].Resolved())

	assert.Equal(t, 2, runner.Metrics.Resolved)
	assert.Equal(t, 1, runner.Metrics.NotFound)
	assert.Equal(t, 0, runner.Metrics.Skipped)
}

func TestRunner_SkipsEmptyAddressesWithoutRecord(t *testing.T) {
	backend := &scriptedBackend{
		name: "photon",
		responses: map[string]*geocode.Match{
			"Montevideo": {Point: spatial.Point{Lat: -34.9, Lng: -56.2}},
		},
	}

	runner := &Runner{
		Resolver: geocode.NewResolver([]geocode.Backend{backend}, nil),
	}

	resolutions := runner.Run(t.Context(), []string{"", "   ", "Montevideo"})

	require.Len(t, resolutions, 1)
	assert.Equal(t, "Montevideo", resolutions[0].Address)
	assert.Equal(t, 2, runner.Metrics.Skipped)
}

func TestRunner_ReportsProgress(t *testing.T) {
	backend := &scriptedBackend{name: "photon"}

	var fractions []float64

	runner := &Runner{
		Resolver: geocode.NewResolver([]geocode.Backend{backend}, nil),
		OnResult: func(_ geocode.Resolution, completed, total int) {
			fractions = append(fractions, float64(completed)/float64(total))
		},
	}

	runner.Run(t.Context(), []string{"a", "b"})

	assert.Equal(t, []float64{0.5, 1.0}, fractions)
}

func TestMetrics_Merge(t *testing.T) {
	m := &Metrics{Resolved: 1, NotFound: 2, Skipped: 3}
	m.Merge(&Metrics{Resolved: 10, NotFound: 20, Skipped: 30})
	m.Merge(nil)

	assert.Equal(t, &Metrics{Resolved: 11, NotFound: 22, Skipped: 33}, m)
}
