// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"encoding/json"
	"fmt"
	"os"

	"geoconv/spatial"
	"geoconv/utils/strutils"
)

// Place is a curated known location loaded from a local gazetteer file.
type Place struct {
	Name    string        `json:"name"`
	Aliases []string      `json:"aliases,omitempty"`
	Point   spatial.Point `json:"point"`
}

// Gazetteer provides offline lookup of curated places before any network
// geocoding happens. Matching is case- and accent-insensitive.
type Gazetteer struct {
	places map[string]*Place // key: folded name or alias
}

// LoadGazetteer loads known places from a GeoJSON FeatureCollection file.
// Each feature needs a point geometry and a "name" property; an optional
// "aliases" property lists alternate spellings.
func LoadGazetteer(path string) (*Gazetteer, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("reading gazetteer file: %w", err)
	}

	var geoJSON struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties struct {
				Name    string   `json:"name"`
				Aliases []string `json:"aliases"`
			} `json:"properties"`
		} `json:"features"`
	}

	if err := json.Unmarshal(data, &geoJSON); err != nil {
		return nil, fmt.Errorf("parsing gazetteer JSON: %w", err)
	}

	index := &Gazetteer{
		places: make(map[string]*Place),
	}

	for _, feature := range geoJSON.Features {
		if feature.Properties.Name == "" || len(feature.Geometry.Coordinates) < 2 {
			continue
		}

		place := &Place{
			Name:    feature.Properties.Name,
			Aliases: feature.Properties.Aliases,
			Point: spatial.Point{
				// GeoJSON order is [lng, lat]
				Lng: feature.Geometry.Coordinates[0],
				Lat: feature.Geometry.Coordinates[1],
			},
		}

		index.places[strutils.LowerASCIIFolding(place.Name)] = place
		for _, alias := range place.Aliases {
			index.places[strutils.LowerASCIIFolding(alias)] = place
		}
	}

	return index, nil
}

// Len returns the number of indexed names, aliases included.
func (g *Gazetteer) Len() int {
	return len(g.places)
}

// Match looks up a normalized address. The full string is tried first, then
// the most specific component on its own (a curated building name usually
// appears as the leftmost component).
func (g *Gazetteer) Match(normalized string) (*Place, bool) {
	if place, ok := g.places[strutils.LowerASCIIFolding(normalized)]; ok {
		return place, true
	}

	components := Components(normalized)
	if len(components) > 1 {
		if place, ok := g.places[strutils.LowerASCIIFolding(components[0])]; ok {
			return place, true
		}
	}

	return nil, false
}

// Nearest returns the curated place closest to the given coordinates and the
// distance to it in meters. It returns nil when the gazetteer is empty.
// Aliases point at the same place and are counted once.
func (g *Gazetteer) Nearest(point spatial.Point) (*Place, float64) {
	var (
		nearest *Place
		minDist float64
	)

	seen := make(map[*Place]bool, len(g.places))

	for _, place := range g.places {
		if seen[place] {
			continue
		}

		seen[place] = true

		dist := point.HaversineDistance(&place.Point)
		if nearest == nil || dist < minDist {
			nearest, minDist = place, dist
		}
	}

	return nearest, minDist
}
