// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"strings"

	"geoconv/spatial"
)

// Match levels record which relaxation tier produced a resolution. A
// secondary-backend fallback is tagged with the backend name instead.
const (
	MatchFull       = "full"
	MatchStreetCity = "street+city"
	MatchCity       = "city"
	MatchGazetteer  = "gazetteer"
	MatchNotFound   = "not found"
)

// Resolution is the outcome of resolving one raw address. Point is nil when
// every tier against every backend failed.
type Resolution struct {
	Address    string         `json:"address"`
	Normalized string         `json:"normalized"`
	Point      *spatial.Point `json:"point"`
	MatchLevel string         `json:"match_level"`
	Provider   string         `json:"provider,omitempty"`
	Query      string         `json:"query,omitempty"`
	Confidence string         `json:"confidence,omitempty"`
	Comment    string         `json:"comment,omitempty"`
}

// Resolved reports whether the address produced coordinates.
func (r *Resolution) Resolved() bool {
	return r.Point != nil
}

// Resolver maps one raw address to a Resolution by trying successively
// coarser queries against an ordered backend chain. It holds no mutable
// state; resolutions are independent of each other.
type Resolver struct {
	backends  []Backend
	gazetteer *Gazetteer
}

// NewResolver creates a resolver over a priority-ordered backend chain. The
// first backend is the primary; the rest serve the relaxation tiers and the
// final full-address fallback. An optional gazetteer short-circuits network
// geocoding for curated places.
func NewResolver(backends []Backend, gazetteer *Gazetteer) *Resolver {
	return &Resolver{
		backends:  backends,
		gazetteer: gazetteer,
	}
}

// Resolve maps a raw address string to a Resolution. It never returns an
// error: backend failures count as tier misses and the worst outcome is a
// "not found" record. Callers are expected to reject empty input themselves;
// for safety an empty address still resolves to "not found" without any
// network call.
func (r *Resolver) Resolve(ctx context.Context, rawAddress string) Resolution {
	resolution := Resolution{
		Address:    rawAddress,
		Normalized: Normalize(rawAddress),
	}

	if resolution.Normalized == "" {
		resolution.MatchLevel = MatchNotFound
		resolution.Comment = "empty address"

		return resolution
	}

	if r.gazetteer != nil {
		if place, ok := r.gazetteer.Match(resolution.Normalized); ok {
			point := place.Point
			resolution.Point = &point
			resolution.MatchLevel = MatchGazetteer
			resolution.Provider = MatchGazetteer
			resolution.Query = resolution.Normalized
			resolution.Confidence = "high"
			resolution.Comment = place.Name

			return resolution
		}
	}

	if len(r.backends) == 0 {
		resolution.MatchLevel = MatchNotFound
		resolution.Comment = "no geocoding backends configured"

		return resolution
	}

	// Tracks query/backend pairs already attempted so coarser tiers that
	// collapse to an identical query don't repeat the network call.
	tried := make(map[string]bool)

	query := func(b Backend, q string) *Match {
		key := b.Name() + "|" + q
		if tried[key] {
			return nil
		}

		tried[key] = true

		match, err := b.Geocode(ctx, q, 1)
		if err != nil {
			// Timeouts, HTTP errors, and malformed payloads are all
			// tier misses; the loop simply moves on.
			return nil
		}

		return match
	}

	found := func(level string, b Backend, q string, match *Match) Resolution {
		point := match.Point
		resolution.Point = &point
		resolution.MatchLevel = level
		resolution.Provider = b.Name()
		resolution.Query = q
		resolution.Confidence = match.Confidence
		resolution.Comment = match.DisplayName

		return resolution
	}

	primary := r.backends[0]

	// Tier "full": the normalized address, unmodified, primary backend only.
	if match := query(primary, resolution.Normalized); match != nil {
		return found(MatchFull, primary, resolution.Normalized, match)
	}

	components := Components(resolution.Normalized)

	// Tier "street+city": drop the most specific component.
	if len(components) >= 2 {
		q := strings.Join(components[1:], ", ")
		for _, backend := range r.backends {
			if match := query(backend, q); match != nil {
				return found(MatchStreetCity, backend, q, match)
			}
		}
	}

	// Tier "city": the last two components, or the only one.
	if len(components) >= 1 {
		tail := components
		if len(tail) > 2 {
			tail = tail[len(tail)-2:]
		}

		q := strings.Join(tail, ", ")
		for _, backend := range r.backends {
			if match := query(backend, q); match != nil {
				return found(MatchCity, backend, q, match)
			}
		}
	}

	// Secondary-backend fallback: retry the full normalized address against
	// the rest of the chain, tagged with the backend name.
	for _, backend := range r.backends[1:] {
		if match := query(backend, resolution.Normalized); match != nil {
			return found(backend.Name(), backend, resolution.Normalized, match)
		}
	}

	resolution.MatchLevel = MatchNotFound
	resolution.Comment = "no backend returned a match at any relaxation tier"

	return resolution
}
