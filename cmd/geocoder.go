// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver

	"geoconv/geocode"
	"geoconv/results"
)

const databaseFile = "geoconv.duckdb"

// geocodeOptions holds the persistent flags shared by every command that
// talks to a geocoding backend or the database.
type geocodeOptions struct {
	DbPath        string
	Backends      []string
	MinInterval   time.Duration
	Timeout       time.Duration
	Places        string
	GoogleMaps    bool
	TraceHTTP     bool
	TraceHTTPBody bool
	UserAgent     string
}

var options = &geocodeOptions{}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&options.DbPath,
		"db-path",
		"db",
		"Base directory for the results database",
	)
	rootCmd.PersistentFlags().StringSliceVar(
		&options.Backends,
		"backends",
		[]string{"photon", "nominatim"},
		"Ordered geocoding backend chain (photon, nominatim, google_maps)",
	)
	rootCmd.PersistentFlags().DurationVar(
		&options.MinInterval,
		"min-interval",
		time.Second,
		"Minimum delay between two requests to the same backend",
	)
	rootCmd.PersistentFlags().DurationVar(
		&options.Timeout,
		"timeout",
		10*time.Second,
		"Timeout for a single geocoding request",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.Places,
		"places",
		"",
		"GeoJSON file with curated places resolved without any network call",
	)
	rootCmd.PersistentFlags().BoolVar(
		&options.GoogleMaps,
		"google-maps",
		false,
		"Append the Google Maps backend to the chain (needs GOOGLE_MAPS_API_KEY or ADC)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&options.TraceHTTP,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	rootCmd.PersistentFlags().BoolVar(
		&options.TraceHTTPBody,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.UserAgent,
		"user-agent",
		"",
		"Override the User-Agent sent to the geocoding services",
	)
}

func clientOptions() geocode.ClientOptions {
	userAgent := options.UserAgent
	if userAgent == "" {
		userAgent = fmt.Sprintf("geoconv/%s (+https://github.com/geoconv/geoconv)", Version)
	}

	return geocode.ClientOptions{
		UserAgent:           userAgent,
		Timeout:             options.Timeout,
		MinInterval:         options.MinInterval,
		EnableHTTPTrace:     options.TraceHTTP,
		EnableHTTPBodyTrace: options.TraceHTTPBody,
	}
}

// buildResolver assembles the backend chain and the optional gazetteer from
// the persistent flags. The gazetteer is also returned on its own so callers
// can run proximity lookups against the curated places.
func buildResolver(ctx context.Context) (*geocode.Resolver, *geocode.Gazetteer, error) {
	names := options.Backends
	if options.GoogleMaps {
		names = append(names, "google_maps")
	}

	backends := make([]geocode.Backend, 0, len(names))
	seen := make(map[string]bool)

	for _, name := range names {
		if seen[name] {
			continue
		}

		seen[name] = true

		switch name {
		case "photon":
			backends = append(backends, geocode.NewPhoton(clientOptions()))
		case "nominatim":
			backends = append(backends, geocode.NewNominatim(clientOptions()))
		case "google_maps":
			apiKey, err := geocode.GoogleMapsAPIKey(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("resolving Google Maps API key: %w", err)
			}

			backends = append(backends, geocode.NewGoogleMaps(apiKey, clientOptions()))
		default:
			return nil, nil, fmt.Errorf("unknown backend %q (want photon, nominatim or google_maps)", name)
		}
	}

	var gazetteer *geocode.Gazetteer

	if options.Places != "" {
		var err error

		gazetteer, err = geocode.LoadGazetteer(options.Places)
		if err != nil {
			return nil, nil, fmt.Errorf("loading places file: %w", err)
		}

		log.Printf("Loaded %d curated places from %s", gazetteer.Len(), options.Places)
	}

	return geocode.NewResolver(backends, gazetteer), gazetteer, nil
}

// openRepository opens (creating if needed) the results database under the
// --db-path directory.
func openRepository() (results.Repository, *sql.DB, error) {
	if err := os.MkdirAll(options.DbPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(options.DbPath, databaseFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := results.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		_ = db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return repo, db, nil
}
