// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

// Package results persists and exports resolution outcomes.
package results

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/uber/h3-go/v4"

	"geoconv/geocode"
	"geoconv/spatial"
)

// Record is one stored resolution outcome. Point is nil for addresses that
// could not be resolved.
type Record struct {
	ID         int64          `json:"id"`
	Address    string         `json:"address"`
	Normalized string         `json:"normalized"`
	Point      *spatial.Point `json:"point"`
	MatchLevel string         `json:"match_level"`
	Provider   string         `json:"provider,omitempty"`
	Confidence string         `json:"confidence,omitempty"`
	Comment    string         `json:"comment,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	H3Res4     int64          `json:"-"`
	H3Res6     int64          `json:"-"`
	H3Res8     int64          `json:"-"`
}

// FromResolution builds a Record from a resolver outcome.
func FromResolution(resolution geocode.Resolution) *Record {
	return &Record{
		Address:    resolution.Address,
		Normalized: resolution.Normalized,
		Point:      resolution.Point,
		MatchLevel: resolution.MatchLevel,
		Provider:   resolution.Provider,
		Confidence: resolution.Confidence,
		Comment:    resolution.Comment,
	}
}

// computeH3 fills the H3 cell columns used for map clustering queries.
func (r *Record) computeH3() error {
	if r.Point == nil {
		r.H3Res4, r.H3Res6, r.H3Res8 = 0, 0, 0

		return nil
	}

	latLng := h3.NewLatLng(r.Point.Lat, r.Point.Lng)

	for _, res := range []int{4, 6, 8} {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return fmt.Errorf("converting to h3 cell at res %d: %w", res, err)
		}

		switch res {
		case 4:
			r.H3Res4 = int64(cell)
		case 6:
			r.H3Res6 = int64(cell)
		case 8:
			r.H3Res8 = int64(cell)
		}
	}

	return nil
}

// Stats summarizes stored resolution outcomes.
type Stats struct {
	Total      int            `json:"total"`
	Resolved   int            `json:"resolved"`
	Percentage float64        `json:"percentage"`
	ByLevel    map[string]int `json:"by_level"`
}

// Repository handles persistence of resolution records.
type Repository interface {
	// CreateSchema creates the results table
	CreateSchema() error

	// BulkInsert stores a batch of records in input order
	BulkInsert(records []*Record) error

	// List returns stored records, newest batch last, paginated
	List(limit, offset int) ([]*Record, error)

	// ListAll returns every stored record in insertion order
	ListAll() ([]*Record, error)

	// Count returns the total number of stored records
	Count() (int, error)

	// Progress returns aggregate outcome statistics
	Progress() (*Stats, error)
}

type sqlRepository struct {
	db *sql.DB
}

// NewRepository creates a DuckDB-backed results repository.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS results_seq START 1;

		CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY DEFAULT nextval('results_seq'),
			address VARCHAR NOT NULL,
			normalized VARCHAR NOT NULL,
			point POINT_2D,
			match_level VARCHAR NOT NULL,
			provider VARCHAR,
			confidence VARCHAR,
			comment VARCHAR,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res4 UBIGINT,
			h3_res6 UBIGINT,
			h3_res8 UBIGINT
		);
	`)

	return err
}

func (r *sqlRepository) BulkInsert(records []*Record) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO results(
			address,
			normalized,
			point,
			match_level,
			provider,
			confidence,
			comment,
			created_at,
			h3_res4,
			h3_res6,
			h3_res8
		) VALUES (?, ?, CASE WHEN ? THEN ST_Point(?, ?) ELSE NULL END, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()

	for _, record := range records {
		if err := record.computeH3(); err != nil {
			_ = tx.Rollback()

			return err
		}

		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}

		var lat, lng float64
		if record.Point != nil {
			lat, lng = record.Point.Lat, record.Point.Lng
		}

		if _, err := stmt.Exec(
			record.Address,
			record.Normalized,
			record.Point != nil,
			lng,
			lat,
			record.MatchLevel,
			record.Provider,
			record.Confidence,
			record.Comment,
			record.CreatedAt,
			record.H3Res4,
			record.H3Res6,
			record.H3Res8,
		); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("inserting record for %q: %w", record.Address, err)
		}
	}

	return tx.Commit()
}

const recordColumns = `
	id,
	address,
	normalized,
	point IS NULL,
	point,
	match_level,
	provider,
	confidence,
	comment,
	created_at
`

func (r *sqlRepository) scanRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record

	for rows.Next() {
		record := &Record{}

		var (
			unresolved bool
			point      spatial.Point
			provider   sql.NullString
			confidence sql.NullString
			comment    sql.NullString
		)

		if err := rows.Scan(
			&record.ID,
			&record.Address,
			&record.Normalized,
			&unresolved,
			&point,
			&record.MatchLevel,
			&provider,
			&confidence,
			&comment,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		if !unresolved {
			record.Point = &point
		}

		record.Provider = provider.String
		record.Confidence = confidence.String
		record.Comment = comment.String

		records = append(records, record)
	}

	return records, rows.Err()
}

func (r *sqlRepository) List(limit, offset int) ([]*Record, error) {
	rows, err := r.db.Query(
		`SELECT `+recordColumns+` FROM results ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

func (r *sqlRepository) ListAll() ([]*Record, error) {
	rows, err := r.db.Query(`SELECT ` + recordColumns + ` FROM results ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

func (r *sqlRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&count)

	return count, err
}

func (r *sqlRepository) Progress() (*Stats, error) {
	stats := &Stats{
		ByLevel: make(map[string]int),
	}

	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(point)
		FROM results
	`).Scan(&stats.Total, &stats.Resolved)
	if err != nil {
		return nil, fmt.Errorf("counting results: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT match_level, COUNT(*)
		FROM results
		GROUP BY match_level
	`)
	if err != nil {
		return nil, fmt.Errorf("grouping by match level: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var level string

		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, err
		}

		stats.ByLevel[level] = count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.Total > 0 {
		stats.Percentage = (float64(stats.Resolved) / float64(stats.Total)) * 100
	}

	return stats, nil
}
