// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVFilename is the suggested name for exported result files.
const CSVFilename = "address_coordinates.csv"

// WriteCSV exports records with the columns
// address,latitude,longitude,match_type,comment. Latitude and longitude are
// left empty for unresolved addresses.
func WriteCSV(w io.Writer, records []*Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"address", "latitude", "longitude", "match_type", "comment"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, record := range records {
		var lat, lng string
		if record.Point != nil {
			lat = strconv.FormatFloat(record.Point.Lat, 'f', -1, 64)
			lng = strconv.FormatFloat(record.Point.Lng, 'f', -1, 64)
		}

		row := []string{record.Address, lat, lng, record.MatchLevel, record.Comment}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for %q: %w", record.Address, err)
		}
	}

	cw.Flush()

	return cw.Error()
}
