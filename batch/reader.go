// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

// Package batch reads address lists and resolves them sequentially.
package batch

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// addressColumn is the required header name in tabular input.
const addressColumn = "address"

// ErrMissingAddressColumn is returned when a tabular file has no column
// literally named "address".
var ErrMissingAddressColumn = errors.New("batch: input must contain a column named \"address\"")

// ReadAddressesFile loads addresses from a file, dispatching on the
// extension: .csv and .xlsx are treated as tables with a required `address`
// column, anything else as one address per line. "-" reads lines from stdin.
func ReadAddressesFile(path string) ([]string, error) {
	if path == "-" {
		return ReadLines(os.Stdin)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("opening input file: %w", err)
		}
		defer f.Close()

		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSXFile(path)
	default:
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("opening input file: %w", err)
		}
		defer f.Close()

		return ReadLines(f)
	}
}

// ReadLines parses pasted text: one address per line, blank lines dropped.
func ReadLines(r io.Reader) ([]string, error) {
	var addresses []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		addresses = append(addresses, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading address lines: %w", err)
	}

	return addresses, nil
}

// ReadCSV extracts the `address` column from CSV input. Rows with an empty
// address cell are dropped before resolution.
func ReadCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingAddressColumn
		}

		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	col := findAddressColumn(header)
	if col < 0 {
		return nil, ErrMissingAddressColumn
	}

	var addresses []string

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		if col >= len(row) {
			continue
		}

		address := strings.TrimSpace(row[col])
		if address == "" {
			continue
		}

		addresses = append(addresses, address)
	}

	return addresses, nil
}

// ReadXLSX extracts the `address` column from the first sheet of a
// spreadsheet stream.
func ReadXLSX(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer f.Close()

	return xlsxAddresses(f)
}

// ReadXLSXFile extracts the `address` column from the first sheet of a
// spreadsheet file.
func ReadXLSXFile(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer f.Close()

	return xlsxAddresses(f)
}

func xlsxAddresses(f *excelize.File) ([]string, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("batch: no sheets found in spreadsheet")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, ErrMissingAddressColumn
	}

	col := findAddressColumn(rows[0])
	if col < 0 {
		return nil, ErrMissingAddressColumn
	}

	var addresses []string

	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}

		address := strings.TrimSpace(row[col])
		if address == "" {
			continue
		}

		addresses = append(addresses, address)
	}

	return addresses, nil
}

// The column must be literally named "address"; only a UTF-8 BOM and
// surrounding whitespace are forgiven.
func findAddressColumn(header []string) int {
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		if strings.TrimSpace(name) == addressColumn {
			return i
		}
	}

	return -1
}
