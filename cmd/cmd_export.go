// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"geoconv/results"
	"geoconv/utils/strutils"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump stored results to CSV",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		dbpath := filepath.Join(options.DbPath, databaseFile)
		if _, err := os.Stat(dbpath); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database not found at %s - run 'batch' or 'serve' first", dbpath)
		}

		db, err := sql.Open("duckdb", dbpath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		repo := results.NewRepository(db)

		records, err := repo.ListAll()
		if err != nil {
			return fmt.Errorf("listing results: %w", err)
		}

		var w io.Writer = os.Stdout

		if exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()

			w = f
		}

		if err := results.WriteCSV(w, records); err != nil {
			return fmt.Errorf("writing CSV: %w", err)
		}

		if exportOutput != "-" {
			fmt.Printf("✅ Exported %s results to %s\n",
				strutils.FormatInt(int64(len(records))), exportOutput)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(
		&exportOutput,
		"output",
		"o",
		results.CSVFilename,
		"Output CSV file (- for stdout)",
	)
}
