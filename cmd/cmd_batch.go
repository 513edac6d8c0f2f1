// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"geoconv/batch"
	"geoconv/results"
	"geoconv/utils/strutils"
)

var batchOutput string

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Resolve every address from a file and export the outcomes",
	Long: `
Reads addresses from a CSV or XLSX file (requires a column named "address"),
or one per line from any other file ("-" reads lines from stdin). Every
address is resolved through the backend chain, stored in the results
database, and written to an output CSV.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addresses, err := batch.ReadAddressesFile(args[0])
		if err != nil {
			return err
		}

		if len(addresses) == 0 {
			return fmt.Errorf("no addresses found in %s", args[0])
		}

		resolver, _, err := buildResolver(cmd.Context())
		if err != nil {
			return err
		}

		repo, db, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		runner := &batch.Runner{
			Resolver:     resolver,
			ShowProgress: true,
		}

		resolutions := runner.Run(cmd.Context(), addresses)

		records := make([]*results.Record, 0, len(resolutions))
		for _, resolution := range resolutions {
			records = append(records, results.FromResolution(resolution))
		}

		if err := repo.BulkInsert(records); err != nil {
			return fmt.Errorf("storing results: %w", err)
		}

		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()

		if err := results.WriteCSV(f, records); err != nil {
			return fmt.Errorf("writing output CSV: %w", err)
		}

		fmt.Printf("✅ Resolved %s of %s addresses (%s skipped), wrote %s\n",
			strutils.FormatInt(int64(runner.Metrics.Resolved)),
			strutils.FormatInt(int64(len(addresses))),
			strutils.FormatInt(int64(runner.Metrics.Skipped)),
			batchOutput,
		)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(
		&batchOutput,
		"output",
		"o",
		results.CSVFilename,
		"Output CSV file",
	)
}
