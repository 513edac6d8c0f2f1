// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"geoconv/geocode"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <address> [address...]",
	Short: "Resolve one or more addresses and print the outcome",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, gazetteer, err := buildResolver(cmd.Context())
		if err != nil {
			return err
		}

		for _, address := range args {
			if strings.TrimSpace(address) == "" {
				return fmt.Errorf("address must not be empty")
			}

			resolution := resolver.Resolve(cmd.Context(), address)

			if resolution.Resolved() {
				fmt.Printf("%s\n  %.6f, %.6f  [%s via %s]  %s\n",
					resolution.Address,
					resolution.Point.Lat,
					resolution.Point.Lng,
					resolution.MatchLevel,
					resolution.Provider,
					resolution.Comment,
				)

				if gazetteer != nil && resolution.MatchLevel != geocode.MatchGazetteer {
					if place, meters := gazetteer.Nearest(*resolution.Point); place != nil {
						fmt.Printf("  nearest curated place: %s (%.1f km)\n", place.Name, meters/1000)
					}
				}
			} else {
				fmt.Printf("%s\n  not found  (%s)\n", resolution.Address, resolution.Comment)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
