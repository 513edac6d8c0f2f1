// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"geoconv/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local geocoding web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		resolver, _, err := buildResolver(cmd.Context())
		if err != nil {
			return err
		}

		repo, db, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("🗺️  geoconv server starting...")
		fmt.Printf("📍 Open http://%s in your browser\n", serveAddr)
		fmt.Println("🔒 Local only - not exposed to internet")

		return server.NewServer(repo, resolver).Run(serveAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(
		&serveAddr,
		"addr",
		"localhost:8080",
		"Address to listen on",
	)
}
