// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"geoconv/geocode"
)

// Metrics tracks outcomes of a batch run.
type Metrics struct {
	Resolved int
	NotFound int
	Skipped  int
}

// Merge combines the metrics from another run into this one.
func (m *Metrics) Merge(other *Metrics) *Metrics {
	if other == nil {
		return m
	}

	m.Resolved += other.Resolved
	m.NotFound += other.NotFound
	m.Skipped += other.Skipped

	return m
}

// Runner resolves a list of addresses strictly one at a time, in input
// order. Individual failures never abort the run.
type Runner struct {
	Resolver *geocode.Resolver

	// ShowProgress draws a progress bar on stderr when it is a terminal.
	ShowProgress bool

	// OnResult, if set, is called after each address with the outcome and
	// the fraction of the batch completed.
	OnResult func(resolution geocode.Resolution, completed, total int)

	Metrics Metrics
}

// Run resolves every address and returns one resolution per non-empty
// address, in input order. Empty or whitespace-only entries are skipped with
// a warning instead of producing a "not found" record.
func (r *Runner) Run(ctx context.Context, addresses []string) []geocode.Resolution {
	n := len(addresses)

	var bar *progressbar.ProgressBar
	if r.ShowProgress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Resolving addresses"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	resolutions := make([]geocode.Resolution, 0, n)

	for i, address := range addresses {
		if strings.TrimSpace(address) == "" {
			log.Printf("[%d/%d] Skipping empty address", i+1, n)
			r.Metrics.Skipped++

			if bar != nil {
				_ = bar.Add(1)
			}

			continue
		}

		resolution := r.Resolver.Resolve(ctx, address)

		if resolution.Resolved() {
			r.Metrics.Resolved++
		} else {
			r.Metrics.NotFound++
			log.Printf("[%d/%d] No match for %q", i+1, n, address)
		}

		resolutions = append(resolutions, resolution)

		if bar != nil {
			_ = bar.Add(1)
		}

		if r.OnResult != nil {
			r.OnResult(resolution, i+1, n)
		}
	}

	return resolutions
}
