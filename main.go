// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"geoconv/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
