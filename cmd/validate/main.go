// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// validate checks a wavecast YAML configuration file.
//
// Usage:
//
//	validate -f config.yaml
//
// Exit codes:
//   - 0: configuration is valid
//   - 1: configuration is invalid (parse or validation error)
//   - 2: usage error
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ManuGH/wavecast/internal/config"
	xglog "github.com/ManuGH/wavecast/internal/log"
)

var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var file string
	var showVersion bool
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if showVersion {
		_, _ = fmt.Fprintln(stdout, Version)
		return 0
	}
	if file == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --file is required")
		_, _ = fmt.Fprintln(stderr, "Usage: validate -f config.yaml")
		return 2
	}

	// env lookups log at debug; keep the CLI output clean
	xglog.Configure(xglog.Config{Level: "warn", Output: stderr})

	// Load applies strict parsing and validation.
	if _, err := config.NewLoader(file, Version).Load(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", file, err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "%s is valid\n", file)
	return 0
}
