// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// validate checks academy YAML configuration files and curriculum catalogs.
//
// Usage:
//
//	validate -f config.yaml
//	validate --catalog curriculum.json
//	validate -f config.yaml --catalog curriculum.json
//
// Exit codes:
//   - 0: every given file is valid
//   - 1: a file is invalid (parse or validation error)
//   - 2: usage error
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ManuGH/academy/internal/config"
	"github.com/ManuGH/academy/internal/curriculum"
	"github.com/ManuGH/academy/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file, catalog string
	var showVersion bool
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&catalog, "catalog", "", "path to curriculum catalog (JSON)")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if showVersion {
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	}

	if file == "" && catalog == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --file or --catalog is required")
		_, _ = fmt.Fprintln(stderr, "")
		_, _ = fmt.Fprintln(stderr, "Usage:")
		_, _ = fmt.Fprintln(stderr, "  validate -f config.yaml")
		_, _ = fmt.Fprintln(stderr, "  validate --catalog curriculum.json")
		return 2
	}

	code := 0
	if file != "" {
		// Load runs strict YAML parsing followed by config.Validate.
		if _, err := config.NewLoader(file, version.Version).Load(); err != nil {
			_, _ = fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", file, err)
			code = 1
		} else {
			_, _ = fmt.Fprintf(stdout, "✓ %s is valid\n", file)
		}
	}

	if catalog != "" {
		if err := validateCatalog(catalog); err != nil {
			_, _ = fmt.Fprintf(stderr, "Catalog error in %s:\n  %v\n", catalog, err)
			code = 1
		} else {
			_, _ = fmt.Fprintf(stdout, "✓ %s is valid\n", catalog)
		}
	}
	return code
}

func validateCatalog(path string) error {
	_, err := curriculum.Load(filepath.Clean(path))
	return err
}
