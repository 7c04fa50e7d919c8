// Package main is the accessible-pipeline CLI: it crawls a site, audits every
// page for accessibility problems and reports the results.
//
// Usage:
//
//	accessible-pipeline run https://example.com
//	accessible-pipeline run --streaming https://example.com | accessible-pipeline view --streaming
//	accessible-pipeline view --file report-1700000000000.json
//	accessible-pipeline history
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "accessible-pipeline: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return NewRootCmd().Execute()
}
