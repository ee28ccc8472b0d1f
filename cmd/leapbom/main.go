// Package main provides the leapbom command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapbom/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
