// Package main provides the askql command.
package main

import (
	"os"

	"github.com/leapstack-labs/askql/internal/cli"

	// Register store adapters
	_ "github.com/leapstack-labs/askql/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/askql/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
