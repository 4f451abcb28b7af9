// Package main provides the sqreamctl command.
package main

import (
	"os"

	"github.com/leapstack-labs/sqreamsql/internal/cli"
	_ "github.com/leapstack-labs/sqreamsql/pkg/adapters/sqream"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
