// Package main is the entry point for ecobottle-etl.
package main

import (
	"fmt"
	"os"

	"github.com/wenceslao015/mkt-tp-final/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
