// Command ticktrack watches an upstream tick marker and reconciles tracked
// conflicts against it.
package main

import (
	"context"
	"os"

	"github.com/roach88/ticktrack/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
