// Package main is the entry point for the edenpkg CLI tool.
package main

import (
	"os"

	"github.com/edenpkg/edenpkg/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
