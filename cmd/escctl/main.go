// Command escctl is the operator CLI for a running escd instance.
package main

import (
	"os"

	"github.com/engine-control/esc/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
