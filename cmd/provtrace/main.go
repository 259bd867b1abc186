// cmd/provtrace/main.go
package main

import (
	"os"

	"github.com/bethropolis/provtrace/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
