// Command corpus is the entrypoint for the knowledge base CLI.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/corpus/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
