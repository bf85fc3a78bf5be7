// Command pcat selects compliance policies from the built-in catalog and
// evaluates them against resource inventories, manifests, AWS accounts and
// Kubernetes clusters.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}

// exitError ends the process with code without printing anything; the
// command has already rendered its result.
type exitError struct {
	code   int
	reason string
}

func (e *exitError) Error() string { return e.reason }
