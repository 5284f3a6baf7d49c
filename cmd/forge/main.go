// Command forge is the CLI surface for the object graph store, the
// manifest renderer, the FUSE mount, the sync/repair engine and the
// builder -- a thin cobra command tree that wires configuration and
// logging and then calls straight into the library packages, the way
// cmd/registry/main.go drives registry/handlers.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
