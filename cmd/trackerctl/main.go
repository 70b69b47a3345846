// Command trackerctl is the operator CLI for the tracker: it inspects and
// requeues background jobs, flushes the shared cache, issues tokens, runs
// migrations and seeds reference data.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(newEnvironment()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
