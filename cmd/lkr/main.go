// Command lkr is the thin orchestration binary over THE CORE (components
// C1-C8): compile a JSON-AST source file to an LKRB bundle, stub-check
// one, or run a bundle or source file directly. See internal/cli for the
// actual dispatch logic; this file only wires os.Args/os.Exit around it.
package main

import (
	"os"

	"github.com/lollipopkit/lkr/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
