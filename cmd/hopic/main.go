// Command hopic is the CLI entry point of the engine: it wires
// pkg/cli's root command and maps whatever error Execute returns onto
// the process exit code per spec §7, diverging deliberately from
// _examples/githubnext-gh-aw/cmd/gh-aw/main.go's blind os.Exit(1) on
// any error — Hopic's spec defines a stable per-failure-class exit
// code taxonomy (pkg/hopicerr) that a single os.Exit(1) would erase.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hopic-ci/hopic/pkg/cli"
	"github.com/hopic-ci/hopic/pkg/hopicerr"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "0.0.0-dev"

func main() {
	root := cli.NewRootCommand(version)
	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor implements spec §7's failure-semantics table: a taxonomy
// error's own code, a caught signal's 128+signum, any other error
// exposing an ExitCode() int (a subprocess's *exec.ExitError or
// pkg/phase's own exitCodeError, both propagated as-is), or 1.
func exitCodeFor(err error) int {
	fmt.Fprintln(os.Stderr, "hopic:", err)

	var coded hopicerr.Coded
	if errors.As(err, &coded) {
		return int(coded.ExitCode())
	}

	var sig *hopicerr.SignalExit
	if errors.As(err, &sig) {
		return sig.ExitCode()
	}

	var exitCoded interface{ ExitCode() int }
	if errors.As(err, &exitCoded) {
		return exitCoded.ExitCode()
	}

	return 1
}
