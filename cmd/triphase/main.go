package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/phitlab/triphase/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Commands print their own errors through the formatter; only
		// surface errors nothing else reported (flag parsing, unknown
		// subcommands).
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
