// Command cauldron drives, records and replays the cauldron engine from the
// command line.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/cauldron/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	reporter, err := cli.NewReporter(os.Getenv("SENTRY_DSN"), version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		reporter = &cli.Reporter{}
	}
	defer reporter.Flush()
	defer reporter.Recover()

	root := cli.NewRootCommand()
	root.Version = version

	cmd, err := root.ExecuteC()
	if err != nil {
		name := root.Name()
		if cmd != nil {
			name = cmd.Name()
		}
		reporter.Capture(name, err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
