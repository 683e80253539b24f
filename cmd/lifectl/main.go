package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/littlelife/lifectl/internal/launch"
	"github.com/littlelife/lifectl/internal/logging"
	"github.com/littlelife/lifectl/internal/tools"
)

func main() {
	logging.ConfigureRuntime()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		// The entry point's exit status is mirrored without extra output;
		// the application already reported whatever went wrong.
		var exitErr *launch.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}

		fmt.Fprintf(os.Stderr, "lifectl: %v\n", err)
		os.Exit(tools.ExitCode(err))
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errors.New("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "provision":
		return runProvision(rest, out)
	case "launch":
		return runLaunch(rest, out)
	case "doctor":
		return runDoctor(rest, out)
	case "config":
		return runConfig(rest, out)
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		usage(out)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage(out io.Writer) {
	fmt.Fprint(out, `lifectl - bootstrap and launch the Little Life application

Usage:
  lifectl <command> [options]

Commands:
  provision   build the isolated environment from the manifest
  launch      start the application entry point
  doctor      run preflight checks over the project
  config      print the resolved tool config and application record

Options (per command):
  -config PATH   path to lifectl.toml (defaults apply when omitted)
  -keep          provision only: keep the existing environment

Environment:
  PYTHON_BIN            interpreter override for provisioning
  LIFECTL_LOG_LEVEL     trace|debug|info|warn|error|off
`)
}
