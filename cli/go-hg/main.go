package main

import (
	"fmt"
	"os"
)

const (
	bin = "go-hg"

	// Exit codes follow the ones of hg: 1 for a failed command, 255 for
	// an abort.
	commandFailedExitCode = 1
	abortExitCode         = 255
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "abort:", err)
		os.Exit(abortExitCode)
	}

	if a.failed {
		os.Exit(commandFailedExitCode)
	}
}
