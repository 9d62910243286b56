// Package main is the entry point for the fleetstack CLI.
//
// fleetstack materializes a multi-region application topology: one
// globally replicated table, a network, fleet and edge per target region,
// and an access node in a region of its own. Runs are journaled, so an
// interrupted or partially failed apply resumes where it stopped.
//
// Commands: plan, apply, destroy, outputs, unlock, version.
//
// For detailed usage information, run:
//
//	fleetstack --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/fleetstack/cmd/fleetstack/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// An interrupt cancels the run: work in flight is journaled as pending
	// and the lease is released, so the next apply resumes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
