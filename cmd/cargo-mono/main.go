package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	rootCmd := newRootCmd()
	rootCmd.SetArgs(cargoArgs(os.Args[1:]))
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// cargoArgs drops the subcommand name cargo passes when invoked as
// "cargo mono".
func cargoArgs(args []string) []string {
	if len(args) > 0 && args[0] == "mono" {
		return args[1:]
	}
	return args
}
