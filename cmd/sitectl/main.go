// cmd/sitectl/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sitectl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitectl",
		Short: "Stratasite operations CLI",
		Long: `sitectl runs the out-of-band work for a stratasite deployment: the queued
mail worker, integrity sweeps, seeding, data migrations, and credential hashing.
It reads the same STRATASITE_* configuration as the server.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.AddCommand(
		newWorkerCmd(),
		newSweepCmd(),
		newSeedCmd(),
		newMigrateIconsCmd(),
		newHashPasswordCmd(),
	)
	return cmd
}
