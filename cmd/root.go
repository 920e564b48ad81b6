// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "github-stats-badges",
	Short: "A CLI tool to aggregate a GitHub user's repository statistics into badges.",
	Long: `github-stats-badges walks every repository a GitHub user owns or has
contributed to, aggregates stars, forks and language usage, and renders the
result as overview and languages SVG badges.

Configuration is read from the environment (ACCESS_TOKEN, GITHUB_ACTOR,
EXCLUDED, EXCLUDED_LANGS, COUNT_STATS_FROM_FORKS) and from a .env file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	addPersistentFlags(rootCmd.PersistentFlags())
}

func addPersistentFlags(fs *pflag.FlagSet) {
	// Add a persistent flag for verbose output, available to all commands.
	fs.BoolP("verbose", "v", false, "Enable verbose/debug logging")
	fs.Bool("log-json", false, "Emit logs as JSON (overrides LOG_JSON)")
	fs.String("env-file", ".env", "Optional dotenv file loaded before reading the environment")
}
