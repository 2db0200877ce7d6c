// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "issue-snapshot",
	Short: "Records today's open and closed issue counts of a GitHub repository.",
	Long: `issue-snapshot counts the open and closed issues of one GitHub repository
and stores them as a single row per calendar day in the "github" table.
Run it once a day from cron. A second run on the same day fails instead of
overwriting the stored row.

Configuration comes from the environment, optionally seeded from a .env file:
GITHUB_TOKEN, GITHUB_REPOSITORY, DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASSWORD.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSnapshot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

// newLogger builds the zap logger selected by the verbose flag.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
