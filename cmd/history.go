package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/issue-snapshot/internal/config"
	"github.com/naka-gawa/issue-snapshot/internal/repository"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Prints every stored snapshot as JSON",
	Long:  `Reads the "github" table and prints all stored snapshots, oldest first, in JSON format.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := repository.Open(cmd.Context(), cfg.Database, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		history, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, history)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
