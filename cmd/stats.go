package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregates GitHub repository statistics and outputs them as JSON",
	Long:  `Aggregates stars, forks and language usage across the repositories of GITHUB_ACTOR and prints the result in JSON format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		withHistory, _ := cmd.Flags().GetBool("history")

		results, err := env.aggregate(cmd.Context(), withHistory)
		if err != nil {
			return err
		}

		// Marshal the results into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results to JSON: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Bool("history", false, "Also collect contributions, lines changed and views")
}
