package cmd

import (
	"github.com/naka-gawa/github-stats-badges/internal/renderer"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generates the overview and languages SVG badges",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}

		stats, err := env.aggregate(cmd.Context(), true)
		if err != nil {
			return err
		}

		outDir, _ := cmd.Flags().GetString("output")
		if outDir == "" {
			outDir = env.cfg.OutputDir
		}
		return renderer.New(outDir, env.logger).Generate(cmd.Context(), stats)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("output", "o", "", "Output directory for the badges (defaults to OUTPUT_DIR)")
}
