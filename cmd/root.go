package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd runs the server when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "social-house",
	Short: "Social photo-sharing backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "config file path")
}
