// Package main implements the autocurate CLI for indexing content and
// generating personalized digests.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML config file.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "autocurate",
	Short: "Personalized article digest pipeline",
	Long: `autocurate indexes ingested articles into a vector store and composes
personalized digests from them.

Configuration is read from a YAML file and AUTOCURATE_* environment
variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(digestsCmd)
	rootCmd.AddCommand(prefsCmd)
}
