package main

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

const configFlag = "config"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "facetdex <command> [flags]",
		Short:         "Faceted content search service",
		Long:          "Indexes content items per culture and segment and serves faceted search over them.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Example: heredoc.Doc(`
			$ facetdex serve
			$ facetdex index ensure articles books
			$ facetdex index reset articles -c ./config/prod.yaml
			$ facetdex version
		`),
		Annotations: map[string]string{
			"help:environment": heredoc.Doc(`
				ENV selects config/{ENV}.yaml (default: local).
				Variables from a .env file in the working directory are loaded first.
			`),
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	rootCmd.PersistentFlags().StringP(configFlag, "c", "", "Path to a config file (overrides ENV)")

	rootCmd.AddCommand(
		serveCmd(),
		indexCmd(),
		versionCmd(),
	)
	return rootCmd
}
