package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/facetdex/internal/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "facetdex %s\n", version.String())
			return err
		},
	}
}
