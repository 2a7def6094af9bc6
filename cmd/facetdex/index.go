package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <command>",
		Short: "Manage physical search indexes",
		Long: heredoc.Doc(`
			Create or rebuild the physical indexes behind configured aliases.
			These commands always write, whatever the node role in the config.
		`),
		Example: heredoc.Doc(`
			$ facetdex index ensure articles
			$ facetdex index reset articles books
		`),
	}

	cmd.AddCommand(
		indexActionCmd("ensure", "Create indexes that do not exist yet",
			func(ctx context.Context, a *app, alias string) error { return a.schema.Ensure(ctx, alias) }),
		indexActionCmd("reset", "Drop and recreate indexes with the current known fields",
			func(ctx context.Context, a *app, alias string) error { return a.schema.Reset(ctx, alias) }),
	)
	return cmd
}

type indexAction func(ctx context.Context, a *app, alias string) error

func indexActionCmd(name, short string, action indexAction) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <alias>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, aliases []string) error {
			cfg, env, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := checkAliases(cfg.Search.Indexes, aliases); err != nil {
				return err
			}
			cfg.Search.Primary = true

			a, err := newApp(cmd.Context(), cfg, env)
			if err != nil {
				return err
			}
			defer a.Close()

			var errs []error
			for _, alias := range aliases {
				if err := action(cmd.Context(), a, alias); err != nil {
					errs = append(errs, fmt.Errorf("%s %s: %w", name, alias, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s done\n", alias, name)
			}
			return errors.Join(errs...)
		},
	}
}

// checkAliases rejects aliases that are not configured under search.indexes.
func checkAliases(configured, requested []string) error {
	var unknown []string
	for _, r := range requested {
		found := false
		for _, c := range configured {
			if strings.EqualFold(c, r) {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, r)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown index alias: %s", strings.Join(unknown, ", "))
	}
	return nil
}
