package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clinical-note-cleaner/database"
	"clinical-note-cleaner/services"
	"clinical-note-cleaner/substitution"
)

func newDictionaryCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dictionary",
		Short: "Inspect and maintain the shorthand dictionary",
	}
	cmd.AddCommand(
		newDictionaryCheckCmd(opts),
		newDictionaryImportCmd(opts),
		newDictionaryRemoveCmd(opts),
	)
	return cmd
}

func newDictionaryCheckCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the configured dictionary and report its size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := opts.newServices(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			dict := container.Dictionaries.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries\n", container.Dictionaries.Source(), dict.Len())
			if dups := dict.Duplicates(); len(dups) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "duplicate shorthands (last definition kept): %s\n", strings.Join(dups, ", "))
			}
			return nil
		},
	}
}

func newDictionaryImportCmd(opts *cliOptions) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load a dictionary file into the PostgreSQL dictionary table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Validate the whole file before touching the database
			entries, err := services.NewFileDictionarySource(args[0]).Entries(ctx)
			if err != nil {
				return err
			}
			dict, err := substitution.NewDictionary(entries)
			if err != nil {
				return err
			}

			return withRepository(ctx, opts, func(repo *database.DictionaryRepository) error {
				if err := repo.EnsureSchema(ctx); err != nil {
					return err
				}
				n, err := repo.ImportEntries(ctx, dict.Entries(), replace)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries into %s\n", n, repo.Table())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "also delete rows whose shorthand is not in FILE")
	return cmd
}

func newDictionaryRemoveCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove KEY...",
		Short: "Delete shorthands from the PostgreSQL dictionary table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			keys := make([]string, len(args))
			for i, arg := range args {
				keys[i] = substitution.NormalizeKey(arg)
			}

			return withRepository(ctx, opts, func(repo *database.DictionaryRepository) error {
				n, err := repo.DeleteEntries(ctx, keys)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries from %s\n", n, repo.Table())
				return nil
			})
		},
	}
}

// withRepository connects to PostgreSQL for the duration of fn
func withRepository(ctx context.Context, opts *cliOptions, fn func(*database.DictionaryRepository) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	pg, err := database.NewPostgresService(ctx, services.PostgresConfigFrom(cfg.Database))
	if err != nil {
		return fmt.Errorf("connect to dictionary database: %w", err)
	}
	defer pg.Close()

	return fn(database.NewDictionaryRepository(pg, cfg.Dictionary.Table))
}
