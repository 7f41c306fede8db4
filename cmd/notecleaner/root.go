package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"clinical-note-cleaner/config"
	"clinical-note-cleaner/services"
)

var exampleUsage = strings.TrimSpace(`
  notecleaner clean notes.csv --output output
  notecleaner batch --input input --output output --logs logs
  notecleaner dictionary check --dictionary fully_expanded_dataset.csv
  notecleaner dictionary import fully_expanded_dataset.csv --replace
`)

// cliOptions are the flags shared by every subcommand
type cliOptions struct {
	dictionary string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "notecleaner",
		Short:         "Expand clinical shorthand in notes files",
		Long:          "Expand clinical shorthand in CSV, Excel, text and Word notes using a shorthand dictionary,\nand report every replacement that was made.",
		Example:       exampleUsage,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.dictionary, "dictionary", "", "dictionary file (overrides DICTIONARY_PATH and forces the file source)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	root.AddCommand(
		newCleanCmd(opts),
		newBatchCmd(opts),
		newDictionaryCmd(opts),
	)
	return root
}

// loadConfig reads the environment configuration and applies the shared flags
func (o *cliOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if o.dictionary != "" {
		cfg.Dictionary.Source = config.DictionarySourceFile
		cfg.Dictionary.Path = o.dictionary
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	// Jobs are written to disk directly, nothing needs to be kept around
	cfg.Jobs.Store = config.JobStoreMemory
	cfg.Performance.MetricsEnabled = false
	cfg.Dictionary.Watch = false

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newServices builds the service container for one command run
func (o *cliOptions) newServices(ctx context.Context, cmd *cobra.Command) (*services.ServiceContainer, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return services.NewServiceFactory(cfg).
		WithLogOutput(cmd.ErrOrStderr()).
		CreateServices(ctx)
}
