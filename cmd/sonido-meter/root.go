package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-meter/config"
	"github.com/RyanBlaney/sonido-meter/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "sonido-meter",
		Short:         "Speech delivery assessment: rate, pacing, pauses and text alignment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(
		newAnalyzeCommand(opts),
		newServeCommand(opts),
		newCategoriesCommand(),
	)
	return cmd
}

// load reads the configuration and installs the global logger. Every level
// goes to logOut so stdout only carries command output.
func (o *rootOptions) load(logOut io.Writer) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	logger, err := cfg.Log.Logger(logOut, logOut)
	if err != nil {
		return err
	}
	logging.SetGlobalLogger(logger)

	o.cfg = cfg
	return nil
}
