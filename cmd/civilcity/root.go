package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Diegoproggramer/CivilCity/internal/config"
	"github.com/Diegoproggramer/CivilCity/internal/observability"
)

// app holds what every subcommand shares once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "civilcity",
		Short: "Bilingual Civil City portal",
		Long: `civilcity renders the Civil City portal from a JSON or YAML content document.
It serves the site over HTTP or browses it from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "civilcity.yaml", "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(a),
		newRenderCmd(a),
		newBrowseCmd(a),
		newRoutesCmd(a),
		newEstimateCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(config.WithFile(a.configPath))
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
