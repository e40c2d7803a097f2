// Package cli provides the fpactl maintenance commands.
package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stitts-dev/fpa-dashboard/internal/app"
	"github.com/stitts-dev/fpa-dashboard/pkg/config"
	"github.com/stitts-dev/fpa-dashboard/pkg/logger"
)

// Version is set at build time
var Version = "dev"

type options struct {
	verbose bool
	cfg     *config.Config
	logger  *logrus.Logger
}

// NewRootCmd creates the fpactl root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "fpactl",
		Short:         "Maintain fantasy points against season artifacts",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			opts.cfg = cfg
			opts.logger = logger.InitLogger(level, cfg.LogFormat, true)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress")

	rootCmd.AddCommand(
		newRefreshCmd(opts),
		newShowCmd(opts),
		newInvalidateCmd(opts),
		newMigrateCmd(opts),
	)
	return rootCmd
}

// withApp builds the application for one command and closes it afterwards
func (o *options) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.New(ctx, o.cfg, o.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close()
	return fn(a)
}
