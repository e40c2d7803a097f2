package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stitts-dev/fpa-dashboard/internal/analysis"
	"github.com/stitts-dev/fpa-dashboard/internal/app"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
	"github.com/stitts-dev/fpa-dashboard/internal/services"
	"github.com/stitts-dev/fpa-dashboard/internal/store"
	"github.com/stitts-dev/fpa-dashboard/pkg/database"
)

func parseSeasonArgs(args []string) ([]int, error) {
	seasons := make([]int, 0, len(args))
	for _, arg := range args {
		season, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid season %q", arg)
		}
		seasons = append(seasons, season)
	}
	return seasons, nil
}

func newRefreshCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [seasons...]",
		Short: "Build artifacts for seasons that have none (all configured seasons by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			seasons, err := parseSeasonArgs(args)
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				report := a.Warmer.Refresh(cmd.Context(), services.TriggerCLI, seasons)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "built: %v\npresent: %v\n", report.Built, report.Present)
				if len(report.Failed) == 0 {
					return nil
				}
				failed := make([]int, 0, len(report.Failed))
				for season := range report.Failed {
					failed = append(failed, season)
				}
				sort.Ints(failed)
				for _, season := range failed {
					fmt.Fprintf(out, "failed %d: %s\n", season, report.Failed[season])
				}
				return fmt.Errorf("%d season(s) failed", len(failed))
			})
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	var (
		position string
		scoring  string
		graph    string
		format   string
		rows     bool
		final    bool
	)

	cmd := &cobra.Command{
		Use:   "show SEASON",
		Short: "Print a season's defense averages, building the artifact if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			season, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid season %q", args[0])
			}
			pos, err := analysis.ParsePosition(position)
			if err != nil {
				return err
			}
			sys, err := analysis.ParseScoringSystem(scoring)
			if err != nil {
				return err
			}
			gt, err := analysis.ParseGraphType(graph)
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(a *app.App) error {
				table, err := a.Allowances.Get(cmd.Context(), season)
				if err != nil {
					return err
				}
				if rows {
					filtered := make([]nfl.AllowanceRow, 0, len(table.Rows))
					for _, r := range table.Rows {
						if r.Position == pos {
							filtered = append(filtered, r)
						}
					}
					return renderAllowanceRows(cmd.OutOrStdout(), filtered, format)
				}
				bars, err := analysis.DefenseAverages(analysis.FilterPosition(table.Rows, pos, final), sys, gt)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), analysis.Title(season, sys, pos))
				return renderDefenseAverages(cmd.OutOrStdout(), bars, sys, format)
			})
		},
	}

	cmd.Flags().StringVarP(&position, "position", "p", string(analysis.DefaultPosition), "Position (QB, RB, WR, TE, non_skill)")
	cmd.Flags().StringVarP(&scoring, "scoring", "s", string(analysis.DefaultScoringSystem), "Scoring system (Standard, Half-PPR, PPR)")
	cmd.Flags().StringVarP(&graph, "graph", "g", "raw", "Graph type (raw, adjusted)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, csv, markdown)")
	cmd.Flags().BoolVar(&rows, "rows", false, "Print the aggregated rows instead of averages")
	cmd.Flags().BoolVar(&final, "include-final-week", false, "Include the final regular season week")
	return cmd
}

func newInvalidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate SEASON",
		Short: "Delete a season artifact so it is rebuilt on next use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			season, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid season %q", args[0])
			}
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Allowances.Invalidate(cmd.Context(), season); err != nil {
					if errors.Is(err, store.ErrArtifactNotFound) {
						return fmt.Errorf("no artifact stored for season %d", season)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "invalidated %d\n", season)
				return nil
			})
		},
	}
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			db, err := database.NewConnection(opts.cfg.DatabaseURL, opts.cfg.IsDevelopment())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed successfully")
			return nil
		},
	}
}
