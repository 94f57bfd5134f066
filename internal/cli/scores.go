package cli

import (
	"fmt"

	"sifir-drill-service/internal/app"
	"sifir-drill-service/internal/config"
	"sifir-drill-service/internal/logging"
	"github.com/spf13/cobra"
)

// NewScoresCmd groups leaderboard maintenance commands.
func NewScoresCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Inspect or reset the leaderboard",
	}
	cmd.AddCommand(newScoresListCmd(configPath), newScoresClearCmd(configPath))
	return cmd
}

func newScoresListCmd(configPath *string) *cobra.Command {
	var (
		class string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print ranked scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, closeFn, err := scoresService(cmd, *configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			lb, err := service.Leaderboard(cmd.Context(), class, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, e := range lb.Entries {
				fmt.Fprintf(out, "%3d. %-24s %-8s %5d  %s\n", i+1, e.Name, e.ClassName, e.Score, e.Timestamp.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "only show this class")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of entries, 0 for all")
	return cmd
}

func newScoresClearCmd(configPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every ranked score",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear scores without --yes")
			}
			service, closeFn, err := scoresService(cmd, *configPath)
			if err != nil {
				return err
			}
			defer closeFn()
			return service.ClearScores(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func scoresService(cmd *cobra.Command, configPath string) (*app.DrillService, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	b, err := openBackends(cmd.Context(), cfg, log)
	if err != nil {
		return nil, nil, err
	}
	// Scores only; no sessions are started, so no recorder is needed.
	service := app.NewDrillService(b.sessions, b.scores, nil, cfg.Game.Engine(), app.Roster(cfg.Roster), log)
	return service, b.close, nil
}
