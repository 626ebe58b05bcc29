package main

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lineupscout/festival-cli/internal/model"
	"github.com/lineupscout/festival-cli/internal/research"
)

var (
	researchName       string
	researchURL        string
	researchID         string
	researchRetries    int
	researchValidate   bool
	researchSequential bool
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run the research pipeline for a single festival",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		gw, err := initGateway()
		if err != nil {
			return err
		}

		f := model.Festival{
			ID:   researchID,
			Name: researchName,
			URL:  researchURL,
		}
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		if err := st.UpsertFestival(ctx, f); err != nil {
			return eris.Wrap(err, "upsert festival")
		}

		opts := model.RunOptions{
			MaxRetries:       researchRetries,
			EnableValidation: researchValidate,
		}
		if researchSequential {
			parallel := false
			opts.ParallelExecution = &parallel
		}

		runner := research.NewRunner(cfg.Research, gw, st)
		outcome := runner.Run(ctx, f, opts, func(ev model.Event) {
			if ev.Type != model.EventProgress {
				return
			}
			fields := []zap.Field{zap.String("phase", string(ev.Phase))}
			if ev.Confidence != nil {
				fields = append(fields, zap.Float64("confidence", *ev.Confidence))
			}
			zap.L().Info("research progress", fields...)
		})

		zap.L().Info("research complete",
			zap.String("festival", f.Name),
			zap.String("phase", string(outcome.Phase)),
			zap.Float64("overall_confidence", outcome.OverallConfidence),
			zap.Int("warnings", outcome.Warnings),
			zap.Int("errors", outcome.Errors),
			zap.Bool("saved", outcome.Saved),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	},
}

func init() {
	researchCmd.Flags().StringVar(&researchName, "name", "", "festival name (required)")
	researchCmd.Flags().StringVar(&researchURL, "url", "", "festival website URL, if known")
	researchCmd.Flags().StringVar(&researchID, "id", "", "festival ID (generated when omitted)")
	researchCmd.Flags().IntVar(&researchRetries, "max-retries", 0, "override gateway retry bound")
	researchCmd.Flags().BoolVar(&researchValidate, "validate", false, "prune low-confidence company candidates")
	researchCmd.Flags().BoolVar(&researchSequential, "sequential", false, "run dependent phases one at a time")
	_ = researchCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(researchCmd)
}
