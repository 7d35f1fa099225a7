package cmd

import (
	"fmt"
	"log/slog"

	"github.com/abhisek/adaptiq/internal/dataset"
	"github.com/abhisek/adaptiq/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <responses.csv>",
	Short: "Replay an adaptive session against known answers and score predictions",
	Long: `Run the adaptive loop over a CSV of known answers.

Each round every student is asked the most informative item still
available, the true answer is revealed and abilities are re-estimated.
After the last round the answers that were never revealed are predicted
and scored. Responses whose item is not in the calibration are dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().Int("rounds", 0, "Number of rounds (default from config)")
	evaluateCmd.Flags().Int("workers", 0, "Parallel estimation workers (default from config)")
	evaluateCmd.Flags().Int64("calibration-id", 0, "Calibration ID (default: latest)")
	evaluateCmd.Flags().String("metrics-out", "", "Write Prometheus metrics in text format to this file")
	evaluateCmd.Flags().Bool("no-record", false, "Do not persist response events or snapshots")
	evaluateCmd.Flags().Bool("resume", false, "Seed abilities from the latest snapshot when it matches the calibration and students")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rounds, _ := cmd.Flags().GetInt("rounds")
	workers, _ := cmd.Flags().GetInt("workers")
	calID, _ := cmd.Flags().GetInt64("calibration-id")
	metricsOut, _ := cmd.Flags().GetString("metrics-out")
	noRecord, _ := cmd.Flags().GetBool("no-record")
	resume, _ := cmd.Flags().GetBool("resume")
	if rounds <= 0 {
		rounds = cfg.Evaluate.Rounds
	}
	if workers <= 0 {
		workers = cfg.Evaluate.Workers
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, cal, err := loadCalibration(cmd, s, calID)
	if err != nil {
		return err
	}

	responses, err := dataset.ReadFile(args[0])
	if err != nil {
		return err
	}
	grid := dataset.NewGrid(responses, cal, cal.Items())
	if grid.Students.Len() == 0 {
		return fmt.Errorf("%s: no responses", args[0])
	}
	if grid.Dropped > 0 {
		slog.Warn("responses for unknown items dropped", "count", grid.Dropped)
	}

	reg := prometheus.NewRegistry()
	metrics := session.NewMetrics(reg)

	sess, err := session.New(cal, grid.Students.Len(), session.Options{
		Estimator: cfg.NewEstimator(cal.Theta0),
		Predictor: cfg.NewPredictor(),
		Workers:   workers,
		Metrics:   metrics,
		Logger:    slog.Default(),
	})
	if err != nil {
		return err
	}

	runner := &session.Runner{
		Session:       sess,
		Rounds:        rounds,
		CalibrationID: rec.ID,
		Students:      grid.Students.Keys(),
		SnapshotKeep:  cfg.Evaluate.SnapshotKeep,
		Metrics:       metrics,
		Logger:        slog.Default(),
	}
	if !noRecord {
		runner.Events = s.EventRepo()
		runner.Snapshots = s.SnapshotRepo()
	}

	resumed := false
	if resume {
		if resumed, err = runner.Resume(ctx, s.SnapshotRepo()); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
	}

	sum, err := runner.Run(ctx, grid.Outcome, grid.Observed)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	if metricsOut != "" {
		if err := prometheus.WriteToTextfile(metricsOut, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:         %s\n", sum.RunID)
	fmt.Fprintf(out, "Calibration: %d\n", rec.ID)
	fmt.Fprintf(out, "Students:    %d\n", grid.Students.Len())
	if resume {
		fmt.Fprintf(out, "Resumed:     %t\n", resumed)
	}
	fmt.Fprintf(out, "Rounds:      %d\n", sum.Rounds)
	fmt.Fprintf(out, "Revealed:    %d\n", sum.Revealed)
	fmt.Fprintf(out, "Scored:      %d\n", sum.Scored)
	fmt.Fprintf(out, "Accuracy:    %.4f\n", sum.Accuracy())
	fmt.Fprintf(out, "Mean theta:  %.4f\n", sum.MeanTheta)
	return nil
}
