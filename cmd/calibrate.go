package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/abhisek/adaptiq/internal/calibrate"
	"github.com/abhisek/adaptiq/internal/dataset"
	"github.com/abhisek/adaptiq/internal/irt"
	"github.com/spf13/cobra"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate <responses.csv>",
	Short: "Fit item difficulties and baseline ability from historical responses",
	Long: `Fit a Rasch model to a CSV of historical answers and store the result.

The CSV needs a header with UserId, QuestionId and IsCorrect columns.
The stored calibration becomes the latest one used by evaluate and ability.`,
	Args: cobra.ExactArgs(1),
	RunE: runCalibrate,
}

func init() {
	calibrateCmd.Flags().Int("max-iterations", 0, "Override the solver sweep limit")
	calibrateCmd.Flags().StringP("output", "o", "", "Also write the calibration as JSON to this file")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fitCfg := cfg.Calibration
	if n, _ := cmd.Flags().GetInt("max-iterations"); n > 0 {
		fitCfg.MaxIterations = n
	}

	responses, err := dataset.ReadFile(args[0])
	if err != nil {
		return err
	}
	slog.Info("responses loaded", "path", args[0], "count", len(responses))

	res, err := calibrate.Fit(ctx, responses, fitCfg)
	if err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}
	if !res.Converged {
		slog.Warn("calibration did not converge", "iterations", res.Iterations)
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.CalibrationRepo().Save(ctx, calibrate.ResultRecord(res, args[0]))
	if err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := writeCalibrationFile(path, res.Calibration); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Calibration:     %d\n", id)
	fmt.Fprintf(out, "Students:        %d\n", res.Students.Len())
	fmt.Fprintf(out, "Items:           %d\n", res.Calibration.Items())
	fmt.Fprintf(out, "Baseline theta0: %.6f\n", res.Calibration.Theta0)
	fmt.Fprintf(out, "Sweeps:          %d (converged: %v)\n", res.Iterations, res.Converged)
	fmt.Fprintf(out, "Log-likelihood:  %.4f\n", res.LogLikelihood)
	return nil
}

func writeCalibrationFile(path string, cal *irt.Calibration) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := calibrate.Encode(f, cal); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
