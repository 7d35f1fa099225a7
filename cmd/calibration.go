package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/abhisek/adaptiq/internal/calibrate"
	"github.com/spf13/cobra"
)

var calibrationCmd = &cobra.Command{
	Use:   "calibration",
	Short: "Inspect, export and import stored calibrations",
}

var calibrationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a stored calibration",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt64("id")
		out := cmd.OutOrStdout()

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rec, cal, err := loadCalibration(cmd, s, id)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "ID:        %d\n", rec.ID)
		fmt.Fprintf(out, "Created:   %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Source:    %s\n", rec.Source)
		fmt.Fprintf(out, "Theta0:    %.6f\n", cal.Theta0)
		if rec.Iterations > 0 {
			fmt.Fprintf(out, "Sweeps:    %d (converged: %v)\n", rec.Iterations, rec.Converged)
			fmt.Fprintf(out, "LogLik:    %.4f\n", rec.LogLikelihood)
		}
		fmt.Fprintln(out)

		fmt.Fprintf(out, "%-5s  %-32s  %10s\n", "#", "Item", "Difficulty")
		fmt.Fprintln(out, strings.Repeat("─", 51))
		for i, d := range cal.Difficulty {
			fmt.Fprintf(out, "%-5d  %-32s  %10.4f\n", i, truncate(cal.Key(i), 32), d)
		}
		fmt.Fprintf(out, "\n%d items\n", cal.Items())
		return nil
	},
}

var calibrationExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a stored calibration as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt64("id")
		path, _ := cmd.Flags().GetString("output")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		_, cal, err := loadCalibration(cmd, s, id)
		if err != nil {
			return err
		}
		if path == "" {
			return calibrate.Encode(cmd.OutOrStdout(), cal)
		}
		return writeCalibrationFile(path, cal)
	},
}

var calibrationImportCmd = &cobra.Command{
	Use:   "import <calibration.json>",
	Short: "Store a calibration from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()

		cal, err := calibrate.Decode(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := s.CalibrationRepo().Save(cmd.Context(), calibrate.ToRecord(cal, args[0]))
		if err != nil {
			return fmt.Errorf("save calibration: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported calibration %d (%d items)\n", id, cal.Items())
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func init() {
	calibrationShowCmd.Flags().Int64("id", 0, "Calibration ID (default: latest)")
	calibrationExportCmd.Flags().Int64("id", 0, "Calibration ID (default: latest)")
	calibrationExportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	calibrationCmd.AddCommand(calibrationShowCmd)
	calibrationCmd.AddCommand(calibrationExportCmd)
	calibrationCmd.AddCommand(calibrationImportCmd)
}
