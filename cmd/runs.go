package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded evaluation runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent evaluation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		out := cmd.OutOrStdout()

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.EventRepo().RunSummaries(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No evaluation runs found.")
			return nil
		}

		fmt.Fprintf(out, "%-36s  %-19s  %6s  %9s  %8s\n",
			"Run", "Started", "Rounds", "Responses", "Correct")
		fmt.Fprintln(out, strings.Repeat("─", 88))
		for _, r := range runs {
			fmt.Fprintf(out, "%-36s  %-19s  %6d  %9d  %7.1f%%\n",
				r.RunID,
				r.First.Local().Format("2006-01-02 15:04:05"),
				r.Rounds,
				r.Responses,
				percent(r.Correct, r.Responses),
			)
		}
		return nil
	},
}

var runsViewCmd = &cobra.Command{
	Use:   "view <run-id>",
	Short: "Show every revealed response of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().RunResponses(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("query responses: %w", err)
		}
		if len(events) == 0 {
			return fmt.Errorf("run %q not found", args[0])
		}

		fmt.Fprintf(out, "%5s  %-20s  %-24s  %7s  %8s\n", "Round", "Student", "Item", "Outcome", "Theta")
		fmt.Fprintln(out, strings.Repeat("─", 72))
		for _, e := range events {
			fmt.Fprintf(out, "%5d  %-20s  %-24s  %7d  %8.4f\n",
				e.Round, truncate(e.Student, 20), truncate(e.Item, 24), e.Outcome, e.Theta)
		}
		return nil
	},
}

var runsSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Show the abilities saved by the most recent run",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		snap, err := s.SnapshotRepo().Latest(cmd.Context())
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if snap == nil || snap.Data.Abilities == nil {
			fmt.Fprintln(out, "No snapshots found.")
			return nil
		}
		a := snap.Data.Abilities

		fmt.Fprintf(out, "Run:         %s\n", a.RunID)
		fmt.Fprintf(out, "Calibration: %d\n", a.CalibrationID)
		fmt.Fprintf(out, "Saved:       %s\n", snap.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Updates:     %d\n\n", a.Round)

		fmt.Fprintf(out, "%-32s  %8s\n", "Student", "Theta")
		fmt.Fprintln(out, strings.Repeat("─", 42))
		for i, th := range a.Thetas {
			name := fmt.Sprintf("%d", i)
			if i < len(a.Students) {
				name = a.Students[i]
			}
			fmt.Fprintf(out, "%-32s  %8.4f\n", truncate(name, 32), th)
		}
		return nil
	},
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func init() {
	runsListCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsViewCmd)
	runsCmd.AddCommand(runsSnapshotCmd)
}
