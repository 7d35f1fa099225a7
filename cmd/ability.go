package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/adaptiq/internal/irt"
	"github.com/spf13/cobra"
)

var abilityCmd = &cobra.Command{
	Use:   "ability",
	Short: "Estimate one student's ability from their answers",
	Long: `Estimate ability from answers given as item=outcome pairs, for example

  adaptiq ability -r q12=1 -r q40=0 -r q7=1

Item keys refer to the calibration. With no answers the calibration
baseline is reported.`,
	RunE: runAbility,
}

func init() {
	abilityCmd.Flags().StringArrayP("response", "r", nil, "Answer as item=0|1 (repeatable)")
	abilityCmd.Flags().Int64("calibration-id", 0, "Calibration ID (default: latest)")
	abilityCmd.Flags().Bool("predict", false, "Also show the predicted answer for every item")
	abilityCmd.Flags().Bool("next", false, "Also show the most informative unanswered item")
}

func runAbility(cmd *cobra.Command, args []string) error {
	pairs, _ := cmd.Flags().GetStringArray("response")
	calID, _ := cmd.Flags().GetInt64("calibration-id")
	showPredict, _ := cmd.Flags().GetBool("predict")
	showNext, _ := cmd.Flags().GetBool("next")
	out := cmd.OutOrStdout()

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	_, cal, err := loadCalibration(cmd, s, calID)
	if err != nil {
		return err
	}

	records, answered, err := parseResponses(cal, pairs)
	if err != nil {
		return err
	}

	sol, err := cfg.NewEstimator(cal.Theta0).Solve(records)
	if err != nil {
		return fmt.Errorf("estimate: %w", err)
	}
	fmt.Fprintf(out, "Theta:   %.6f\n", sol.Theta)
	fmt.Fprintf(out, "Method:  %s\n", sol.Method)
	fmt.Fprintf(out, "Answers: %d\n", len(records))

	if showNext {
		canQuery := irt.NewMask(1, cal.Items(), true)
		for it := range answered {
			canQuery[0][it] = false
		}
		chosen, err := irt.Selector{}.Select([]float64{sol.Theta}, cal.Difficulty, canQuery)
		if err != nil {
			return err
		}
		if chosen[0] == irt.NoItem {
			fmt.Fprintln(out, "Next:    (every item answered)")
		} else {
			fmt.Fprintf(out, "Next:    %s\n", cal.Key(chosen[0]))
		}
	}

	if showPredict {
		pred := cfg.NewPredictor()
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%-32s  %10s  %6s  %7s\n", "Item", "Difficulty", "P", "Predict")
		fmt.Fprintln(out, strings.Repeat("─", 61))
		for i, d := range cal.Difficulty {
			fmt.Fprintf(out, "%-32s  %10.4f  %6.3f  %7.0f\n",
				truncate(cal.Key(i), 32), d, irt.Probability(sol.Theta, d), pred.PredictOne(sol.Theta, d))
		}
	}
	return nil
}

// parseResponses turns item=outcome flags into records. A repeated item
// keeps its last answer.
func parseResponses(cal *irt.Calibration, pairs []string) ([]irt.Record, map[int]int, error) {
	answered := make(map[int]int, len(pairs))
	order := make([]int, 0, len(pairs))
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		if !ok {
			return nil, nil, fmt.Errorf("response %q: want item=0|1", p)
		}
		it, ok := cal.Index(key)
		if !ok {
			return nil, nil, fmt.Errorf("response %q: unknown item %q", p, key)
		}
		var outcome int
		switch strings.TrimSpace(val) {
		case "1", "true":
			outcome = 1
		case "0", "false":
			outcome = 0
		default:
			return nil, nil, fmt.Errorf("response %q: outcome must be 0 or 1", p)
		}
		if _, seen := answered[it]; !seen {
			order = append(order, it)
		}
		answered[it] = outcome
	}

	records := make([]irt.Record, 0, len(order))
	for _, it := range order {
		records = append(records, irt.Record{Difficulty: cal.Difficulty[it], Outcome: answered[it]})
	}
	return records, answered, nil
}
