package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/abhisek/adaptiq/internal/calibrate"
	"github.com/abhisek/adaptiq/internal/config"
	"github.com/abhisek/adaptiq/internal/irt"
	"github.com/abhisek/adaptiq/internal/store"
	"github.com/spf13/cobra"
)

// cfg is the effective configuration, loaded before any subcommand runs.
var cfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "adaptiq",
	Short: "Adaptive ability estimation with the Rasch model",
	Long: `adaptiq calibrates item difficulties from historical responses,
estimates student ability from sparse answers and picks the most
informative next question for each student.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides ADAPTIQ_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides ADAPTIQ_CONFIG env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(calibrationCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(abilityCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and installs the default logger.
func setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		loaded.Log.Level = lvl
		if err := loaded.Validate(); err != nil {
			return err
		}
	}
	logger, err := config.NewLogger(os.Stderr, loaded.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	cfg = loaded
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (db_path or ADAPTIQ_DB), then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// loadCalibration returns calibration id, or the latest one when id is 0.
func loadCalibration(cmd *cobra.Command, s *store.Store, id int64) (*store.CalibrationRecord, *irt.Calibration, error) {
	ctx := cmd.Context()
	var (
		rec *store.CalibrationRecord
		err error
	)
	if id == 0 {
		rec, err = s.CalibrationRepo().Latest(ctx)
	} else {
		rec, err = s.CalibrationRepo().Get(ctx, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load calibration: %w (run `adaptiq calibrate` first)", err)
	}
	cal, err := calibrate.FromRecord(rec)
	if err != nil {
		return nil, nil, err
	}
	return rec, cal, nil
}
