// Command taskcheck assigns calendar time to a Taskwarrior backlog of
// estimated tasks, per spec §6's CLI surface.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/emiller/taskcheck/internal/app"
	"github.com/emiller/taskcheck/internal/config"
	"github.com/emiller/taskcheck/internal/taskcheckerr"
	"github.com/emiller/taskcheck/internal/taskwarrior"
)

var (
	verbose          bool
	install          bool
	report           string
	doSchedule       bool
	forceUpdate      bool
	taskrc           string
	urgencyWeight    float64
	urgencyWeightSet bool
	dryRun           bool
	configPath       string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "taskcheck",
	Short: "Assign calendar time to a Taskwarrior backlog of estimated tasks",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	RunE: runRoot,
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.Flags().BoolVarP(&install, "install", "i", false, "declare the estimated/time_map/scheduling/min_block UDAs and exit")
	rootCmd.Flags().StringVarP(&report, "report", "r", "", "render a report for the given taskwarrior date expression (out of scope for the core)")
	rootCmd.Flags().BoolVarP(&doSchedule, "schedule", "s", false, "run the scheduler")
	rootCmd.Flags().BoolVarP(&forceUpdate, "force-update", "f", false, "force a calendar refetch, ignoring cache expiration")
	rootCmd.Flags().StringVar(&taskrc, "taskrc", "", "path to an alternate .taskrc")
	rootCmd.Flags().Float64Var(&urgencyWeight, "urgency-weight", 0, "override weight_urgency (weight_due_date is set to its complement)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "suppress task modify calls and print the allocation map instead")
	rootCmd.Flags().StringVar(&configPath, "config", defaultConfigPath(), "path to the TOML config file")
}

func defaultConfigPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.config/taskcheck/config.toml"
	}
	return "taskcheck.toml"
}

func runRoot(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	urgencyWeightSet = cmd.Flags().Changed("urgency-weight")

	if install {
		if err := taskwarrior.EnsureUDAs(taskrc); err != nil {
			return fmt.Errorf("installing UDAs: %w", err)
		}
		logger.Info("UDAs installed")
		return nil
	}

	if report != "" {
		fmt.Println("report rendering is a separate collaborator; taskcheck's scheduling core does not implement it")
		return nil
	}

	if !doSchedule {
		return cmd.Help()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logAndExit(err)
	}

	var weightOverride *float64
	if urgencyWeightSet {
		weightOverride = &urgencyWeight
	}

	result, err := app.Schedule(context.Background(), cfg, app.ScheduleOptions{
		Taskrc:        taskrc,
		ForceUpdate:   forceUpdate,
		DryRun:        dryRun,
		UrgencyWeight: weightOverride,
	}, logger)
	if err != nil {
		logAndExit(err)
	}

	if dryRun {
		for _, p := range result.Planned {
			fmt.Printf("#%d %s\n  start: %s\n  end:   %s\n%s\n\n", p.ID, p.Description, p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"), p.Note)
		}
	}

	for _, w := range result.Warnings {
		fmt.Printf("\033[1;31minfeasible schedule: #%d %s (ends %s, due %s)\033[0m\n", w.TaskID, w.Description, w.EndDate.Format("2006-01-02"), w.Due.Format("2006-01-02"))
	}

	return nil
}

func logAndExit(err error) {
	switch {
	case errors.Is(err, taskcheckerr.ErrConfigInvalid),
		errors.Is(err, taskcheckerr.ErrSnapshotUnavailable),
		errors.Is(err, taskcheckerr.ErrCalendarUnavailable):
		logger.Error("aborting", zap.Error(err))
		os.Exit(1)
	default:
		logger.Error("unexpected error", zap.Error(err))
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
