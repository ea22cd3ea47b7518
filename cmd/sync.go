package cmd

import (
	"context"
	"fmt"

	"sharesync/internal/conflict"
	"sharesync/internal/engine"
	"sharesync/internal/gitcmd"
	"sharesync/internal/logger"
	"sharesync/internal/model"
	"sharesync/internal/prompt"
	"sharesync/internal/report"
	"sharesync/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type syncFlags struct {
	direction       string
	strategy        string
	dryRun          bool
	continueOnError bool
	sequential      bool
	message         string
}

var syncOpts syncFlags

var syncCmd = &cobra.Command{
	Use:   "sync [package ...]",
	Short: "Sync packages with the shared repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		direction, err := model.ParseDirection(syncOpts.direction)
		if err != nil {
			return err
		}

		strategy, err := model.ParseStrategy(syncOpts.strategy)
		if err != nil {
			return err
		}

		return runSync(args, direction, strategy, syncOpts)
	},
}

// runSync is the single entry point shared by the sync command and the
// interactive run. Gathers packages, executes the coordinator, records
// history and renders the results.
func runSync(names []string, direction model.Direction, strategy model.Strategy, flags syncFlags) error {
	var pkgs []model.Package
	if len(names) == 0 {
		pkgs = cfg.EnabledPackages()
	} else {
		for _, name := range names {
			pkg, ok := cfg.Package(name)
			if !ok {
				return fmt.Errorf("unknown package: %s", name)
			}
			pkgs = append(pkgs, pkg)
		}
	}

	if len(pkgs) == 0 {
		fmt.Println("no enabled packages to sync")
		return nil
	}

	var prompter conflict.Prompter
	if strategy == model.StrategyPrompt {
		prompter = prompt.NewPrompter()
	}

	coordinator := engine.NewCoordinator(cfg, gitcmd.New(cfg.GitTimeout), prompter)

	results := coordinator.RunAll(context.Background(), pkgs, engine.Options{
		Direction:       direction,
		Strategy:        strategy,
		DryRun:          flags.dryRun,
		ContinueOnError: flags.continueOnError,
		Sequential:      flags.sequential,
		CommitMessage:   flags.message,
	})

	histRepo := repository.NewHistoryRepository()
	failed := false
	for _, result := range results {
		if !result.OverallSuccess() {
			failed = true
		}

		for _, outcome := range result.Outcomes {
			if err := histRepo.SaveOutcome(outcome); err != nil {
				logger.Log.Warn("failed to save history",
					zap.Error(err))
			}
		}
	}

	fmt.Print(report.RenderAll(results))

	if failed {
		return fmt.Errorf("sync failed for one or more packages")
	}

	return nil
}

func init() {
	syncCmd.Flags().StringVar(&syncOpts.direction, "direction", "both", "Sync direction: to, from or both")
	syncCmd.Flags().StringVar(&syncOpts.strategy, "strategy", "prompt", "Conflict strategy: source, target or prompt")
	syncCmd.Flags().BoolVar(&syncOpts.dryRun, "dry-run", false, "Report changes without applying them")
	syncCmd.Flags().BoolVar(&syncOpts.continueOnError, "continue-on-error", false, "Keep going after a mapping fails")
	syncCmd.Flags().BoolVar(&syncOpts.sequential, "sequential", false, "Run mappings one at a time")
	syncCmd.Flags().StringVar(&syncOpts.message, "message", "", "Commit message override")
	rootCmd.AddCommand(syncCmd)
}
