package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adversary-go/domain/training"
	"github.com/felixgeelhaar/adversary-go/infrastructure/storage/filesystem"
	"github.com/felixgeelhaar/adversary-go/infrastructure/storage/sqlite"
)

// historyOptions holds options for the history command.
type historyOptions struct {
	outputDir string
	dbPath    string
	runID     string
}

// newHistoryCmd creates the history command.
func (a *App) newHistoryCmd() *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the iteration history of a training run",
		Long: `Print iteration metrics for a run, either from the run directory's
history artifact or from the SQLite ledger.

Examples:
  adversary history --output runs/latest
  adversary history --db training.db --run 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "runs/latest", "Run artifact directory")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite iteration ledger path")
	cmd.Flags().StringVar(&opts.runID, "run", "", "Run ID (with --db; empty lists runs)")

	return cmd
}

// runHistory prints iteration metrics.
func (a *App) runHistory(ctx context.Context, opts *historyOptions) error {
	if opts.dbPath != "" {
		return a.historyFromLedger(ctx, opts)
	}

	store, err := filesystem.NewRunStore(opts.outputDir)
	if err != nil {
		return err
	}
	h, err := store.LoadHistory()
	if err != nil {
		return err
	}
	a.printIterations(h.Iterations())
	return nil
}

// historyFromLedger reads iterations from the SQLite ledger.
func (a *App) historyFromLedger(ctx context.Context, opts *historyOptions) error {
	dbCfg := sqlite.DefaultConfig()
	dbCfg.DSN = "file:" + opts.dbPath
	store, err := sqlite.NewIterationStore(dbCfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if opts.runID == "" {
		runs, err := store.Runs(ctx)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(a.stdout, "no recorded runs")
			return nil
		}
		for _, runID := range runs {
			fmt.Fprintln(a.stdout, runID)
		}
		return nil
	}

	iterations, err := store.ListByRun(ctx, opts.runID)
	if err != nil {
		return err
	}
	a.printIterations(iterations)
	return nil
}

// printIterations renders iteration metrics as a table.
func (a *App) printIterations(iterations []training.Iteration) {
	fmt.Fprintf(a.stdout, "%-5s %12s %12s %10s %10s  %s\n",
		"iter", "attacker", "defender", "success", "detection", "recorded")
	for _, it := range iterations {
		fmt.Fprintf(a.stdout, "%-5d %12.2f %12.2f %9.0f%% %9.0f%%  %s\n",
			it.Index, it.AttackerMeanReward, it.DefenderMeanReward,
			it.AttackSuccessRate*100, it.DetectionRate*100,
			it.Timestamp.Format("2006-01-02 15:04:05"))
	}
}
