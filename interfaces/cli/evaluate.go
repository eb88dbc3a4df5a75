package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adversary-go/application"
	"github.com/felixgeelhaar/adversary-go/domain/sim"
	"github.com/felixgeelhaar/adversary-go/infrastructure/optimizer"
)

// evaluateOptions holds options for the evaluate command.
type evaluateOptions struct {
	mode       string
	checkpoint string
	episodes   int
	seed       int64
	maxSteps   int
	jsonOutput bool
}

// newEvaluateCmd creates the evaluate command.
func (a *App) newEvaluateCmd() *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a checkpoint with deterministic rollouts",
		Long: `Evaluate a trained checkpoint against fixed scenarios.

Examples:
  adversary evaluate --mode attacker --checkpoint models/production/attacker_best.json
  adversary evaluate --mode defender --checkpoint models/checkpoints/defender_iter_3.json --episodes 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEvaluate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "attacker", "Side to evaluate (attacker or defender)")
	cmd.Flags().StringVar(&opts.checkpoint, "checkpoint", "", "Checkpoint path (required)")
	cmd.Flags().IntVar(&opts.episodes, "episodes", 20, "Evaluation episodes")
	cmd.Flags().Int64Var(&opts.seed, "seed", 10000, "Base seed for episode scenarios")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "Episode step limit (0 = default)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the report as JSON")
	_ = cmd.MarkFlagRequired("checkpoint")

	return cmd
}

// runEvaluate loads the checkpoint and prints its evaluation report.
func (a *App) runEvaluate(ctx context.Context, opts *evaluateOptions) error {
	mode := sim.Mode(opts.mode)
	if !mode.IsValid() {
		return fmt.Errorf("%w: %s", sim.ErrInvalidMode, opts.mode)
	}

	var simOpts []sim.Option
	if opts.maxSteps > 0 {
		simOpts = append(simOpts, sim.WithMaxSteps(opts.maxSteps))
	}
	env, err := sim.New(mode, simOpts...)
	if err != nil {
		return err
	}

	opt := optimizer.NewTabular(0)
	if err := opt.Load(opts.checkpoint); err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	agent, err := application.NewAgent(application.AgentConfig{
		Mode:      mode,
		Optimizer: opt,
		Env:       env,
	})
	if err != nil {
		return err
	}

	var report any
	switch mode {
	case sim.ModeAttacker:
		report, err = agent.EvaluateAttacker(ctx, opts.episodes, opts.seed)
	case sim.ModeDefender:
		report, err = agent.EvaluateDefender(ctx, opts.episodes, opts.seed)
	}
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprintf(a.stdout, "%s evaluation over %d episodes:\n", mode, opts.episodes)
	fmt.Fprintf(a.stdout, "  %+v\n", report)
	return nil
}
