package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adversary-go/application"
	"github.com/felixgeelhaar/adversary-go/domain/sim"
	"github.com/felixgeelhaar/adversary-go/infrastructure/optimizer"
)

// demoOptions holds options for the demo command.
type demoOptions struct {
	mode       string
	checkpoint string
	seed       int64
	maxSteps   int
}

// newDemoCmd creates the demo command.
func (a *App) newDemoCmd() *cobra.Command {
	opts := &demoOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Play one episode with a trained policy",
		Long: `Play a single deterministic episode and print every step. Without a
checkpoint the episode uses an untrained policy, which is still useful
for inspecting the environment.

Examples:
  adversary demo --mode attacker --checkpoint models/production/attacker_best.json
  adversary demo --mode defender --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDemo(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "attacker", "Side to play (attacker or defender)")
	cmd.Flags().StringVar(&opts.checkpoint, "checkpoint", "", "Checkpoint path (optional)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Episode seed")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "Episode step limit (0 = default)")

	return cmd
}

// runDemo plays and prints one episode.
func (a *App) runDemo(ctx context.Context, opts *demoOptions) error {
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

	opt := optimizer.NewTabular(opts.seed)
	if opts.checkpoint != "" {
		if err := opt.Load(opts.checkpoint); err != nil {
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}
	}

	agent, err := application.NewAgent(application.AgentConfig{
		Mode:      mode,
		Optimizer: opt,
		Env:       env,
	})
	if err != nil {
		return err
	}

	_, err = application.Demonstrate(ctx, agent, opts.seed, a.stdout)
	return err
}
