package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adversary-go/application"
	"github.com/felixgeelhaar/adversary-go/infrastructure/config"
	"github.com/felixgeelhaar/adversary-go/infrastructure/lineage"
)

// promoteOptions holds options for the promote command.
type promoteOptions struct {
	configPath    string
	checkpointDir string
	productionDir string
	iteration     int
}

// newPromoteCmd creates the promote command.
func (a *App) newPromoteCmd() *cobra.Command {
	opts := &promoteOptions{}

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Promote an iteration's checkpoints to production",
		Long: `Copy one iteration's attacker and defender checkpoints into the
production directory and update the deployment config to point at
them. Promotion is all or nothing: if either checkpoint is missing,
nothing changes.

Examples:
  # Promote the newest complete iteration
  adversary promote

  # Promote a specific iteration
  adversary promote --iteration 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPromote(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "Deployment config to update")
	cmd.Flags().StringVar(&opts.checkpointDir, "checkpoint-dir", "models/checkpoints", "Training checkpoint directory")
	cmd.Flags().StringVar(&opts.productionDir, "production-dir", "models/production", "Promoted checkpoint directory")
	cmd.Flags().IntVarP(&opts.iteration, "iteration", "i", -1, "Iteration to promote (-1 = latest)")

	return cmd
}

// runPromote performs the promotion.
func (a *App) runPromote(opts *promoteOptions) error {
	manager, err := lineage.NewManager(opts.checkpointDir, opts.productionDir)
	if err != nil {
		return err
	}
	cfg, err := config.NewLoader().LoadOrDefault(opts.configPath)
	if err != nil {
		return err
	}

	promoted, err := application.PromoteIteration(manager, cfg, opts.configPath, opts.iteration)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "promoted iteration %d\n", promoted)
	fmt.Fprintf(a.stdout, "  attacker: %s\n", cfg.Models.AttackerBest)
	fmt.Fprintf(a.stdout, "  defender: %s\n", cfg.Models.DefenderBest)
	return nil
}
