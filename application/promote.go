package application

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/adversary-go/domain/sim"
	"github.com/felixgeelhaar/adversary-go/infrastructure/config"
	"github.com/felixgeelhaar/adversary-go/infrastructure/lineage"
	"github.com/felixgeelhaar/adversary-go/infrastructure/logging"
)

// PromoteIteration promotes one iteration's checkpoints to production
// and rewrites the deployment config to point at the new aliases. A
// negative iteration promotes the latest one that has both checkpoints.
// Nothing is modified unless promotion succeeds for both roles.
func PromoteIteration(m *lineage.Manager, cfg *config.Config, cfgPath string, iteration int) (int, error) {
	if iteration < 0 {
		latest, err := m.LatestIteration()
		if err != nil {
			if errors.Is(err, lineage.ErrNoCheckpoints) {
				return 0, fmt.Errorf("nothing to promote: %w", err)
			}
			return 0, err
		}
		iteration = latest
	}

	if err := m.Promote(iteration); err != nil {
		return 0, err
	}

	cfg.UpdateBestModels(m.BestPath(sim.ModeAttacker), m.BestPath(sim.ModeDefender))
	if cfgPath != "" {
		if err := config.SaveFile(cfg, cfgPath); err != nil {
			return 0, fmt.Errorf("checkpoints promoted but config update failed: %w", err)
		}
	}

	logging.Info().
		Add(logging.Component("promote")).
		Add(logging.Iteration(iteration)).
		Add(logging.CheckpointPath(m.ProductionDir())).
		Msg("iteration promoted to production")
	return iteration, nil
}
