// Package lineage manages the promotion of training checkpoints into
// the production model directory. Checkpoints are named by role and
// iteration; the promoted copy for each role carries the "best" alias.
package lineage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/adversary-go/domain/sim"
	"github.com/felixgeelhaar/adversary-go/infrastructure/logging"
)

// ErrNoCheckpoints indicates no checkpoint exists for any role at the
// requested iteration.
var ErrNoCheckpoints = errors.New("no checkpoints found")

// CheckpointMissingError reports a checkpoint file absent from the
// checkpoint directory.
type CheckpointMissingError struct {
	Role      sim.Mode
	Iteration int
	Path      string
}

func (e *CheckpointMissingError) Error() string {
	return fmt.Sprintf("checkpoint missing for %s iteration %d: %s", e.Role, e.Iteration, e.Path)
}

// Manager resolves checkpoint paths and promotes iterations to the
// production directory.
type Manager struct {
	// checkpointDir holds per-iteration training checkpoints.
	checkpointDir string
	// productionDir holds promoted "best" checkpoints.
	productionDir string
}

// NewManager creates a manager over the given directories. Both are
// created if absent.
func NewManager(checkpointDir, productionDir string) (*Manager, error) {
	for _, dir := range []string{checkpointDir, productionDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create model directory: %w", err)
		}
	}
	return &Manager{checkpointDir: checkpointDir, productionDir: productionDir}, nil
}

// CheckpointDir returns the training checkpoint directory.
func (m *Manager) CheckpointDir() string { return m.checkpointDir }

// ProductionDir returns the promoted checkpoint directory.
func (m *Manager) ProductionDir() string { return m.productionDir }

// IterationPath returns the checkpoint path for a role at an iteration.
func (m *Manager) IterationPath(role sim.Mode, iteration int) string {
	return filepath.Join(m.checkpointDir, fmt.Sprintf("%s_iter_%d.json", role, iteration))
}

// BestPath returns the promoted checkpoint path for a role.
func (m *Manager) BestPath(role sim.Mode) string {
	return filepath.Join(m.productionDir, fmt.Sprintf("%s_best.json", role))
}

// Promote copies the attacker and defender checkpoints for an iteration
// into the production directory under their best aliases. Promotion is
// all or nothing: if either role's checkpoint is absent, no alias is
// touched and the error names the missing file.
func (m *Manager) Promote(iteration int) error {
	roles := []sim.Mode{sim.ModeAttacker, sim.ModeDefender}

	// Verify every source before copying anything.
	for _, role := range roles {
		src := m.IterationPath(role, iteration)
		if _, err := os.Stat(src); err != nil {
			if os.IsNotExist(err) {
				return &CheckpointMissingError{Role: role, Iteration: iteration, Path: src}
			}
			return fmt.Errorf("failed to stat checkpoint: %w", err)
		}
	}

	for _, role := range roles {
		if err := copyFile(m.IterationPath(role, iteration), m.BestPath(role)); err != nil {
			return fmt.Errorf("failed to promote %s iteration %d: %w", role, iteration, err)
		}
		logging.Info().
			Add(logging.Component("lineage")).
			Add(logging.SimMode(role)).
			Add(logging.Iteration(iteration)).
			Add(logging.CheckpointPath(m.BestPath(role))).
			Msg("checkpoint promoted")
	}
	return nil
}

// LatestIteration returns the highest iteration for which both roles
// have a checkpoint, or ErrNoCheckpoints.
func (m *Manager) LatestIteration() (int, error) {
	best := -1
	entries, err := os.ReadDir(m.checkpointDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read checkpoint dir: %w", err)
	}
	for _, entry := range entries {
		var iter int
		if _, err := fmt.Sscanf(entry.Name(), "attacker_iter_%d.json", &iter); err != nil {
			continue
		}
		if iter <= best {
			continue
		}
		if _, err := os.Stat(m.IterationPath(sim.ModeDefender, iter)); err == nil {
			best = iter
		}
	}
	if best < 0 {
		return 0, ErrNoCheckpoints
	}
	return best, nil
}

// Loadable is a policy that can restore itself from a checkpoint file.
type Loadable interface {
	Load(path string) error
}

// LoadBest restores a role's promoted checkpoint into the given policy.
// A missing or unreadable checkpoint is logged and left alone so the
// caller keeps its current (typically fresh) policy.
func (m *Manager) LoadBest(role sim.Mode, policy Loadable) bool {
	path := m.BestPath(role)
	if _, err := os.Stat(path); err != nil {
		logging.Warn().
			Add(logging.Component("lineage")).
			Add(logging.SimMode(role)).
			Add(logging.CheckpointPath(path)).
			Msg("no promoted checkpoint, keeping current policy")
		return false
	}
	if err := policy.Load(path); err != nil {
		logging.Warn().
			Add(logging.Component("lineage")).
			Add(logging.SimMode(role)).
			Add(logging.CheckpointPath(path)).
			Add(logging.ErrorField(err)).
			Msg("failed to load promoted checkpoint, keeping current policy")
		return false
	}
	logging.Info().
		Add(logging.Component("lineage")).
		Add(logging.SimMode(role)).
		Add(logging.CheckpointPath(path)).
		Msg("promoted checkpoint loaded")
	return true
}

// copyFile copies src over dst through a temp file in dst's directory
// so a crash never leaves a truncated alias.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
