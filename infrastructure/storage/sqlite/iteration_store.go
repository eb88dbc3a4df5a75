package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/felixgeelhaar/adversary-go/domain/training"
)

// ErrRunNotFound indicates no iterations exist for the given run.
var ErrRunNotFound = errors.New("sqlite: run not found")

// IterationStore is a SQLite-backed ledger of self-play iterations.
type IterationStore struct {
	db *sql.DB
}

// NewIterationStore creates a store with the given configuration.
func NewIterationStore(cfg Config, opts ...Option) (*IterationStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &IterationStore{db: db}
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewIterationStoreFromDB creates a store from an existing connection.
func NewIterationStoreFromDB(db *sql.DB) (*IterationStore, error) {
	s := &IterationStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// migrate creates the iterations table if it doesn't exist.
func (s *IterationStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS iterations (
			run_id TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			attacker_mean_reward REAL NOT NULL,
			defender_mean_reward REAL NOT NULL,
			attack_success_rate REAL NOT NULL,
			detection_rate REAL NOT NULL,
			recorded_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, iteration)
		);
		CREATE INDEX IF NOT EXISTS idx_iterations_run ON iterations(run_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Save records one iteration of a run. Re-recording the same iteration
// overwrites the previous row so a resumed run stays consistent.
func (s *IterationStore) Save(ctx context.Context, runID string, it training.Iteration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO iterations (run_id, iteration, attacker_mean_reward, defender_mean_reward,
			attack_success_rate, detection_rate, recorded_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, iteration) DO UPDATE SET
			attacker_mean_reward = excluded.attacker_mean_reward,
			defender_mean_reward = excluded.defender_mean_reward,
			attack_success_rate = excluded.attack_success_rate,
			detection_rate = excluded.detection_rate,
			recorded_at = excluded.recorded_at`,
		runID, it.Index, it.AttackerMeanReward, it.DefenderMeanReward,
		it.AttackSuccessRate, it.DetectionRate, it.Timestamp.Unix(), time.Now().Unix(),
	)
	return err
}

// ListByRun returns a run's iterations ordered by index.
func (s *IterationStore) ListByRun(ctx context.Context, runID string) ([]training.Iteration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, attacker_mean_reward, defender_mean_reward,
			attack_success_rate, detection_rate, recorded_at
		 FROM iterations WHERE run_id = ? ORDER BY iteration`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var iterations []training.Iteration
	for rows.Next() {
		var it training.Iteration
		var recordedAt int64
		if err := rows.Scan(&it.Index, &it.AttackerMeanReward, &it.DefenderMeanReward,
			&it.AttackSuccessRate, &it.DetectionRate, &recordedAt); err != nil {
			return nil, err
		}
		it.Timestamp = time.Unix(recordedAt, 0).UTC()
		iterations = append(iterations, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(iterations) == 0 {
		return nil, ErrRunNotFound
	}
	return iterations, nil
}

// Runs lists the recorded run IDs, most recent first.
func (s *IterationStore) Runs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, MAX(created_at) AS latest FROM iterations
		 GROUP BY run_id ORDER BY latest DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []string
	for rows.Next() {
		var runID string
		var latest int64
		if err := rows.Scan(&runID, &latest); err != nil {
			return nil, err
		}
		runs = append(runs, runID)
	}
	return runs, rows.Err()
}

// Close releases the database connection.
func (s *IterationStore) Close() error {
	return s.db.Close()
}
