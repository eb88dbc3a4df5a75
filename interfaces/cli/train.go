package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/adversary-go/application"
	"github.com/felixgeelhaar/adversary-go/domain/sim"
	"github.com/felixgeelhaar/adversary-go/domain/training"
	"github.com/felixgeelhaar/adversary-go/infrastructure/advisor"
	"github.com/felixgeelhaar/adversary-go/infrastructure/config"
	"github.com/felixgeelhaar/adversary-go/infrastructure/lineage"
	"github.com/felixgeelhaar/adversary-go/infrastructure/optimizer"
	"github.com/felixgeelhaar/adversary-go/infrastructure/storage/filesystem"
	"github.com/felixgeelhaar/adversary-go/infrastructure/storage/sqlite"
)

// trainOptions holds options for the train command.
type trainOptions struct {
	configPath    string
	checkpointDir string
	productionDir string
	outputDir     string
	dbPath        string
	iterations    int
	timesteps     int
	evalEpisodes  int
	maxSteps      int
	seed          int64
	resume        bool

	alternate         bool
	attackerTimesteps int
	defenderTimesteps int
}

// newTrainCmd creates the train command.
func (a *App) newTrainCmd() *cobra.Command {
	opts := &trainOptions{}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run a self-play training session",
		Long: `Train the attacker and defender policies against each other.

Each iteration trains both sides, evaluates them against a fixed set of
scenarios, and checkpoints on a fixed cadence. Interrupting with Ctrl-C
stops at the next iteration boundary and finalizes the run.

Examples:
  # Default ten-iteration run
  adversary train

  # Short run with custom directories
  adversary train --iterations 4 --timesteps 2000 --output runs/exp1

  # Continue from the promoted checkpoints
  adversary train --resume

  # Alternating schedule with uneven budgets, checkpoint every round
  adversary train --alternate -n 6 --attacker-timesteps 8000 --defender-timesteps 4000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTrain(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "Deployment config (advisor settings)")
	cmd.Flags().StringVar(&opts.checkpointDir, "checkpoint-dir", "models/checkpoints", "Training checkpoint directory")
	cmd.Flags().StringVar(&opts.productionDir, "production-dir", "models/production", "Promoted checkpoint directory")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "runs/latest", "Run artifact directory")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Optional SQLite iteration ledger path")
	cmd.Flags().IntVarP(&opts.iterations, "iterations", "n", 10, "Self-play iterations")
	cmd.Flags().IntVar(&opts.timesteps, "timesteps", 5000, "Training steps per role per iteration")
	cmd.Flags().IntVar(&opts.evalEpisodes, "eval-episodes", 20, "Episodes per evaluation")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "Episode step limit (0 = default)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "Base seed for the optimizers")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "Start from the promoted checkpoints when present")
	cmd.Flags().BoolVar(&opts.alternate, "alternate", false, "Alternating schedule: per-role budgets, checkpoint every round")
	cmd.Flags().IntVar(&opts.attackerTimesteps, "attacker-timesteps", 0, "Attacker budget per round (alternate mode, 0 = --timesteps)")
	cmd.Flags().IntVar(&opts.defenderTimesteps, "defender-timesteps", 0, "Defender budget per round (alternate mode, 0 = --timesteps)")

	return cmd
}

// runTrain executes a training session with the given options.
func (a *App) runTrain(ctx context.Context, opts *trainOptions) error {
	cfg, err := config.NewLoader().LoadOrDefault(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	manager, err := lineage.NewManager(opts.checkpointDir, opts.productionDir)
	if err != nil {
		return err
	}
	store, err := filesystem.NewRunStore(opts.outputDir)
	if err != nil {
		return err
	}

	var ledger *sqlite.IterationStore
	if opts.dbPath != "" {
		dbCfg := sqlite.DefaultConfig()
		dbCfg.DSN = "file:" + opts.dbPath
		ledger, err = sqlite.NewIterationStore(dbCfg)
		if err != nil {
			return fmt.Errorf("failed to open iteration ledger: %w", err)
		}
		defer func() { _ = ledger.Close() }()
	}

	attacker, err := a.buildAgent(sim.ModeAttacker, cfg, opts)
	if err != nil {
		return err
	}
	defender, err := a.buildAgent(sim.ModeDefender, cfg, opts)
	if err != nil {
		return err
	}

	if opts.resume {
		manager.LoadBest(sim.ModeAttacker, attacker.Optimizer())
		manager.LoadBest(sim.ModeDefender, defender.Optimizer())
	}

	orch, err := application.NewOrchestrator(application.OrchestratorConfig{
		Attacker:     attacker,
		Defender:     defender,
		Lineage:      manager,
		Store:        store,
		Ledger:       ledger,
		Iterations:   opts.iterations,
		Timesteps:    opts.timesteps,
		EvalEpisodes: opts.evalEpisodes,
	})
	if err != nil {
		return err
	}

	// Ctrl-C requests a coarse stop; the iteration in flight finishes.
	go func() {
		<-ctx.Done()
		orch.Stop()
	}()

	started := time.Now()
	var report training.ProgressReport
	if opts.alternate {
		report, err = orch.RunAlternating(context.WithoutCancel(ctx),
			opts.iterations, opts.attackerTimesteps, opts.defenderTimesteps)
	} else {
		report, err = orch.Run(context.WithoutCancel(ctx))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "run %s finished: %d iterations in %s\n",
		report.RunID, report.Iterations, time.Since(started).Round(time.Second))
	fmt.Fprintf(a.stdout, "  attacker: mean reward %.2f, success rate %.0f%%, detection rate %.0f%%\n",
		report.Attacker.MeanReward, report.Attacker.SuccessRate*100, report.Attacker.DetectionRate*100)
	fmt.Fprintf(a.stdout, "  defender: mean reward %.2f, %d detected, %d false positives (precision %.2f)\n",
		report.Defender.MeanReward, report.Defender.AttacksDetected,
		report.Defender.FalsePositives, report.Defender.Precision)
	fmt.Fprintf(a.stdout, "  artifacts: %s\n", store.BaseDir())
	return nil
}

// buildAgent constructs one side's agent, attaching the advisor to the
// attacker when the config enables it.
func (a *App) buildAgent(mode sim.Mode, cfg *config.Config, opts *trainOptions) (*application.Agent, error) {
	var simOpts []sim.Option
	if opts.maxSteps > 0 {
		simOpts = append(simOpts, sim.WithMaxSteps(opts.maxSteps))
	}
	env, err := sim.New(mode, simOpts...)
	if err != nil {
		return nil, err
	}

	seed := opts.seed
	if mode == sim.ModeDefender {
		seed++
	}

	var consultant *advisor.Consultant
	if mode == sim.ModeAttacker && cfg.LLM.Enabled {
		consultant = advisor.NewConsultant(newProvider(cfg.LLM), advisor.ConsultantConfig{
			Model:       cfg.LLM.Model,
			Probability: cfg.LLM.ConsultProbability,
			Temperature: cfg.LLM.Temperature,
			Seed:        seed,
		})
	}

	return application.NewAgent(application.AgentConfig{
		Mode:       mode,
		Optimizer:  optimizer.NewTabular(seed),
		Env:        env,
		Consultant: consultant,
	})
}

// newProvider selects the advisor backend from the config.
func newProvider(llm config.LLM) advisor.Provider {
	switch llm.Provider {
	case "openai":
		return advisor.NewOpenAIProvider(advisor.OpenAIConfig{
			BaseURL: llm.APIBase,
			Model:   llm.Model,
		})
	default:
		return advisor.NewOllamaProvider(advisor.OllamaConfig{
			BaseURL: llm.APIBase,
			Model:   llm.Model,
		})
	}
}
