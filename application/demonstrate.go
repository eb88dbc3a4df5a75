package application

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/adversary-go/domain/sim"
	"github.com/felixgeelhaar/adversary-go/domain/training"
)

// Demonstrate plays one deterministic episode with the agent's current
// policy, writing a step-by-step trace to w. The recorded replay is
// returned for optional storage.
func Demonstrate(ctx context.Context, agent *Agent, seed int64, w io.Writer) (training.Replay, error) {
	env, ok := agent.env.(*sim.Simulator)
	if !ok {
		return training.Replay{}, fmt.Errorf("demonstration requires a simulated environment")
	}

	replay := training.Replay{Mode: agent.Mode(), Seed: seed, RecordedAt: time.Now()}
	obs, _ := env.Reset(seed)

	fmt.Fprintf(w, "episode start: mode=%s seed=%d\n", agent.Mode(), seed)
	for {
		if err := ctx.Err(); err != nil {
			return replay, err
		}
		action := agent.Optimizer().Predict(obs, true)
		res, err := env.Step(action)
		if err != nil {
			return replay, err
		}
		replay.Record(action, res)

		fmt.Fprintf(w, "step %3d: %-22s reward=%7.2f\n",
			env.CurrentStep(), sim.ActionName(agent.Mode(), action), res.Reward)
		obs = res.Observation
		if res.Done() {
			break
		}
	}

	fmt.Fprintln(w, env.Render())
	fmt.Fprintf(w, "episode end: steps=%d total_reward=%.2f\n", replay.Length(), replay.TotalReward)
	return replay, nil
}
