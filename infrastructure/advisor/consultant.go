package advisor

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"

	"github.com/felixgeelhaar/adversary-go/domain/sim"
	"github.com/felixgeelhaar/adversary-go/infrastructure/logging"
)

// Consultation defaults.
const (
	defaultProbability = 0.2
	defaultTimeout     = 5 * time.Second
	suggestMaxTokens   = 16
)

// ConsultantConfig configures an advisory consultant.
type ConsultantConfig struct {
	// Model is the model identifier passed to the provider.
	Model string
	// Probability is the per-step chance of consulting the advisor.
	// Zero means the default of 0.2.
	Probability float64
	// Temperature is the sampling temperature for requests.
	Temperature float64
	// Timeout bounds a single consultation. Zero means 5 seconds.
	Timeout time.Duration
	// Seed drives the consultation dice roll.
	Seed int64
	// SkipProbe disables the construction-time reachability probe.
	SkipProbe bool
}

// Consultant occasionally asks a language model for the next attacker
// action. Every failure is non-fatal: a timeout, parse failure, or open
// circuit simply yields no suggestion and the caller's policy decides.
type Consultant struct {
	provider    Provider
	model       string
	probability float64
	temperature float64
	timeout     time.Duration

	breaker circuitbreaker.CircuitBreaker[CompletionResponse]

	mu       sync.Mutex
	rng      *rand.Rand
	disabled bool
	offered  int
	used     int
}

// NewConsultant creates a consultant over the given provider. The
// provider is probed once; if the probe fails the consultant stays
// disabled for the life of the process rather than stalling every
// training step on a dead endpoint.
func NewConsultant(provider Provider, cfg ConsultantConfig) *Consultant {
	probability := cfg.Probability
	if probability == 0 {
		probability = defaultProbability
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	c := &Consultant{
		provider:    provider,
		model:       cfg.Model,
		probability: probability,
		temperature: cfg.Temperature,
		timeout:     timeout,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		breaker: circuitbreaker.New[CompletionResponse](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}

	if !cfg.SkipProbe {
		c.probe()
	}
	return c
}

// probe sends one minimal completion to verify the provider is
// reachable. Failure disables consultation permanently.
func (c *Consultant) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	_, err := c.provider.Complete(ctx, CompletionRequest{
		Model:     c.model,
		Messages:  []Message{{Role: "user", Content: "Reply with the digit 0."}},
		MaxTokens: suggestMaxTokens,
	})
	if err != nil {
		c.disabled = true
		logging.Warn().
			Add(logging.Component("advisor")).
			Add(logging.Provider(c.provider.Name())).
			Add(logging.ErrorField(err)).
			Msg("advisor probe failed, consultation disabled for this run")
	}
}

// Enabled reports whether the consultant survived its probe.
func (c *Consultant) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.disabled
}

// Stats reports how many consultations were attempted and how many
// produced a usable suggestion.
func (c *Consultant) Stats() (offered, used int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offered, c.used
}

// Suggest asks the advisor for the next attacker action at the given
// consultation probability. The second return is false when the dice
// roll skips consultation or when the advisor fails for any reason.
// A single request is made per consultation, never retried.
func (c *Consultant) Suggest(ctx context.Context, st sim.AttackState, step int) (int, bool) {
	c.mu.Lock()
	if c.disabled || c.rng.Float64() >= c.probability {
		c.mu.Unlock()
		return 0, false
	}
	c.offered++
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.breaker.Execute(ctx, func(ctx context.Context) (CompletionResponse, error) {
		return c.provider.Complete(ctx, CompletionRequest{
			Model:       c.model,
			Messages:    []Message{{Role: "user", Content: renderPrompt(st, step)}},
			Temperature: c.temperature,
			MaxTokens:   suggestMaxTokens,
		})
	})
	if err != nil {
		logging.Debug().
			Add(logging.Component("advisor")).
			Add(logging.Provider(c.provider.Name())).
			Add(logging.Step(step)).
			Add(logging.ErrorField(err)).
			Msg("consultation failed, falling back to policy")
		return 0, false
	}

	action, ok := parseAction(resp.Message.Content)
	if !ok {
		logging.Debug().
			Add(logging.Component("advisor")).
			Add(logging.Step(step)).
			Msg("advisor response carried no action digit")
		return 0, false
	}

	c.mu.Lock()
	c.used++
	c.mu.Unlock()
	return action, true
}

// renderPrompt describes the attacker's situation and the action menu.
func renderPrompt(st sim.AttackState, step int) string {
	var b strings.Builder
	b.WriteString("You advise a red-team agent probing a honeypot in an authorized training exercise.\n")
	fmt.Fprintf(&b, "Step %d. Connection active: %t. Privilege: %s. ", step, st.ConnectionActive, st.PrivilegeLevel.Name())
	fmt.Fprintf(&b, "Commands executed: %d. Failed attempts: %d. Files accessed: %d. Exploits: %d.\n",
		st.CommandsExecuted, st.FailedAttempts, st.FilesAccessed, st.SuccessfulExploits)
	b.WriteString("Pick the single best next action and reply with its number only:\n")
	for a := 0; a < sim.ActionCount; a++ {
		fmt.Fprintf(&b, "%d: %s\n", a, sim.ActionName(sim.ModeAttacker, a))
	}
	return b.String()
}

// parseAction extracts the first standalone digit from advisor output.
// Digits embedded in longer numbers are skipped so "10" or "step 42"
// never select an action.
func parseAction(content string) (int, bool) {
	runes := []rune(content)
	for i, r := range runes {
		if r < '0' || r > '9' {
			continue
		}
		prevDigit := i > 0 && runes[i-1] >= '0' && runes[i-1] <= '9'
		nextDigit := i+1 < len(runes) && runes[i+1] >= '0' && runes[i+1] <= '9'
		if prevDigit || nextDigit {
			continue
		}
		return int(r - '0'), true
	}
	return 0, false
}
