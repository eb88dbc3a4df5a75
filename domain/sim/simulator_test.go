package sim

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewRejectsInvalidMode(t *testing.T) {
	t.Parallel()

	_, err := New(Mode("observer"))
	if !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("New() error = %v, want ErrInvalidMode", err)
	}
}

func TestStepRejectsInvalidAction(t *testing.T) {
	t.Parallel()

	s, err := New(ModeAttacker)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.Reset(1)

	for _, action := range []int{-1, ActionCount, ActionCount + 7} {
		if _, err := s.Step(action); !errors.Is(err, ErrInvalidAction) {
			t.Errorf("Step(%d) error = %v, want ErrInvalidAction", action, err)
		}
	}
}

func TestStepAfterCloseFails(t *testing.T) {
	t.Parallel()

	s, _ := New(ModeAttacker)
	s.Reset(1)
	s.Close()

	if _, err := s.Step(AttackWait); !errors.Is(err, ErrClosed) {
		t.Fatalf("Step() after Close error = %v, want ErrClosed", err)
	}

	// Reset reopens the simulator for a fresh episode.
	s.Reset(2)
	if _, err := s.Step(AttackWait); err != nil {
		t.Fatalf("Step() after Reset error = %v", err)
	}
}

func TestResetIsDeterministic(t *testing.T) {
	t.Parallel()

	for _, mode := range AllModes() {
		t.Run(mode.String(), func(t *testing.T) {
			a, _ := New(mode)
			b, _ := New(mode)

			obsA, _ := a.Reset(42)
			obsB, _ := b.Reset(42)
			if obsA != obsB {
				t.Fatalf("initial observations differ: %v vs %v", obsA, obsB)
			}

			for i := 0; i < 30; i++ {
				action := i % ActionCount
				ra, errA := a.Step(action)
				rb, errB := b.Step(action)
				if errA != nil || errB != nil {
					t.Fatalf("step %d errors: %v, %v", i, errA, errB)
				}
				if ra.Reward != rb.Reward || ra.Observation != rb.Observation ||
					ra.Terminated != rb.Terminated {
					t.Fatalf("step %d diverged: %+v vs %+v", i, ra, rb)
				}
				if ra.Done() {
					break
				}
			}
		})
	}
}

func TestAttackerRewards(t *testing.T) {
	t.Parallel()

	// Deterministic tunables remove the dice so the reward contract
	// can be asserted exactly.
	allSucceed := Tunables{
		BruteForceSuccess: 1, DownloadSuccess: 1, EscalationSuccess: 1,
		BackdoorSuccess: 1, ModifySuccess: 1,
	}
	allFail := Tunables{}

	tests := []struct {
		name       string
		tun        Tunables
		setup      []int
		action     int
		wantReward float64
	}{
		{
			name:       "wait costs patience",
			tun:        allFail,
			action:     AttackWait,
			wantReward: -0.5,
		},
		{
			name:       "brute force success",
			tun:        allSucceed,
			action:     AttackBruteForce,
			wantReward: 20,
		},
		{
			name:       "brute force failure",
			tun:        allFail,
			action:     AttackBruteForce,
			wantReward: -2,
		},
		{
			name:       "enumerate without connection",
			tun:        allFail,
			action:     AttackEnumerate,
			wantReward: -5,
		},
		{
			name:       "recon with connection",
			tun:        allSucceed,
			setup:      []int{AttackBruteForce},
			action:     AttackRecon,
			wantReward: 8,
		},
		{
			name:       "download success",
			tun:        allSucceed,
			setup:      []int{AttackBruteForce},
			action:     AttackDownload,
			wantReward: 15,
		},
		{
			name:       "escalation success",
			tun:        allSucceed,
			setup:      []int{AttackBruteForce},
			action:     AttackEscalate,
			wantReward: 30,
		},
		{
			name:       "escalation without connection still costs",
			tun:        allFail,
			action:     AttackEscalate,
			wantReward: -4,
		},
		{
			name:       "backdoor needs privilege",
			tun:        allFail,
			action:     AttackBackdoor,
			wantReward: -5,
		},
		{
			name:       "backdoor with user privilege",
			tun:        allSucceed,
			setup:      []int{AttackBruteForce},
			action:     AttackBackdoor,
			wantReward: 25,
		},
		{
			name:       "modify files with privilege",
			tun:        allSucceed,
			setup:      []int{AttackBruteForce},
			action:     AttackModifyFiles,
			wantReward: 18,
		},
		{
			name:       "exfiltrate without connection",
			tun:        allFail,
			action:     AttackExfiltrate,
			wantReward: -5,
		},
		{
			name:       "port scan without connection",
			tun:        allFail,
			action:     AttackPortScan,
			wantReward: -5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(ModeAttacker, WithTunables(tt.tun))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			s.Reset(7)

			for _, a := range tt.setup {
				if _, err := s.Step(a); err != nil {
					t.Fatalf("setup Step(%d) error = %v", a, err)
				}
			}

			res, err := s.Step(tt.action)
			if err != nil {
				t.Fatalf("Step() error = %v", err)
			}
			if res.Reward != tt.wantReward {
				t.Errorf("reward = %v, want %v", res.Reward, tt.wantReward)
			}
		})
	}
}

func TestAttackerStateProgression(t *testing.T) {
	t.Parallel()

	s, _ := New(ModeAttacker, WithTunables(Tunables{
		BruteForceSuccess: 1, EscalationSuccess: 1,
	}))
	s.Reset(1)

	if st := s.AttackState(); st.ConnectionActive || st.PrivilegeLevel != PrivilegeNone {
		t.Fatalf("initial state not clean: %+v", st)
	}

	if _, err := s.Step(AttackBruteForce); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	st := s.AttackState()
	if !st.ConnectionActive {
		t.Error("connection not established after successful brute force")
	}
	if st.PrivilegeLevel != PrivilegeUser {
		t.Errorf("privilege = %v, want user", st.PrivilegeLevel)
	}
	if st.SuccessfulExploits != 1 {
		t.Errorf("successful exploits = %d, want 1", st.SuccessfulExploits)
	}

	if _, err := s.Step(AttackEscalate); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if got := s.AttackState().PrivilegeLevel; got != PrivilegeRoot {
		t.Errorf("privilege after escalation = %v, want root", got)
	}

	// Another successful brute force must not demote root back to user.
	if _, err := s.Step(AttackBruteForce); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if got := s.AttackState().PrivilegeLevel; got != PrivilegeRoot {
		t.Errorf("privilege demoted to %v", got)
	}
}

func TestDetectionTerminatesEpisode(t *testing.T) {
	t.Parallel()

	// Failed escalations accumulate suspicion fast. With a guaranteed
	// miss the score crosses the termination threshold within a few
	// steps regardless of dice.
	s, _ := New(ModeAttacker, WithTunables(Tunables{BruteForceSuccess: 1}))
	s.Reset(3)

	var terminated bool
	for i := 0; i < 10; i++ {
		res, err := s.Step(AttackEscalate)
		if err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		if res.Terminated {
			terminated = true
			if detected, _ := res.Info["detected"].(bool); !detected {
				t.Error("terminating step not flagged as detected")
			}
			if res.Reward > -50 {
				t.Errorf("terminating reward = %v, want severe penalty", res.Reward)
			}
			break
		}
	}
	if !terminated {
		t.Fatal("episode never terminated under sustained suspicious activity")
	}
	if s.AttackState().ConnectionActive {
		t.Error("connection still active after forced termination")
	}
}

func TestDetectionScoreIsMonotone(t *testing.T) {
	t.Parallel()

	s, _ := New(ModeAttacker, WithTunables(Tunables{BruteForceSuccess: 1, DownloadSuccess: 1}))
	s.Reset(5)

	prev := 0.0
	for _, action := range []int{AttackBruteForce, AttackRecon, AttackDownload, AttackPortScan, AttackWait} {
		res, err := s.Step(action)
		if err != nil {
			t.Fatalf("Step(%d) error = %v", action, err)
		}
		score, ok := res.Info["detection_score"].(float64)
		if !ok {
			t.Fatalf("detection_score missing from info: %v", res.Info)
		}
		if score < prev {
			t.Fatalf("detection score decreased: %v -> %v", prev, score)
		}
		prev = score
		if res.Done() {
			break
		}
	}
}

func TestDefenderRewards(t *testing.T) {
	t.Parallel()

	alwaysAttacked := Tunables{
		AttackPresence: 1, TempBlockSuccess: 1, PermBlockSuccess: 1,
		IsolateSuccess: 1, DecoySuccess: 1, DeceptionSuccess: 1,
	}
	quiet := Tunables{}

	tests := []struct {
		name       string
		tun        Tunables
		action     int
		wantReward float64
	}{
		{"monitor is always safe", quiet, DefendMonitor, 1},
		{"rotate config is free hygiene", quiet, DefendRotateConfig, 8},
		{"reset costs downtime", quiet, DefendReset, -8},
		{"rate limit hit", alwaysAttacked, DefendRateLimit, 5 + detectedBonusPerHit},
		{"rate limit false positive", quiet, DefendRateLimit, -1},
		{"temp block hit", alwaysAttacked, DefendTempBlock, 10 + detectedBonusPerHit},
		{"temp block false positive", quiet, DefendTempBlock, -2},
		{"perm block hit", alwaysAttacked, DefendPermBlock, 20 + detectedBonusPerHit},
		{"alert hit", alwaysAttacked, DefendAlert, 12 + detectedBonusPerHit},
		{"alert false positive", quiet, DefendAlert, -4},
		{"isolate hit", alwaysAttacked, DefendIsolate, 25},
		{"isolate false positive", quiet, DefendIsolate, -10},
		{"decoy miss", quiet, DefendDecoy, -3},
		{"deception miss", quiet, DefendDeception, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(ModeDefender, WithTunables(tt.tun))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			s.Reset(11)

			res, err := s.Step(tt.action)
			if err != nil {
				t.Fatalf("Step() error = %v", err)
			}
			if res.Reward != tt.wantReward {
				t.Errorf("reward = %v, want %v", res.Reward, tt.wantReward)
			}
		})
	}
}

func TestDefenderCountersAccumulate(t *testing.T) {
	t.Parallel()

	s, _ := New(ModeDefender, WithTunables(Tunables{
		AttackPresence: 1, TempBlockSuccess: 1,
	}))
	s.Reset(1)

	for i := 0; i < 3; i++ {
		if _, err := s.Step(DefendTempBlock); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}

	st := s.DefenseState()
	if st.AttacksDetected != 3 || st.AttacksMitigated != 3 || st.IPsBlocked != 3 {
		t.Errorf("counters = detected %d mitigated %d blocked %d, want 3 each",
			st.AttacksDetected, st.AttacksMitigated, st.IPsBlocked)
	}
	if st.FalsePositives != 0 {
		t.Errorf("false positives = %d, want 0", st.FalsePositives)
	}
}

func TestMissedAttacksArePenalized(t *testing.T) {
	t.Parallel()

	s, _ := New(ModeDefender,
		WithTunables(Tunables{}),
		WithMissedAttackCounter(func(*DefenseState) int { return 2 }),
	)
	s.Reset(1)

	res, err := s.Step(DefendMonitor)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	want := rewardMonitor - 2*missedPenaltyPerMiss
	if res.Reward != want {
		t.Errorf("reward = %v, want %v", res.Reward, want)
	}
	if got := res.Info["missed_attacks"]; got != 2 {
		t.Errorf("missed_attacks = %v, want 2", got)
	}
}

func TestWaitOnlyEpisode(t *testing.T) {
	t.Parallel()

	s, _ := New(ModeAttacker)
	s.Reset(1)

	total := 0.0
	for i := 0; i < DefaultMaxSteps; i++ {
		res, err := s.Step(AttackWait)
		if err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		if res.Reward != rewardWait {
			t.Fatalf("step %d reward = %v, want %v", i+1, res.Reward, rewardWait)
		}
		if res.Terminated {
			t.Fatalf("wait-only episode terminated at step %d", i+1)
		}
		total += res.Reward
		if res.Truncated != (i == DefaultMaxSteps-1) {
			t.Fatalf("step %d truncated = %v", i+1, res.Truncated)
		}
	}
	if total != -50.0 {
		t.Errorf("cumulative reward = %v, want -50.0", total)
	}
}

func TestMonitorOnlyEpisode(t *testing.T) {
	t.Parallel()

	// No latent attacks, so monitoring pays its flat reward every step.
	s, _ := New(ModeDefender, WithTunables(Tunables{}))
	s.Reset(1)

	total := 0.0
	for i := 0; i < DefaultMaxSteps; i++ {
		res, err := s.Step(DefendMonitor)
		if err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		if res.Reward != rewardMonitor {
			t.Fatalf("step %d reward = %v, want %v", i+1, res.Reward, rewardMonitor)
		}
		total += res.Reward
		if res.Truncated != (i == DefaultMaxSteps-1) {
			t.Fatalf("step %d truncated = %v", i+1, res.Truncated)
		}
	}
	if total != 100.0 {
		t.Errorf("cumulative reward = %v, want +100.0", total)
	}
}

func TestPrivilegedActionsWithoutPrivilege(t *testing.T) {
	t.Parallel()

	for _, action := range []int{AttackBackdoor, AttackModifyFiles} {
		t.Run(ActionName(ModeAttacker, action), func(t *testing.T) {
			s, _ := New(ModeAttacker, WithTunables(Tunables{BackdoorSuccess: 1, ModifySuccess: 1}))
			s.Reset(2)
			before := s.AttackState()

			res, err := s.Step(action)
			if err != nil {
				t.Fatalf("Step() error = %v", err)
			}
			if res.Reward != rewardIneligible {
				t.Errorf("reward = %v, want %v", res.Reward, rewardIneligible)
			}
			if after := s.AttackState(); after != before {
				t.Errorf("ineligible action mutated state: %+v -> %+v", before, after)
			}
		})
	}
}

func TestTruncationAtMaxSteps(t *testing.T) {
	t.Parallel()

	s, _ := New(ModeAttacker, WithMaxSteps(5), WithTunables(Tunables{}))
	s.Reset(1)

	for i := 0; i < 4; i++ {
		res, err := s.Step(AttackWait)
		if err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		if res.Done() {
			t.Fatalf("episode ended early at step %d", i+1)
		}
	}

	res, err := s.Step(AttackWait)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if !res.Truncated || res.Terminated {
		t.Errorf("final step: truncated=%v terminated=%v, want truncated only",
			res.Truncated, res.Terminated)
	}
}

func TestFaultInjectionAbsorbsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode        Mode
		wantPenalty float64
	}{
		{ModeAttacker, attackerFaultPenalty},
		{ModeDefender, defenderFaultPenalty},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			cause := errors.New("connection reset by peer")
			s, _ := New(tt.mode, WithFaultInjector(func(step, action int) error {
				if step == 2 {
					return cause
				}
				return nil
			}))
			s.Reset(1)

			if _, err := s.Step(0); err != nil {
				t.Fatalf("Step() error = %v", err)
			}

			res, err := s.Step(0)
			if err != nil {
				t.Fatalf("faulted Step() error = %v, want nil", err)
			}
			if res.Reward != tt.wantPenalty {
				t.Errorf("reward = %v, want %v", res.Reward, tt.wantPenalty)
			}
			if res.Terminated {
				t.Error("fault terminated the episode")
			}
			if _, ok := res.Info["error"]; !ok {
				t.Error("fault not surfaced in step info")
			}

			// The episode keeps going after the fault.
			if _, err := s.Step(0); err != nil {
				t.Fatalf("Step() after fault error = %v", err)
			}
		})
	}
}

func TestObservationShape(t *testing.T) {
	t.Parallel()

	for _, mode := range AllModes() {
		t.Run(mode.String(), func(t *testing.T) {
			s, _ := New(mode)
			obs, info := s.Reset(9)

			if len(obs.Vector()) != ObservationSize {
				t.Fatalf("vector length = %d, want %d", len(obs.Vector()), ObservationSize)
			}
			if info["mode"] != mode.String() {
				t.Errorf("info mode = %v, want %s", info["mode"], mode)
			}

			res, err := s.Step(0)
			if err != nil {
				t.Fatalf("Step() error = %v", err)
			}
			if got := res.Info["step"]; got != 1 {
				t.Errorf("info step = %v, want 1", got)
			}
		})
	}
}

func TestActionName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode   Mode
		action int
		want   string
	}{
		{ModeAttacker, AttackBruteForce, "brute_force"},
		{ModeAttacker, AttackWait, "wait"},
		{ModeDefender, DefendMonitor, "monitor"},
		{ModeDefender, DefendDeception, "deception"},
		{ModeAttacker, -1, "unknown"},
		{ModeDefender, ActionCount, "unknown"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d", tt.mode, tt.action), func(t *testing.T) {
			if got := ActionName(tt.mode, tt.action); got != tt.want {
				t.Errorf("ActionName(%s, %d) = %q, want %q", tt.mode, tt.action, got, tt.want)
			}
		})
	}
}
