package sim

// Defender reward contract.
const (
	rewardMonitor       = 1.0
	rewardRateLimitHit  = 5.0
	rewardRateLimitMiss = -1.0
	rewardTempBlockHit  = 10.0
	rewardTempBlockMiss = -2.0
	rewardPermBlockHit  = 20.0
	rewardPermBlockMiss = -5.0
	rewardDecoyHit      = 15.0
	rewardDecoyMiss     = -3.0
	rewardRotateConfig  = 8.0
	rewardAlertHit      = 12.0
	rewardAlertMiss     = -4.0
	rewardIsolateHit    = 25.0
	rewardIsolateMiss   = -10.0
	rewardResetDowntime = -8.0
	rewardDeceptionHit  = 10.0
	rewardDeceptionMiss = -2.0

	detectedBonusPerHit  = 3.0
	missedPenaltyPerMiss = 5.0
)

// executeDefender simulates one defender action. A latent attack may
// be in progress each step; intervening correctly pays off scaled by
// the action's aggressiveness, intervening without cause costs a
// false-positive penalty.
func (s *Simulator) executeDefender(action int) outcome {
	st := &s.defense
	out := outcome{info: Info{
		"action":      action,
		"action_name": ActionName(ModeDefender, action),
	}}

	attackActive := s.rng.Float64() < s.tun.AttackPresence

	var detected, mitigated, falsePositives int
	detect := func() {
		st.AttacksDetected++
		detected++
	}
	mitigate := func() {
		st.AttacksMitigated++
		mitigated++
	}
	falsePositive := func() {
		st.FalsePositives++
		falsePositives++
	}

	switch action {
	case DefendMonitor:
		out.reward = rewardMonitor

	case DefendRateLimit:
		if attackActive {
			out.reward = rewardRateLimitHit
			detect()
			mitigate()
		} else {
			out.reward = rewardRateLimitMiss
			falsePositive()
		}

	case DefendTempBlock:
		switch {
		case attackActive && s.rng.Float64() < s.tun.TempBlockSuccess:
			out.reward = rewardTempBlockHit
			st.IPsBlocked++
			detect()
			mitigate()
		case attackActive:
			out.reward = rewardTempBlockMiss
		default:
			out.reward = rewardTempBlockMiss
			falsePositive()
		}

	case DefendPermBlock:
		switch {
		case attackActive && s.rng.Float64() < s.tun.PermBlockSuccess:
			out.reward = rewardPermBlockHit
			st.IPsBlocked++
			detect()
			mitigate()
		case attackActive:
			out.reward = rewardPermBlockMiss
		default:
			out.reward = rewardPermBlockMiss
			falsePositive()
		}

	case DefendDecoy:
		if s.rng.Float64() < s.tun.DecoySuccess {
			out.reward = rewardDecoyHit
		} else {
			out.reward = rewardDecoyMiss
		}

	case DefendRotateConfig:
		out.reward = rewardRotateConfig

	case DefendAlert:
		if attackActive {
			out.reward = rewardAlertHit
			detect()
		} else {
			out.reward = rewardAlertMiss
			falsePositive()
		}

	case DefendIsolate:
		switch {
		case attackActive && s.rng.Float64() < s.tun.IsolateSuccess:
			out.reward = rewardIsolateHit
			mitigate()
		case attackActive:
			out.reward = rewardIsolateMiss
		default:
			out.reward = rewardIsolateMiss
			falsePositive()
		}

	case DefendReset:
		out.reward = rewardResetDowntime

	case DefendDeception:
		if s.rng.Float64() < s.tun.DeceptionSuccess {
			out.reward = rewardDeceptionHit
		} else {
			out.reward = rewardDeceptionMiss
		}
	}

	out.reward += detectedBonusPerHit * float64(detected)

	missed := s.missedFn(st)
	out.reward -= missedPenaltyPerMiss * float64(missed)

	out.info["attack_active"] = attackActive
	out.info["attacks_detected"] = detected
	out.info["attacks_mitigated"] = mitigated
	out.info["false_positives"] = falsePositives
	out.info["missed_attacks"] = missed

	// Background attack traffic leaves footprints regardless of the
	// chosen response.
	if attackActive {
		st.FailedLogins += 1 + s.rng.Intn(5)
		st.SuspiciousCommands += s.rng.Intn(4)
	}

	return out
}
