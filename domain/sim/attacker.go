package sim

// Attacker reward contract. Values are part of the numeric reward
// contract and must not drift.
const (
	rewardBruteForceHit   = 20.0
	rewardBruteForceMiss  = -2.0
	rewardEnumerateBase   = 5.0
	rewardRecon           = 8.0
	rewardDownloadHit     = 15.0
	rewardDownloadMiss    = -3.0
	rewardEscalateHit     = 30.0
	rewardEscalateMiss    = -4.0
	rewardBackdoorHit     = 25.0
	rewardBackdoorMiss    = -3.0
	rewardModifyHit       = 18.0
	rewardModifyMiss      = -2.0
	rewardExfiltrateBase  = 12.0
	rewardPortScanBase    = 10.0
	rewardWait            = -0.5
	rewardIneligible      = -5.0
)

// executeAttacker simulates one attacker action against the honeypot
// using the episode's probability model, then folds in the detection
// dynamics. Gameplay failures are rewards, never faults.
func (s *Simulator) executeAttacker(action int) outcome {
	st := &s.attack
	out := outcome{info: Info{
		"action":      action,
		"action_name": ActionName(ModeAttacker, action),
	}}

	switch action {
	case AttackBruteForce:
		if s.rng.Float64() < s.tun.BruteForceSuccess {
			st.ConnectionActive = true
			st.raisePrivilege(PrivilegeUser)
			st.SuccessfulExploits++
			out.reward = rewardBruteForceHit
			out.info["success"] = true
		} else {
			st.FailedAttempts++
			out.reward = rewardBruteForceMiss
			out.info["success"] = false
		}
		st.actionContrib += 0.1

	case AttackEnumerate:
		if st.ConnectionActive {
			users := 3 + s.rng.Intn(8)
			out.reward = rewardEnumerateBase + 0.5*float64(users)
			st.CommandsExecuted += 3
			out.info["users_found"] = users
		} else {
			out.reward = rewardIneligible
		}

	case AttackRecon:
		if st.ConnectionActive {
			out.reward = rewardRecon
			st.CommandsExecuted += 5
			st.actionContrib += 0.05
		} else {
			out.reward = rewardIneligible
		}

	case AttackDownload:
		if st.ConnectionActive {
			if s.rng.Float64() < s.tun.DownloadSuccess {
				out.reward = rewardDownloadHit
				st.FilesAccessed++
				st.SuccessfulExploits++
				st.actionContrib += 0.3
				out.info["success"] = true
			} else {
				out.reward = rewardDownloadMiss
				out.info["success"] = false
			}
		} else {
			out.reward = rewardIneligible
		}

	case AttackEscalate:
		if st.ConnectionActive && s.rng.Float64() < s.tun.EscalationSuccess {
			out.reward = rewardEscalateHit
			st.raisePrivilege(PrivilegeRoot)
			st.SuccessfulExploits++
			st.actionContrib += 0.4
			out.info["success"] = true
		} else {
			out.reward = rewardEscalateMiss
			st.actionContrib += 0.2
			out.info["success"] = false
		}

	case AttackBackdoor:
		if st.PrivilegeLevel >= PrivilegeUser {
			if s.rng.Float64() < s.tun.BackdoorSuccess {
				out.reward = rewardBackdoorHit
				out.info["success"] = true
			} else {
				out.reward = rewardBackdoorMiss
				out.info["success"] = false
			}
			st.actionContrib += 0.25
		} else {
			out.reward = rewardIneligible
		}

	case AttackModifyFiles:
		if st.PrivilegeLevel >= PrivilegeUser {
			if s.rng.Float64() < s.tun.ModifySuccess {
				out.reward = rewardModifyHit
				out.info["success"] = true
			} else {
				out.reward = rewardModifyMiss
				out.info["success"] = false
			}
			st.FilesAccessed++
			st.actionContrib += 0.15
		} else {
			out.reward = rewardIneligible
		}

	case AttackExfiltrate:
		if st.ConnectionActive {
			files := 1 + s.rng.Intn(5)
			out.reward = rewardExfiltrateBase + 0.1*float64(files)
			st.FilesAccessed += files
			st.actionContrib += 0.2
			out.info["files_exfiltrated"] = files
		} else {
			out.reward = rewardIneligible
		}

	case AttackPortScan:
		if st.ConnectionActive {
			ports := 1 + s.rng.Intn(5)
			out.reward = rewardPortScanBase + 0.5*float64(ports)
			st.actionContrib += 0.3
			out.info["open_ports"] = ports
		} else {
			out.reward = rewardIneligible
		}

	case AttackWait:
		// No footprint, no detection contribution.
		out.reward = rewardWait
	}

	s.applyDetection(&out)
	return out
}
