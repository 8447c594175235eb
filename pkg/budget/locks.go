package budget

// Locks recomputes the state of every journey milestone from current facts.
// There is no stored transition history: the same inputs always produce the
// same states, in the fixed journey order.
func (engine *Engine) Locks(envelopes []Envelope, debt DebtSnapshot) []GoalLock {
	locks := make([]GoalLock, 0, 5)

	essentialsPercent := essentialsProgressPercent(envelopes)
	essentialsState := LockStateActive
	if essentialsPercent >= engine.essentialsThresholdPercent {
		essentialsState = LockStateCompleted
	}
	locks = append(locks, GoalLock{
		Goal:            GoalEssentials,
		State:           essentialsState,
		ProgressPercent: essentialsPercent,
	})

	starterPercent, starterExists := goalProgressPercent(envelopes, SuggestionStarterStash)
	locks = append(locks, GoalLock{
		Goal:            GoalStarterStash,
		State:           progressLockState(starterPercent, starterExists),
		ProgressPercent: starterPercent,
	})

	locks = append(locks, GoalLock{
		Goal:            GoalDebtPayoff,
		State:           debtLockState(debt),
		ProgressPercent: debtProgressPercent(debt),
	})

	locks = append(locks, engine.gatedGoalLock(envelopes, debt, GoalSafetyNet, SuggestionSafetyNet))
	locks = append(locks, engine.gatedGoalLock(envelopes, debt, GoalCCHolding, SuggestionCCHolding))

	return locks
}

// gatedGoalLock evaluates a debt-gated milestone: locked whenever debt
// remains, irrespective of its own funding progress.
func (engine *Engine) gatedGoalLock(envelopes []Envelope, debt DebtSnapshot, goal GoalID, suggestion SuggestionType) GoalLock {
	percent, exists := goalProgressPercent(envelopes, suggestion)
	state := progressLockState(percent, exists)
	if debt.HasDebt() {
		state = LockStateLocked
	}
	return GoalLock{Goal: goal, State: state, ProgressPercent: percent}
}

// debtLockState has no pending state: either the payoff milestone was never
// needed or has been cleared, or debt remains and it is the active milestone.
func debtLockState(debt DebtSnapshot) LockState {
	if debt.HasDebt() {
		return LockStateActive
	}
	return LockStateCompleted
}

func debtProgressPercent(debt DebtSnapshot) float64 {
	if debt.StartingCents() <= 0 {
		return fullProgressPercent
	}
	paidCents := debt.StartingCents().Int64() - debt.CurrentCents().Int64()
	return aggregatePercent(paidCents, debt.StartingCents().Int64())
}

// goalProgressPercent finds the goal envelope with the given suggestion and
// returns its funding percent. A missing goal envelope reports zero progress.
func goalProgressPercent(envelopes []Envelope, suggestion SuggestionType) (float64, bool) {
	for _, envelope := range envelopes {
		if envelope.Suggestion() == suggestion {
			return envelope.ProgressPercent(), true
		}
	}
	return 0, false
}

// progressLockState maps a funding percent to a milestone state. A milestone
// whose envelope has not been created yet is pending, not zero-percent active.
func progressLockState(percent float64, envelopeExists bool) LockState {
	if !envelopeExists {
		return LockStatePending
	}
	switch {
	case percent >= fullProgressPercent:
		return LockStateCompleted
	case percent > 0:
		return LockStateActive
	default:
		return LockStatePending
	}
}

func essentialsProgressPercent(envelopes []Envelope) float64 {
	var targetCents, currentCents int64
	for _, envelope := range envelopes {
		if envelope.Suggestion() != SuggestionNone || envelope.Tier() != TierEssential {
			continue
		}
		targetCents += envelope.TargetCents().Int64()
		currentCents += envelope.CurrentCents().Int64()
	}
	return aggregatePercent(currentCents, targetCents)
}
