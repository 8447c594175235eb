package budget

// Progress derives milestone progress across the ordinary envelopes. Suggested
// goal envelopes are excluded; their progress is reported per milestone by Locks.
func (engine *Engine) Progress(envelopes []Envelope) MilestoneProgress {
	var progress MilestoneProgress
	var essentialTargetCents, essentialCurrentCents int64
	for _, envelope := range envelopes {
		if envelope.Suggestion() != SuggestionNone {
			continue
		}
		progress.TotalCount++
		progress.TotalTargetCents += envelope.TargetCents()
		progress.TotalCurrentCents += envelope.CurrentCents()
		if envelope.CurrentCents() < envelope.TargetCents() {
			progress.NeedsFunding++
		} else {
			progress.FundedCount++
		}
		if envelope.Tier() == TierEssential {
			essentialTargetCents += envelope.TargetCents().Int64()
			essentialCurrentCents += envelope.CurrentCents().Int64()
		}
	}
	if progress.TotalTargetCents > 0 {
		progress.OverallPercent = float64(progress.TotalCurrentCents) / float64(progress.TotalTargetCents) * fullProgressPercent
	}
	progress.EssentialsUnderfunded = aggregatePercent(essentialCurrentCents, essentialTargetCents) < engine.essentialsThresholdPercent
	return progress
}

// aggregatePercent is the pooled funding percent of a set of envelopes,
// clamped to [0,100]. An empty pool has nothing left to fund.
func aggregatePercent(currentCents int64, targetCents int64) float64 {
	if targetCents <= 0 {
		return fullProgressPercent
	}
	percent := float64(currentCents) / float64(targetCents) * fullProgressPercent
	if percent > fullProgressPercent {
		return fullProgressPercent
	}
	if percent < 0 {
		return 0
	}
	return percent
}
