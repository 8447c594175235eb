package budget

import "sort"

// waterfallRank fixes the total allocation order: essential spending first,
// then the starter stash, the remaining spending tiers, and the debt-gated
// goals last. Within a rank the input (creation) order is preserved.
func waterfallRank(envelope Envelope) int {
	switch envelope.Suggestion() {
	case SuggestionStarterStash:
		return 1
	case SuggestionSafetyNet:
		return 4
	case SuggestionCCHolding:
		return 5
	}
	switch envelope.Tier() {
	case TierEssential:
		return 0
	case TierImportant:
		return 2
	default:
		return 3
	}
}

// runWaterfall distributes pool across the envelopes in waterfall order,
// capping each line at the envelope's funding gap and skipping envelopes the
// debt gate keeps locked. The unspent pool is returned as the remainder.
func runWaterfall(envelopes []Envelope, debt DebtSnapshot, pool AmountCents) ([]Allocation, AmountCents) {
	ordered := make([]Envelope, len(envelopes))
	copy(ordered, envelopes)
	sort.SliceStable(ordered, func(first, second int) bool {
		return waterfallRank(ordered[first]) < waterfallRank(ordered[second])
	})

	allocations := make([]Allocation, 0, len(ordered))
	remaining := pool
	for _, envelope := range ordered {
		if remaining == 0 {
			break
		}
		if envelopeLocked(envelope, debt) {
			continue
		}
		allocation := envelope.FundingGapCents()
		if allocation == 0 {
			continue
		}
		if allocation > remaining {
			allocation = remaining
		}
		remaining -= allocation
		allocations = append(allocations, Allocation{
			EnvelopeID:  envelope.ID(),
			AmountCents: allocation,
		})
	}
	return allocations, remaining
}

// envelopeLocked reports whether the debt gate keeps an envelope out of the
// waterfall. Locked envelopes never receive allocation under any strategy.
func envelopeLocked(envelope Envelope, debt DebtSnapshot) bool {
	if !debt.HasDebt() {
		return false
	}
	return envelope.Suggestion() == SuggestionSafetyNet || envelope.Suggestion() == SuggestionCCHolding
}
