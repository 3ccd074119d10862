// Package score derives a 0-100 confidence value for one extraction
// candidate. Scoring is deterministic and monotonic in each input dimension
// so tests can assert exact values for fixed inputs.
package score

import (
	"math"

	"chartwatch/internal/domain"
	"chartwatch/internal/validate"
)

const (
	// Five expected slots: entry, stop loss, and up to three take profits.
	expectedSlots     = 5
	completenessMax   = 40
	cleanVerdictBonus = 30
	riskRewardMax     = 20
	// AgreementBonus is added when another strategy independently produced
	// a numerically close value for the same slot.
	AgreementBonus = 10

	// AgreementTolerance is the relative distance within which two
	// strategies' values for the same slot count as corroborating.
	AgreementTolerance = 0.01
)

// Score computes the candidate's confidence. corroborated reports whether a
// different strategy independently produced a close reading (the orchestrator
// determines this; the scorer itself sees one candidate at a time).
func Score(reading domain.RawReading, verdict domain.Verdict, profile domain.AssetClassProfile, corroborated bool) int {
	total := completenessPoints(reading)

	if len(verdict.Mandatory()) == 0 {
		total += cleanVerdictBonus
	}

	total += riskRewardPoints(reading, profile)

	if corroborated {
		total += AgreementBonus
	}

	if total > 100 {
		total = 100
	}
	return total
}

func completenessPoints(reading domain.RawReading) int {
	populated := 0
	if reading.Entry != nil {
		populated++
	}
	if reading.StopLoss != nil {
		populated++
	}
	tps := len(reading.TakeProfits)
	if tps > 3 {
		tps = 3
	}
	populated += tps
	return populated * completenessMax / expectedSlots
}

// riskRewardPoints rewards proximity of the reading's risk/reward ratio to
// the profile's typical value, scaling linearly to zero at twice the typical
// value's distance.
func riskRewardPoints(reading domain.RawReading, profile domain.AssetClassProfile) int {
	rr, ok := validate.RiskReward(reading)
	if !ok || profile.TypicalRiskReward <= 0 {
		return 0
	}
	deviation := math.Abs(rr-profile.TypicalRiskReward) / (2 * profile.TypicalRiskReward)
	if deviation >= 1 {
		return 0
	}
	return int(math.Round(riskRewardMax * (1 - deviation)))
}

// Agrees reports whether two optional slot values corroborate each other
// within the agreement tolerance.
func Agrees(a, b *float64) bool {
	if a == nil || b == nil || *a <= 0 {
		return false
	}
	return math.Abs(*a-*b)/math.Abs(*a) <= AgreementTolerance
}
