package validate

import (
	"fmt"
	"math"
	"strings"

	"chartwatch/internal/domain"
)

// Mandatory rule identifiers. Any of these in a verdict fails the reading.
const (
	RuleEntryMissing     = "ENTRY_MISSING"
	RuleStopLossMissing  = "SL_MISSING"
	RuleTakeProfitNone   = "TP_MISSING"
	RuleStopWrongSide    = "SL_WRONG_SIDE"
	RuleEntryWrongSide   = "ENTRY_WRONG_SIDE"
	RuleTPOrderInverted  = "TP_ORDER_INVERTED"
	RuleRangeTooWide     = "RANGE_TOO_WIDE"
	RuleRangeTooNarrow   = "RANGE_TOO_NARROW"
)

// Advisory rule identifiers. These never fail a reading; they feed the
// confidence scorer.
const (
	RuleRiskRewardAtypical = "RISK_REWARD_ATYPICAL"
	RuleEntryFarFromMarket = "ENTRY_FAR_FROM_MARKET"
)

// riskRewardBand is the generous multiplier around the profile's typical
// risk/reward before the advisory rule fires.
const riskRewardBand = 3.0

// PriceSource supplies a live reference price for a symbol, when one is
// known. A nil PriceSource disables the market proximity check.
type PriceSource interface {
	LastPrice(symbol string) (float64, bool)
}

// Validator resolves asset-class profiles for symbols and applies the rule
// set. Profiles and the class map are read-only after construction and safe
// for unsynchronized concurrent reads.
type Validator struct {
	profiles map[domain.AssetClass]domain.AssetClassProfile
	classes  map[string]domain.AssetClass
	market   PriceSource
}

func New(
	profiles map[domain.AssetClass]domain.AssetClassProfile,
	classes map[string]domain.AssetClass,
	market PriceSource,
) *Validator {
	if profiles == nil {
		profiles = domain.DefaultProfiles()
	}
	return &Validator{profiles: profiles, classes: classes, market: market}
}

// ProfileFor maps a symbol to its asset-class profile. Unmapped symbols fall
// back to crypto, the broadest tolerance class.
func (v *Validator) ProfileFor(symbol string) domain.AssetClassProfile {
	class, ok := v.classes[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		class = domain.AssetCrypto
	}
	profile, ok := v.profiles[class]
	if !ok {
		profile = v.profiles[domain.AssetCrypto]
	}
	return profile
}

// Validate applies every rule to the reading and collects all violations; it
// never short-circuits, so the verdict itemizes everything that is wrong.
func (v *Validator) Validate(reading domain.RawReading, direction domain.Direction, symbol string) domain.Verdict {
	profile := v.ProfileFor(symbol)
	verdict := Check(reading, direction, profile)

	if v.market != nil && reading.Entry != nil {
		if last, ok := v.market.LastPrice(symbol); ok && last > 0 {
			driftPct := math.Abs(*reading.Entry-last) / last * 100
			if driftPct > profile.MaxRangePct {
				verdict.Violations = append(verdict.Violations, domain.Violation{
					Rule:     RuleEntryFarFromMarket,
					Detail:   fmt.Sprintf("entry %.6g is %.1f%% from market %.6g", *reading.Entry, driftPct, last),
					Advisory: true,
				})
			}
		}
	}
	return verdict
}

// Check is the pure rule engine: one reading, one direction, one profile.
func Check(reading domain.RawReading, direction domain.Direction, profile domain.AssetClassProfile) domain.Verdict {
	violations := make([]domain.Violation, 0, 4)

	if reading.Entry == nil {
		violations = append(violations, domain.Violation{Rule: RuleEntryMissing})
	}
	if reading.StopLoss == nil {
		violations = append(violations, domain.Violation{Rule: RuleStopLossMissing})
	}
	if len(reading.TakeProfits) == 0 {
		violations = append(violations, domain.Violation{Rule: RuleTakeProfitNone})
	}

	violations = append(violations, orderingViolations(reading, direction)...)
	violations = append(violations, rangeViolations(reading, profile)...)

	if viol, ok := riskRewardViolation(reading, direction, profile); ok {
		violations = append(violations, viol)
	}

	passed := true
	for _, viol := range violations {
		if !viol.Advisory {
			passed = false
			break
		}
	}
	return domain.Verdict{Passed: passed, Violations: violations}
}

// orderingViolations checks every adjacent pair along the directional chain
// stop_loss -> entry -> tp1 -> tp2 -> ... and tags each inverted pair.
func orderingViolations(reading domain.RawReading, direction domain.Direction) []domain.Violation {
	// ahead reports whether b is further along the trade direction than a.
	ahead := func(a, b float64) bool { return a < b }
	if direction == domain.DirectionShort {
		ahead = func(a, b float64) bool { return a > b }
	}

	var out []domain.Violation
	if reading.StopLoss != nil && reading.Entry != nil && !ahead(*reading.StopLoss, *reading.Entry) {
		out = append(out, domain.Violation{
			Rule:   RuleStopWrongSide,
			Detail: fmt.Sprintf("%s: stop_loss %.6g vs entry %.6g", direction, *reading.StopLoss, *reading.Entry),
		})
	}
	if reading.Entry != nil && len(reading.TakeProfits) > 0 && !ahead(*reading.Entry, reading.TakeProfits[0]) {
		out = append(out, domain.Violation{
			Rule:   RuleEntryWrongSide,
			Detail: fmt.Sprintf("%s: entry %.6g vs take_profit_1 %.6g", direction, *reading.Entry, reading.TakeProfits[0]),
		})
	}
	// SL must also sit on the correct side of every TP even when the entry
	// is missing, otherwise an SL/TP inversion would go unnoticed.
	if reading.StopLoss != nil && reading.Entry == nil {
		for i, tp := range reading.TakeProfits {
			if !ahead(*reading.StopLoss, tp) {
				out = append(out, domain.Violation{
					Rule:   RuleStopWrongSide,
					Detail: fmt.Sprintf("%s: stop_loss %.6g vs take_profit_%d %.6g", direction, *reading.StopLoss, i+1, tp),
				})
			}
		}
	}
	for i := 0; i+1 < len(reading.TakeProfits); i++ {
		if !ahead(reading.TakeProfits[i], reading.TakeProfits[i+1]) {
			out = append(out, domain.Violation{
				Rule: RuleTPOrderInverted,
				Detail: fmt.Sprintf("%s: take_profit_%d %.6g vs take_profit_%d %.6g",
					direction, i+1, reading.TakeProfits[i], i+2, reading.TakeProfits[i+1]),
			})
		}
	}
	return out
}

// rangeViolations checks that the distance from entry to the last take profit
// is plausible for the asset class.
func rangeViolations(reading domain.RawReading, profile domain.AssetClassProfile) []domain.Violation {
	if reading.Entry == nil || len(reading.TakeProfits) == 0 || *reading.Entry <= 0 {
		return nil
	}
	last := reading.TakeProfits[len(reading.TakeProfits)-1]
	rangePct := math.Abs(last-*reading.Entry) / *reading.Entry * 100

	switch {
	case rangePct > profile.MaxRangePct:
		return []domain.Violation{{
			Rule:   RuleRangeTooWide,
			Detail: fmt.Sprintf("range %.2f%% exceeds %s max %.2f%%", rangePct, profile.Class, profile.MaxRangePct),
		}}
	case rangePct < profile.MinRangePct:
		return []domain.Violation{{
			Rule:   RuleRangeTooNarrow,
			Detail: fmt.Sprintf("range %.3f%% below %s min %.3f%%", rangePct, profile.Class, profile.MinRangePct),
		}}
	}
	return nil
}

// RiskReward returns reward/risk for the reading, when computable.
func RiskReward(reading domain.RawReading) (float64, bool) {
	if reading.Entry == nil || reading.StopLoss == nil || len(reading.TakeProfits) == 0 {
		return 0, false
	}
	risk := math.Abs(*reading.Entry - *reading.StopLoss)
	if risk == 0 {
		return 0, false
	}
	reward := math.Abs(reading.TakeProfits[0] - *reading.Entry)
	return reward / risk, true
}

func riskRewardViolation(reading domain.RawReading, direction domain.Direction, profile domain.AssetClassProfile) (domain.Violation, bool) {
	rr, ok := RiskReward(reading)
	if !ok || profile.TypicalRiskReward <= 0 {
		return domain.Violation{}, false
	}
	if rr >= profile.TypicalRiskReward/riskRewardBand && rr <= profile.TypicalRiskReward*riskRewardBand {
		return domain.Violation{}, false
	}
	return domain.Violation{
		Rule:     RuleRiskRewardAtypical,
		Detail:   fmt.Sprintf("%s risk/reward %.2f vs typical %.2f for %s", direction, rr, profile.TypicalRiskReward, profile.Class),
		Advisory: true,
	}, true
}
