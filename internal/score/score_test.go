package score

import (
	"testing"

	"chartwatch/internal/domain"
	"chartwatch/internal/validate"
)

func cryptoProfile() domain.AssetClassProfile {
	return domain.DefaultProfiles()[domain.AssetCrypto]
}

func scoreOf(t *testing.T, reading domain.RawReading, corroborated bool) int {
	t.Helper()
	verdict := validate.Check(reading, domain.DirectionLong, cryptoProfile())
	return Score(reading, verdict, cryptoProfile(), corroborated)
}

func TestScoreIsDeterministicAndExact(t *testing.T) {
	reading := domain.RawReading{
		Entry:       domain.Ptr(100),
		StopLoss:    domain.Ptr(90),
		TakeProfits: []float64{110, 120},
	}
	// completeness 4/5 of 40 = 32, clean verdict = 30, rr 1.0 vs typical
	// 3.0 -> deviation 2/6 of the double-typical scale -> 13 points.
	want := 75
	for i := 0; i < 3; i++ {
		if got := scoreOf(t, reading, false); got != want {
			t.Fatalf("run %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestScorePerfectReading(t *testing.T) {
	// rr exactly typical (risk 10, reward 30) and all five slots filled.
	reading := domain.RawReading{
		Entry:       domain.Ptr(100),
		StopLoss:    domain.Ptr(90),
		TakeProfits: []float64{130, 140, 150},
	}
	if got := scoreOf(t, reading, false); got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}
	if got := scoreOf(t, reading, true); got != 100 {
		t.Fatalf("expected agreement to lift score to 100, got %d", got)
	}
}

func TestScoreMonotonicInCompleteness(t *testing.T) {
	partial := domain.RawReading{Entry: domain.Ptr(100), TakeProfits: []float64{110}}
	fuller := domain.RawReading{Entry: domain.Ptr(100), StopLoss: domain.Ptr(90), TakeProfits: []float64{110}}
	if scoreOf(t, partial, false) >= scoreOf(t, fuller, false) {
		t.Fatal("adding a slot must not lower the score")
	}
}

func TestScoreMandatoryViolationDropsBonus(t *testing.T) {
	inverted := domain.RawReading{
		Entry:       domain.Ptr(100),
		StopLoss:    domain.Ptr(110),
		TakeProfits: []float64{120},
	}
	clean := domain.RawReading{
		Entry:       domain.Ptr(100),
		StopLoss:    domain.Ptr(90),
		TakeProfits: []float64{120},
	}
	if scoreOf(t, inverted, false) >= scoreOf(t, clean, false) {
		t.Fatal("a mandatory violation must cost the clean-verdict bonus")
	}
}

func TestScoreAgreementBonus(t *testing.T) {
	reading := domain.RawReading{
		Entry:       domain.Ptr(100),
		StopLoss:    domain.Ptr(90),
		TakeProfits: []float64{110},
	}
	base := scoreOf(t, reading, false)
	boosted := scoreOf(t, reading, true)
	if boosted != base+AgreementBonus {
		t.Fatalf("expected +%d agreement bonus, got %d -> %d", AgreementBonus, base, boosted)
	}
}

func TestScoreCapsAtHundred(t *testing.T) {
	reading := domain.RawReading{
		Entry:       domain.Ptr(100),
		StopLoss:    domain.Ptr(90),
		TakeProfits: []float64{130, 140, 150},
	}
	if got := scoreOf(t, reading, true); got > 100 {
		t.Fatalf("score exceeded 100: %d", got)
	}
}

func TestAgrees(t *testing.T) {
	if !Agrees(domain.Ptr(100), domain.Ptr(100.9)) {
		t.Fatal("0.9% apart should agree at 1% tolerance")
	}
	if Agrees(domain.Ptr(100), domain.Ptr(102)) {
		t.Fatal("2% apart should not agree")
	}
	if Agrees(nil, domain.Ptr(100)) || Agrees(domain.Ptr(100), nil) {
		t.Fatal("nil slots never agree")
	}
}
