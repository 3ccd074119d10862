package recognizer

import "testing"

func TestParseReadingPlainJSON(t *testing.T) {
	raw := `{"stop_loss": 90, "take_profit_1": 110, "take_profit_2": 120, "entry_price": 100}`
	reading, err := ParseReading(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.Entry == nil || *reading.Entry != 100 {
		t.Fatalf("expected entry 100, got %v", reading.Entry)
	}
	if reading.StopLoss == nil || *reading.StopLoss != 90 {
		t.Fatalf("expected stop loss 90, got %v", reading.StopLoss)
	}
	if len(reading.TakeProfits) != 2 || reading.TakeProfits[1] != 120 {
		t.Fatalf("expected TPs [110 120], got %v", reading.TakeProfits)
	}
}

func TestParseReadingStripsMarkdownFences(t *testing.T) {
	raw := "Here you go:\n```json\n{\"stop_loss\": 90, \"take_profit_1\": 110}\n```\nHope that helps."
	reading, err := ParseReading(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.StopLoss == nil || *reading.StopLoss != 90 {
		t.Fatalf("expected stop loss 90, got %v", reading.StopLoss)
	}
}

func TestParseReadingAcceptsFormattedStrings(t *testing.T) {
	raw := `{"stop_loss": "$64,230.50", "take_profit_1": "65,900", "entry_price": "null"}`
	reading, err := ParseReading(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.StopLoss == nil || *reading.StopLoss != 64230.50 {
		t.Fatalf("expected stop loss 64230.50, got %v", reading.StopLoss)
	}
	if reading.Entry != nil {
		t.Fatalf("expected nil entry for quoted null, got %v", reading.Entry)
	}
}

func TestParseReadingCurrentPriceBackfillsEntry(t *testing.T) {
	raw := `{"take_profit_1": 110, "current_price": 100.5}`
	reading, err := ParseReading(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.Entry == nil || *reading.Entry != 100.5 {
		t.Fatalf("expected entry backfilled from current_price, got %v", reading.Entry)
	}
}

func TestParseReadingEmptyButWellFormedIsNotError(t *testing.T) {
	reading, err := ParseReading(`{"stop_loss": null, "take_profit_1": null}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.HasAnyLevel() {
		t.Fatal("expected no levels")
	}
}

func TestParseReadingMalformed(t *testing.T) {
	for _, raw := range []string{"", "I cannot read this chart.", "```json\nnot json\n```", `[1,2,3]`} {
		if _, err := ParseReading(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseReadingSurvivesTakeProfitGaps(t *testing.T) {
	raw := `{"take_profit_1": 110, "take_profit_3": 130}`
	reading, err := ParseReading(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reading.TakeProfits) != 2 || reading.TakeProfits[0] != 110 || reading.TakeProfits[1] != 130 {
		t.Fatalf("expected TPs [110 130] across the gap, got %v", reading.TakeProfits)
	}

	raw = `{"take_profit_1": null, "take_profit_2": 110, "take_profit_3": 120}`
	reading, err = ParseReading(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reading.TakeProfits) != 2 || reading.TakeProfits[0] != 110 || reading.TakeProfits[1] != 120 {
		t.Fatalf("expected TPs [110 120] past a null first slot, got %v", reading.TakeProfits)
	}
}

func TestParseReadingIgnoresNonPositivePrices(t *testing.T) {
	raw := `{"stop_loss": -5, "take_profit_1": 0, "entry_price": 100}`
	reading, err := ParseReading(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.StopLoss != nil || len(reading.TakeProfits) != 0 {
		t.Fatalf("expected non-positive prices dropped, got %+v", reading)
	}
}

func TestParseReadingEvidence(t *testing.T) {
	raw := `{"entry_price": 100, "evidence": ["red box at 90", "green box at 110"]}`
	reading, err := ParseReading(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reading.Evidence) != 2 {
		t.Fatalf("expected 2 evidence notes, got %v", reading.Evidence)
	}

	raw = `{"entry_price": 100, "evidence": "single note"}`
	reading, err = ParseReading(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reading.Evidence) != 1 || reading.Evidence[0] != "single note" {
		t.Fatalf("expected single evidence note, got %v", reading.Evidence)
	}
}
