package mcp

import (
	"fmt"
	"strings"

	"chartwatch/internal/domain"
)

const (
	defaultSignalLimit = 50
	maxSignalLimit     = 200
	defaultStatsHours  = 24
	maxStatsHours      = 24 * 30
)

type signalsListInput struct {
	Ticker    string `json:"ticker,omitempty" jsonschema:"optional ticker symbol (e.g. BTC, ETH)"`
	Direction string `json:"direction,omitempty" jsonschema:"optional direction: LONG or SHORT"`
	Status    string `json:"status,omitempty" jsonschema:"optional status: confirmed, pending_review, discarded"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of signals to return, max 200"`
}

type signalsListOutput struct {
	Signals []domain.Signal `json:"signals"`
}

type signalsGetInput struct {
	ID int64 `json:"id" jsonschema:"signal id"`
}

type signalsGetOutput struct {
	Signal *domain.Signal `json:"signal"`
}

type signalsStatsInput struct {
	Hours int `json:"hours,omitempty" jsonschema:"stats window in hours, default 24, max 720"`
}

type signalsStatsOutput struct {
	Stats       domain.SignalStats `json:"stats"`
	WindowHours int                `json:"window_hours"`
}

type signalsReviewInput struct {
	ID       int64  `json:"id" jsonschema:"signal id awaiting review"`
	Decision string `json:"decision" jsonschema:"review decision: confirm or discard"`
}

type signalsReviewOutput struct {
	Signal *domain.Signal `json:"signal"`
}

func normalizeDirection(direction string) (domain.Direction, error) {
	direction = strings.ToUpper(strings.TrimSpace(direction))
	if direction == "" {
		return "", nil
	}
	d := domain.Direction(direction)
	if !d.IsValid() {
		return "", fmt.Errorf("unsupported direction: %s", direction)
	}
	return d, nil
}

func normalizeStatus(status string) (string, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "", domain.StatusConfirmed, domain.StatusPendingReview, domain.StatusDiscarded:
		return status, nil
	default:
		return "", fmt.Errorf("unsupported status: %s", status)
	}
}

func normalizeSignalLimit(limit int) int {
	if limit <= 0 {
		return defaultSignalLimit
	}
	if limit > maxSignalLimit {
		return maxSignalLimit
	}
	return limit
}

func normalizeStatsHours(hours int) (int, error) {
	if hours == 0 {
		return defaultStatsHours, nil
	}
	if hours < 0 || hours > maxStatsHours {
		return 0, fmt.Errorf("hours must be between 1 and %d", maxStatsHours)
	}
	return hours, nil
}

func normalizeDecision(decision string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "confirm":
		return true, nil
	case "discard":
		return false, nil
	default:
		return false, fmt.Errorf("decision must be confirm or discard")
	}
}

func normalizeSignalFilter(in signalsListInput) (domain.SignalFilter, error) {
	filter := domain.SignalFilter{
		Ticker: strings.ToUpper(strings.TrimSpace(in.Ticker)),
		Limit:  normalizeSignalLimit(in.Limit),
	}

	direction, err := normalizeDirection(in.Direction)
	if err != nil {
		return domain.SignalFilter{}, err
	}
	filter.Direction = direction

	status, err := normalizeStatus(in.Status)
	if err != nil {
		return domain.SignalFilter{}, err
	}
	filter.Status = status

	return filter, nil
}
