package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chartwatch/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

// FormatSignalRow renders one pending signal as a single table row.
func FormatSignalRow(s domain.Signal) string {
	dirStyle := DirectionShortStyle
	if s.Direction == domain.DirectionLong {
		dirStyle = DirectionLongStyle
	}

	return fmt.Sprintf("#%-4d %-8s %s %-6s %-9s %-9s %-18s %s  %s",
		s.ID,
		s.Ticker,
		dirStyle.Render(fmt.Sprintf("%-5s", string(s.Direction))),
		s.EntryType,
		formatLevel(s.Entry),
		formatLevel(s.StopLoss),
		formatTakeProfits(s.TakeProfits),
		confidenceStyle(s.Confidence).Render(fmt.Sprintf("%3d", s.Confidence)),
		s.CreatedAt.Format(time.RFC822),
	)
}

// FormatStats renders the stats summary line shown in the header.
func FormatStats(stats domain.SignalStats) string {
	return fmt.Sprintf("last 24h: %d signals (%d long / %d short), avg confidence %.1f",
		stats.Total, stats.Longs, stats.Shorts, stats.AvgConfidence)
}

func confidenceStyle(confidence int) lipgloss.Style {
	switch {
	case confidence >= 70:
		return ConfidenceGoodStyle
	case confidence >= 50:
		return ConfidenceOkStyle
	default:
		return ConfidenceBadStyle
	}
}

func formatLevel(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatTakeProfits(tps []float64) string {
	if len(tps) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(tps))
	for _, tp := range tps {
		parts = append(parts, strconv.FormatFloat(tp, 'f', -1, 64))
	}
	return strings.Join(parts, "/")
}
