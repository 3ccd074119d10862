package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chartwatch/internal/domain"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const pendingFetchLimit = 50

// Review console message types.
type pendingMsg []domain.Signal
type pendingErrMsg struct{ err error }
type statsMsg domain.SignalStats
type statsErrMsg struct{ err error }
type reviewedMsg struct{ signal *domain.Signal }
type reviewErrMsg struct{ err error }

// ReviewModel is the Bubble Tea model for the pending-signal review console.
type ReviewModel struct {
	services Services
	signals  []domain.Signal
	stats    domain.SignalStats
	cursor   int
	loading  bool
	notice   string
	err      error
	width    int
	height   int
	quitting bool
}

// NewReviewModel creates the review console model.
func NewReviewModel(svc Services) ReviewModel {
	return ReviewModel{
		services: svc,
		loading:  true,
	}
}

// Init fires the initial pending-queue and stats fetches.
func (m ReviewModel) Init() tea.Cmd {
	return tea.Batch(m.fetchPendingCmd(), m.fetchStatsCmd())
}

// Update handles incoming messages.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pendingMsg:
		m.signals = []domain.Signal(msg)
		m.loading = false
		m.err = nil
		if m.cursor >= len(m.signals) {
			m.cursor = len(m.signals) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case pendingErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case statsMsg:
		m.stats = domain.SignalStats(msg)
		return m, nil

	case statsErrMsg:
		// Stats are decoration; the queue view stays usable without them.
		return m, nil

	case reviewedMsg:
		if msg.signal != nil {
			m.notice = fmt.Sprintf("signal #%d %s", msg.signal.ID, msg.signal.Status)
		}
		m.loading = true
		return m, tea.Batch(m.fetchPendingCmd(), m.fetchStatsCmd())

	case reviewErrMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.signals)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, DefaultKeyMap.Refresh):
			m.loading = true
			m.notice = ""
			return m, tea.Batch(m.fetchPendingCmd(), m.fetchStatsCmd())

		case key.Matches(msg, DefaultKeyMap.Confirm):
			return m.review(true)

		case key.Matches(msg, DefaultKeyMap.Discard):
			return m.review(false)
		}
	}

	return m, nil
}

// View renders the review console.
func (m ReviewModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var sections []string
	title := "  Pending Signal Review"
	if m.services.Username != "" {
		title += "  (" + m.services.Username + ")"
	}
	sections = append(sections, HeaderStyle.Render(title))
	sections = append(sections, SubtextStyle.Render("  "+FormatStats(m.stats)))
	sections = append(sections, "")

	switch {
	case m.loading:
		sections = append(sections, SubtextStyle.Render("  Loading..."))
	case m.err != nil:
		sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
	case len(m.signals) == 0:
		sections = append(sections, SubtextStyle.Render("  Review queue is empty"))
	default:
		sections = append(sections, SubtextStyle.Render(
			fmt.Sprintf("  %-5s %-8s %-5s %-6s %-9s %-9s %-18s %s  %s",
				"ID", "Ticker", "Dir", "Entry", "Price", "Stop", "Targets", "Conf", "Created"),
		))
		for i, s := range m.signals {
			row := FormatSignalRow(s)
			if i == m.cursor {
				sections = append(sections, SelectedStyle.Render("> "+row))
			} else {
				sections = append(sections, "  "+row)
			}
		}
	}

	if m.notice != "" {
		sections = append(sections, "")
		sections = append(sections, NoticeStyle.Render("  "+m.notice))
	}

	sections = append(sections, "")
	sections = append(sections, SubtextStyle.Render("  [c] confirm  [d] discard  [j/k] move  [R] refresh  [q] quit"))

	return lipgloss.JoinVertical(lipgloss.Left, strings.Join(sections, "\n"))
}

// Cursor returns the selected row index (for testing).
func (m ReviewModel) Cursor() int { return m.cursor }

// PendingCount returns the number of loaded pending signals (for testing).
func (m ReviewModel) PendingCount() int { return len(m.signals) }

func (m ReviewModel) review(confirm bool) (tea.Model, tea.Cmd) {
	if m.loading || m.cursor >= len(m.signals) {
		return m, nil
	}
	id := m.signals[m.cursor].ID
	return m, m.reviewCmd(id, confirm)
}

func (m ReviewModel) fetchPendingCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Signals == nil {
			return pendingErrMsg{err: fmt.Errorf("signal service not available")}
		}
		signals, err := m.services.Signals.ListPendingReview(context.Background(), pendingFetchLimit)
		if err != nil {
			return pendingErrMsg{err: err}
		}
		return pendingMsg(signals)
	}
}

func (m ReviewModel) fetchStatsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Signals == nil {
			return statsErrMsg{err: fmt.Errorf("signal service not available")}
		}
		stats, err := m.services.Signals.Stats(context.Background(), 24*time.Hour)
		if err != nil {
			return statsErrMsg{err: err}
		}
		return statsMsg(stats)
	}
}

func (m ReviewModel) reviewCmd(id int64, confirm bool) tea.Cmd {
	return func() tea.Msg {
		signal, err := m.services.Signals.Review(context.Background(), id, confirm)
		if err != nil {
			return reviewErrMsg{err: err}
		}
		return reviewedMsg{signal: signal}
	}
}
