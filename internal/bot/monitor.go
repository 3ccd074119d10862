// Package bot is the Telegram boundary: it watches configured chats for
// trade calls, pairs them with chart images, and hands the pair to the
// extraction pipeline.
package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"chartwatch/internal/domain"

	tele "gopkg.in/telebot.v3"
)

const (
	defaultPendingWindow = 30 * time.Second
	processTimeout       = 3 * time.Minute
)

// ChartProcessor runs extraction for one detected signal and its chart.
type ChartProcessor interface {
	ProcessChart(ctx context.Context, detected domain.DetectedSignal, image domain.ChartImage) (*domain.Signal, error)
}

// SignalQueries serves the bot's read and review commands.
type SignalQueries interface {
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error)
	Stats(ctx context.Context, window time.Duration) (domain.SignalStats, error)
	Review(ctx context.Context, id int64, confirm bool) (*domain.Signal, error)
}

// Deduper guards against processing the same message twice.
type Deduper interface {
	FirstSeen(ctx context.Context, chatID, messageID int64) (bool, error)
}

type Options struct {
	Token         string
	ChatIDs       []int64
	Authors       []string
	PendingWindow time.Duration
}

type Monitor struct {
	bot       *tele.Bot
	processor ChartProcessor
	queries   SignalQueries
	dedupe    Deduper
	alerts    *AlertDispatcher

	chats   map[int64]struct{}
	authors map[string]struct{}
	pending *pendingTracker
}

// StartTelegramMonitor builds the bot, registers handlers, and starts long
// polling in a goroutine. Returns nil when no token is configured.
func StartTelegramMonitor(opts Options, processor ChartProcessor, queries SignalQueries, dedupe Deduper) *Monitor {
	if opts.Token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram monitor startup")
		return nil
	}
	pref := tele.Settings{
		Token:  opts.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	m := &Monitor{
		bot:       b,
		processor: processor,
		queries:   queries,
		dedupe:    dedupe,
		alerts:    NewAlertDispatcher(b),
		chats:     toChatSet(opts.ChatIDs),
		authors:   toAuthorSet(opts.Authors),
		pending:   newPendingTracker(opts.PendingWindow),
	}
	m.registerHandlers()

	log.Println("Telegram monitor started")
	go b.Start()
	return m
}

// Alerts exposes the dispatcher so it can be wired as the extraction
// notifier.
func (m *Monitor) Alerts() *AlertDispatcher {
	if m == nil {
		return nil
	}
	return m.alerts
}

func (m *Monitor) registerHandlers() {
	reviewMarkup := &tele.ReplyMarkup{}
	btnConfirm := reviewMarkup.Data("Confirm", "review_confirm", "")
	btnDiscard := reviewMarkup.Data("Discard", "review_discard", "")

	m.bot.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	m.bot.Handle("/signals", func(c tele.Context) error {
		filter, err := parseSignalArgs(c.Args())
		if err != nil {
			return c.Send("Usage: /signals [TICKER] [confirmed|pending_review|discarded]")
		}
		signals, err := m.queries.ListSignals(context.Background(), filter)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching signals: %v", err))
		}
		if len(signals) == 0 {
			return c.Send("No matching signals right now.")
		}
		lines := make([]string, 0, len(signals)+1)
		lines = append(lines, "Latest signals:")
		for _, s := range signals {
			lines = append(lines, formatSignal(s))
		}
		return c.Send(strings.Join(lines, "\n"))
	})

	m.bot.Handle("/stats", func(c tele.Context) error {
		stats, err := m.queries.Stats(context.Background(), 24*time.Hour)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching stats: %v", err))
		}
		return c.Send(fmt.Sprintf(
			"Signals last 24h: %d\nLongs: %d\nShorts: %d\nAvg confidence: %.1f",
			stats.Total, stats.Longs, stats.Shorts, stats.AvgConfidence,
		))
	})

	m.bot.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}
		mode, err := parseAlertMode(c.Args())
		if err != nil {
			return c.Send("Usage: /alerts on | /alerts off | /alerts status")
		}
		switch mode {
		case "on":
			if m.alerts.Subscribe(chat.ID) {
				return c.Send("Signal alerts enabled for this chat.")
			}
			return c.Send("Signal alerts are already enabled for this chat.")
		case "off":
			if m.alerts.Unsubscribe(chat.ID) {
				return c.Send("Signal alerts disabled for this chat.")
			}
			return c.Send("Signal alerts are already disabled for this chat.")
		default:
			if m.alerts.IsSubscribed(chat.ID) {
				return c.Send("Alerts status: ON")
			}
			return c.Send("Alerts status: OFF")
		}
	})

	m.bot.Handle(&btnConfirm, func(c tele.Context) error {
		return m.handleReviewCallback(c, true)
	})
	m.bot.Handle(&btnDiscard, func(c tele.Context) error {
		return m.handleReviewCallback(c, false)
	})

	m.bot.Handle(tele.OnText, m.handleText)
	m.bot.Handle(tele.OnPhoto, m.handlePhoto)
}

func (m *Monitor) handleText(c tele.Context) error {
	msg := c.Message()
	if msg == nil || !m.watched(c) {
		return nil
	}
	first, err := m.dedupe.FirstSeen(context.Background(), msg.Chat.ID, int64(msg.ID))
	if err != nil {
		log.Printf("dedupe check failed for message %d: %v", msg.ID, err)
	}
	if !first {
		return nil
	}

	detected := DetectSignal(msg.Text)
	if detected == nil {
		return nil
	}
	detected.MessageID = int64(msg.ID)
	detected.Author = authorName(msg)
	detected.ChatID = msg.Chat.ID

	// No chart yet: remember the call and wait for the image.
	m.pending.put(msg.Chat.ID, detected)
	log.Printf("signal detected: %s %s in chat %d, awaiting chart", detected.Direction, detected.Ticker, msg.Chat.ID)
	return nil
}

func (m *Monitor) handlePhoto(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Photo == nil || !m.watched(c) {
		return nil
	}
	first, err := m.dedupe.FirstSeen(context.Background(), msg.Chat.ID, int64(msg.ID))
	if err != nil {
		log.Printf("dedupe check failed for message %d: %v", msg.ID, err)
	}
	if !first {
		return nil
	}

	detected := DetectSignal(msg.Caption)
	if detected != nil {
		detected.MessageID = int64(msg.ID)
		detected.Author = authorName(msg)
		detected.ChatID = msg.Chat.ID
	} else {
		detected = m.pending.take(msg.Chat.ID)
	}
	if detected == nil {
		return nil
	}

	imageBytes, err := m.downloadPhoto(msg.Photo)
	if err != nil {
		log.Printf("chart download failed for message %d: %v", msg.ID, err)
		return nil
	}
	image := domain.ChartImage{
		Bytes:     imageBytes,
		MimeType:  "image/jpeg",
		MessageID: int64(msg.ID),
	}

	// Extraction is slow; never block the poller on it.
	go m.process(*detected, image, msg.Chat)
	return nil
}

func (m *Monitor) process(detected domain.DetectedSignal, image domain.ChartImage, chat *tele.Chat) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	signal, err := m.processor.ProcessChart(ctx, detected, image)
	if err != nil {
		log.Printf("extraction pipeline error for %s: %v", detected.Ticker, err)
		return
	}
	if signal == nil || signal.Status != domain.StatusPendingReview {
		return
	}
	m.sendReviewPrompt(chat, *signal)
}

func (m *Monitor) sendReviewPrompt(chat *tele.Chat, s domain.Signal) {
	markup := &tele.ReplyMarkup{}
	id := strconv.FormatInt(s.ID, 10)
	markup.Inline(markup.Row(
		markup.Data("Confirm", "review_confirm", id),
		markup.Data("Discard", "review_discard", id),
	))
	text := fmt.Sprintf("Low-confidence signal, needs review:\n%s", formatSignal(s))
	if _, err := m.bot.Send(chat, text, markup); err != nil {
		log.Printf("review prompt send failed for signal %d: %v", s.ID, err)
	}
}

func (m *Monitor) handleReviewCallback(c tele.Context, confirm bool) error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Data()), 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Bad signal reference"})
	}
	signal, err := m.queries.Review(context.Background(), id, confirm)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Review failed: %v", err)})
	}
	if err := c.Edit(formatSignal(*signal)); err != nil {
		log.Printf("review prompt edit failed for signal %d: %v", id, err)
	}
	return c.Respond(&tele.CallbackResponse{Text: "Signal " + signal.Status})
}

// watched reports whether the message's chat and author are monitored.
func (m *Monitor) watched(c tele.Context) bool {
	msg := c.Message()
	if msg == nil || msg.Chat == nil {
		return false
	}
	if len(m.chats) > 0 {
		if _, ok := m.chats[msg.Chat.ID]; !ok {
			return false
		}
	}
	if len(m.authors) > 0 {
		if _, ok := m.authors[strings.ToLower(authorName(msg))]; !ok {
			return false
		}
	}
	return true
}

func (m *Monitor) downloadPhoto(photo *tele.Photo) ([]byte, error) {
	rc, err := m.bot.File(&photo.File)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func authorName(msg *tele.Message) string {
	if msg.Sender == nil {
		return ""
	}
	if msg.Sender.Username != "" {
		return msg.Sender.Username
	}
	return strings.TrimSpace(msg.Sender.FirstName + " " + msg.Sender.LastName)
}

func toChatSet(ids []int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func toAuthorSet(authors []string) map[string]struct{} {
	out := make(map[string]struct{}, len(authors))
	for _, a := range authors {
		out[strings.ToLower(strings.TrimSpace(a))] = struct{}{}
	}
	return out
}

func parseSignalArgs(args []string) (domain.SignalFilter, error) {
	filter := domain.SignalFilter{Limit: 5}
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		switch strings.ToLower(arg) {
		case domain.StatusConfirmed, domain.StatusPendingReview, domain.StatusDiscarded:
			if filter.Status != "" {
				return domain.SignalFilter{}, fmt.Errorf("multiple statuses provided")
			}
			filter.Status = strings.ToLower(arg)
		default:
			if strings.HasPrefix(arg, "--") {
				return domain.SignalFilter{}, fmt.Errorf("unknown option")
			}
			if filter.Ticker != "" {
				return domain.SignalFilter{}, fmt.Errorf("multiple tickers provided")
			}
			filter.Ticker = strings.ToUpper(arg)
		}
	}
	return filter, nil
}

func formatSignal(s domain.Signal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %s %s %s", s.ID, s.Ticker, s.Direction, s.EntryType)
	if s.Entry != nil {
		fmt.Fprintf(&sb, " entry %s", formatPrice(*s.Entry))
	}
	if s.StopLoss != nil {
		fmt.Fprintf(&sb, " sl %s", formatPrice(*s.StopLoss))
	}
	if len(s.TakeProfits) > 0 {
		tps := make([]string, 0, len(s.TakeProfits))
		for _, tp := range s.TakeProfits {
			tps = append(tps, formatPrice(tp))
		}
		fmt.Fprintf(&sb, " tp %s", strings.Join(tps, "/"))
	}
	fmt.Fprintf(&sb, " conf %d [%s]", s.Confidence, s.Status)
	return sb.String()
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// pendingTracker remembers, per chat, the most recent trade call that is
// still waiting for its chart image.
type pendingTracker struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	byChat map[int64]*domain.DetectedSignal
}

func newPendingTracker(window time.Duration) *pendingTracker {
	if window <= 0 {
		window = defaultPendingWindow
	}
	return &pendingTracker{
		window: window,
		now:    time.Now,
		byChat: make(map[int64]*domain.DetectedSignal),
	}
}

func (t *pendingTracker) put(chatID int64, detected *domain.DetectedSignal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	detected.DetectedAt = t.now().UTC()
	t.byChat[chatID] = detected
}

// take removes and returns the pending signal for the chat if it is still
// within the window; expired entries are dropped.
func (t *pendingTracker) take(chatID int64) *domain.DetectedSignal {
	t.mu.Lock()
	defer t.mu.Unlock()
	detected, ok := t.byChat[chatID]
	if !ok {
		return nil
	}
	delete(t.byChat, chatID)
	if t.now().UTC().Sub(detected.DetectedAt) > t.window {
		return nil
	}
	return detected
}
