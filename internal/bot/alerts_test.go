package bot

import (
	"errors"
	"strings"
	"testing"

	"chartwatch/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type stubSender struct {
	sent    []sentMessage
	sendErr error
}

type sentMessage struct {
	chatID int64
	text   string
}

func (s *stubSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	chat, ok := to.(*tele.Chat)
	if !ok {
		return nil, errors.New("unexpected recipient type")
	}
	text, _ := what.(string)
	s.sent = append(s.sent, sentMessage{chatID: chat.ID, text: text})
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &tele.Message{}, nil
}

func confirmedSignal() domain.Signal {
	entry := 64250.0
	return domain.Signal{
		ID:         7,
		Ticker:     "BTC",
		Direction:  domain.DirectionLong,
		EntryType:  domain.EntryTypeMarket,
		Entry:      &entry,
		Confidence: 82,
		Status:     domain.StatusConfirmed,
	}
}

func TestAlertDispatcherSubscribeLifecycle(t *testing.T) {
	d := NewAlertDispatcher(&stubSender{})

	if !d.Subscribe(1) {
		t.Fatal("expected first subscribe to succeed")
	}
	if d.Subscribe(1) {
		t.Fatal("expected duplicate subscribe to report already subscribed")
	}
	if !d.IsSubscribed(1) {
		t.Fatal("expected chat 1 to be subscribed")
	}
	if d.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", d.SubscriberCount())
	}
	if !d.Unsubscribe(1) {
		t.Fatal("expected unsubscribe to succeed")
	}
	if d.Unsubscribe(1) {
		t.Fatal("expected second unsubscribe to report not subscribed")
	}
}

func TestAlertDispatcherNotifySignal(t *testing.T) {
	sender := &stubSender{}
	d := NewAlertDispatcher(sender)
	d.Subscribe(20)
	d.Subscribe(10)

	d.NotifySignal(confirmedSignal())

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sender.sent))
	}
	// Deterministic chat order.
	if sender.sent[0].chatID != 10 || sender.sent[1].chatID != 20 {
		t.Fatalf("unexpected send order: %+v", sender.sent)
	}
	if !strings.HasPrefix(sender.sent[0].text, "New confirmed signal:") {
		t.Fatalf("unexpected alert text: %q", sender.sent[0].text)
	}
	if !strings.Contains(sender.sent[0].text, "#7 BTC LONG MARKET") {
		t.Fatalf("expected formatted signal in alert, got %q", sender.sent[0].text)
	}
}

func TestAlertDispatcherNotifySignalNoSubscribers(t *testing.T) {
	sender := &stubSender{}
	d := NewAlertDispatcher(sender)

	d.NotifySignal(confirmedSignal())

	if len(sender.sent) != 0 {
		t.Fatalf("expected no sends, got %d", len(sender.sent))
	}
}

func TestAlertDispatcherNotifySignalSendFailure(t *testing.T) {
	sender := &stubSender{sendErr: errors.New("blocked")}
	d := NewAlertDispatcher(sender)
	d.Subscribe(1)
	d.Subscribe(2)

	// Failures are logged per chat and must not stop the broadcast.
	d.NotifySignal(confirmedSignal())

	if len(sender.sent) != 2 {
		t.Fatalf("expected both sends attempted, got %d", len(sender.sent))
	}
}

func TestParseAlertMode(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want string
	}{
		{nil, "status"},
		{[]string{"on"}, "on"},
		{[]string{" OFF "}, "off"},
		{[]string{"status"}, "status"},
	} {
		got, err := parseAlertMode(tc.args)
		if err != nil {
			t.Fatalf("parseAlertMode(%v) error: %v", tc.args, err)
		}
		if got != tc.want {
			t.Fatalf("parseAlertMode(%v) = %q, want %q", tc.args, got, tc.want)
		}
	}
	if _, err := parseAlertMode([]string{"loud"}); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}
