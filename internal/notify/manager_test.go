package notify

import (
	"context"
	"errors"
	"os"
	"testing"

	"roulette-server/common/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	os.Exit(m.Run())
}

type fakeChannel struct {
	name      string
	available bool
	err       error
	sent      []*Message
}

func (f *fakeChannel) Name() string    { return f.name }
func (f *fakeChannel) Available() bool { return f.available }
func (f *fakeChannel) Send(_ context.Context, msg *Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestManagerSendFirstChannelWins(t *testing.T) {
	first := &fakeChannel{name: "email", available: true}
	second := &fakeChannel{name: "inapp", available: true}
	m := NewManager(first, second)

	msg := &Message{UserID: 7, Email: "a@b.c", Kind: "winner", Title: "t", Body: "b"}
	if err := m.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(first.sent) != 1 {
		t.Fatalf("first channel sent = %d, want 1", len(first.sent))
	}
	if len(second.sent) != 0 {
		t.Fatalf("second channel should not be used, sent = %d", len(second.sent))
	}
}

func TestManagerSendFallsBackOnFailure(t *testing.T) {
	first := &fakeChannel{name: "email", available: true, err: errors.New("smtp down")}
	second := &fakeChannel{name: "inapp", available: true}
	m := NewManager(first, second)

	if err := m.Send(context.Background(), &Message{UserID: 7, Kind: "winner"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(second.sent) != 1 {
		t.Fatalf("fallback channel sent = %d, want 1", len(second.sent))
	}
}

func TestManagerSendSkipsUnavailable(t *testing.T) {
	first := &fakeChannel{name: "email", available: false}
	second := &fakeChannel{name: "inapp", available: true}
	m := NewManager(first, second)

	if err := m.Send(context.Background(), &Message{UserID: 7, Kind: "winner"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(second.sent) != 1 {
		t.Fatalf("available channel sent = %d, want 1", len(second.sent))
	}
}

func TestManagerSendAllFail(t *testing.T) {
	first := &fakeChannel{name: "email", available: true, err: errors.New("smtp down")}
	second := &fakeChannel{name: "inapp", available: true, err: errors.New("db down")}
	m := NewManager(first, second)

	err := m.Send(context.Background(), &Message{UserID: 7, Kind: "winner"})
	if err != ErrAllChannelsFailed {
		t.Fatalf("err = %v, want ErrAllChannelsFailed", err)
	}
}

func TestManagerSendNoRecipientFallsThrough(t *testing.T) {
	// 邮件渠道对无邮箱消息不适用，应降级到站内信
	first := &fakeChannel{name: "email", available: true, err: ErrNoRecipient}
	second := &fakeChannel{name: "inapp", available: true}
	m := NewManager(first, second)

	if err := m.Send(context.Background(), &Message{UserID: 7, Kind: "registered"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(second.sent) != 1 {
		t.Fatalf("inapp sent = %d, want 1", len(second.sent))
	}
}

func TestManagerSendAllHitsEveryChannel(t *testing.T) {
	first := &fakeChannel{name: "email", available: true}
	second := &fakeChannel{name: "inapp", available: true}
	m := NewManager(first, second)

	if err := m.SendAll(context.Background(), &Message{UserID: 7, Email: "a@b.c", Kind: "winner"}); err != nil {
		t.Fatalf("SendAll: %v", err)
	}
	if len(first.sent) != 1 || len(second.sent) != 1 {
		t.Fatalf("sent = (%d, %d), want (1, 1)", len(first.sent), len(second.sent))
	}
}

func TestNewManagerFromOrder(t *testing.T) {
	email := &fakeChannel{name: "email", available: true}
	inapp := &fakeChannel{name: "inapp", available: true}
	avail := map[string]Channel{"email": email, "inapp": inapp}

	m := NewManagerFromOrder([]string{"inapp", "email", "sms"}, avail)
	if len(m.channels) != 2 {
		t.Fatalf("channels = %d, want 2", len(m.channels))
	}
	if m.channels[0].Name() != "inapp" || m.channels[1].Name() != "email" {
		t.Fatalf("order = [%s, %s], want [inapp, email]", m.channels[0].Name(), m.channels[1].Name())
	}
}
