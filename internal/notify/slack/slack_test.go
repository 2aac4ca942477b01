package slack

import (
	"context"
	"errors"
	"testing"

	"github.com/bwengye/bwengye/internal/notify"
	slackapi "github.com/slack-go/slack"
)

type mockClient struct {
	channel string
	options int
	err     error
}

func (m *mockClient) PostMessageContext(_ context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.channel = channelID
	m.options = len(options)
	return "C1", "123.456", m.err
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Opts{BotToken: "xoxb-1"}); err == nil {
		t.Error("expected error without channel")
	}
	if _, err := New(Opts{Channel: "C1"}); err == nil {
		t.Error("expected error without token or injected client")
	}
	if _, err := New(Opts{Channel: "C1", Client: &mockClient{}}); err != nil {
		t.Errorf("unexpected error with injected client: %v", err)
	}
}

func TestSend(t *testing.T) {
	mock := &mockClient{}
	n, err := New(Opts{Channel: "C0ALERTS", Client: mock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = n.Send(context.Background(), notify.Alert{
		Title:    "reply not persisted",
		Body:     "conversation abc",
		Severity: notify.SeverityError,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if mock.channel != "C0ALERTS" {
		t.Errorf("channel = %q, want C0ALERTS", mock.channel)
	}
	if mock.options == 0 {
		t.Error("expected at least one message option")
	}
}

func TestSend_APIFailure(t *testing.T) {
	n, err := New(Opts{Channel: "C1", Client: &mockClient{err: errors.New("rate limited")}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Send(context.Background(), notify.Alert{Title: "t"}); err == nil {
		t.Error("expected error from failing API")
	}
}
