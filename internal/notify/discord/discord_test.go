package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwengye/bwengye/internal/notify"
	"github.com/bwmarrin/discordgo"
)

type mockSession struct {
	channel string
	embed   *discordgo.MessageEmbed
	err     error
}

func (m *mockSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.channel = channelID
	m.embed = embed
	return &discordgo.Message{}, m.err
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Opts{BotToken: "tok"}); err == nil {
		t.Error("expected error without channel")
	}
	if _, err := New(Opts{Channel: "123"}); err == nil {
		t.Error("expected error without token or injected session")
	}
	if _, err := New(Opts{Channel: "123", Session: &mockSession{}}); err != nil {
		t.Errorf("unexpected error with injected session: %v", err)
	}
}

func TestSend(t *testing.T) {
	mock := &mockSession{}
	n, err := New(Opts{Channel: "999", Session: mock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = n.Send(context.Background(), notify.Alert{
		Title:    "catalog empty",
		Body:     "no active models",
		Severity: notify.SeverityWarning,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if mock.channel != "999" {
		t.Errorf("channel = %q, want 999", mock.channel)
	}
	if mock.embed == nil || mock.embed.Title != "catalog empty" {
		t.Errorf("embed = %+v", mock.embed)
	}
	if mock.embed.Color != severityColors[notify.SeverityWarning] {
		t.Errorf("embed color = %d, want warning color", mock.embed.Color)
	}
}

func TestSend_APIFailure(t *testing.T) {
	n, err := New(Opts{Channel: "999", Session: &mockSession{err: errors.New("forbidden")}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Send(context.Background(), notify.Alert{Title: "t"}); err == nil {
		t.Error("expected error from failing API")
	}
}
