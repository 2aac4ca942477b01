// Package slack implements the notify.Notifier for Slack.
package slack

import (
	"context"
	"fmt"

	"github.com/bwengye/bwengye/internal/notify"
	slackapi "github.com/slack-go/slack"
)

// severityColors map alert severities to attachment sidebar colors.
var severityColors = map[string]string{
	notify.SeverityInfo:    "#439fe0",
	notify.SeverityWarning: "#f2c744",
	notify.SeverityError:   "#d00000",
}

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Notifier posts alerts to a Slack channel via the Web API.
type Notifier struct {
	client  slackClient
	channel string
}

// Opts holds parameters for creating a Slack Notifier.
type Opts struct {
	BotToken string // xoxb-... bot token
	Channel  string // channel ID to post alerts to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Notifier.
func New(opts Opts) (*Notifier, error) {
	if opts.Channel == "" {
		return nil, fmt.Errorf("slack: channel is required")
	}
	client := opts.Client
	if client == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("slack: bot token is required")
		}
		client = slackapi.New(opts.BotToken)
	}
	return &Notifier{client: client, channel: opts.Channel}, nil
}

// Send posts the alert as a colored attachment.
func (n *Notifier) Send(ctx context.Context, alert notify.Alert) error {
	attachment := slackapi.Attachment{
		Title: alert.Title,
		Text:  alert.Body,
		Color: severityColors[alert.Severity],
	}
	_, _, err := n.client.PostMessageContext(ctx, n.channel, slackapi.MsgOptionAttachments(attachment))
	if err != nil {
		return fmt.Errorf("slack: post alert %q: %w", alert.Title, err)
	}
	return nil
}
