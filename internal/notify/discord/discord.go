// Package discord implements the notify.Notifier for Discord.
package discord

import (
	"context"
	"fmt"

	"github.com/bwengye/bwengye/internal/notify"
	"github.com/bwmarrin/discordgo"
)

// severityColors map alert severities to embed colors.
var severityColors = map[string]int{
	notify.SeverityInfo:    0x439fe0,
	notify.SeverityWarning: 0xf2c744,
	notify.SeverityError:   0xd00000,
}

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts alerts to a Discord channel.
type Notifier struct {
	sess    session
	channel string
}

// Opts holds parameters for creating a Discord Notifier.
type Opts struct {
	BotToken string // Discord bot token
	Channel  string // channel ID to post alerts to
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Notifier.
func New(opts Opts) (*Notifier, error) {
	if opts.Channel == "" {
		return nil, fmt.Errorf("discord: channel is required")
	}
	sess := opts.Session
	if sess == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("discord: bot token is required")
		}
		dg, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		sess = dg
	}
	return &Notifier{sess: sess, channel: opts.Channel}, nil
}

// Send posts the alert as an embed. The REST call needs no gateway
// connection, so alerts work without opening a websocket.
func (n *Notifier) Send(ctx context.Context, alert notify.Alert) error {
	embed := &discordgo.MessageEmbed{
		Title:       alert.Title,
		Description: alert.Body,
		Color:       severityColors[alert.Severity],
	}
	_, err := n.sess.ChannelMessageSendEmbed(n.channel, embed, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: post alert %q: %w", alert.Title, err)
	}
	return nil
}
