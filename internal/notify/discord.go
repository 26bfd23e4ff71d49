package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/wenchangshou/devicectl/internal/config"
)

// DiscordTarget delivers alerts to a single Discord channel via a bot
// session opened once at construction.
type DiscordTarget struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordTarget opens a Discord session for cfg. The session is opened
// eagerly so a bad token is caught at startup rather than on first alert.
func NewDiscordTarget(cfg config.DiscordNotificationConfig) (*DiscordTarget, error) {
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("discord: new session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord: open session: %w", err)
	}
	return &DiscordTarget{session: session, channelID: cfg.ChannelID}, nil
}

// Notify sends message as a plain text message to the configured channel.
func (t *DiscordTarget) Notify(ctx context.Context, message string) error {
	_, err := t.session.ChannelMessageSend(t.channelID, message)
	if err != nil {
		return fmt.Errorf("discord: send: %w", err)
	}
	return nil
}

// Close releases the underlying Discord session.
func (t *DiscordTarget) Close() error {
	return t.session.Close()
}
