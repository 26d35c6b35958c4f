package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"tooly/domain/interfaces"

	"github.com/bwmarrin/discordgo"
)

var _ interfaces.MessageChecker = (*DiscordMessageChecker)(nil)

// channelMessageFetcher is the part of *discordgo.Session the checker uses
type channelMessageFetcher interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordMessageChecker asks Discord whether a message still exists
type DiscordMessageChecker struct {
	session channelMessageFetcher
}

// NewDiscordMessageChecker creates a checker backed by a bot session
func NewDiscordMessageChecker(session channelMessageFetcher) *DiscordMessageChecker {
	return &DiscordMessageChecker{session: session}
}

// NewDiscordSession creates a bot session from a token without opening the gateway
func NewDiscordSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return session, nil
}

// MessageExists returns false only for Discord's unknown message and unknown
// channel errors. Any other failure is returned so the caller keeps the pointer.
func (c *DiscordMessageChecker) MessageExists(ctx context.Context, channelID, messageID string) (bool, error) {
	_, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err == nil {
		return true, nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return false, nil
		}
	}
	return false, fmt.Errorf("failed to fetch message %s in channel %s: %w", messageID, channelID, err)
}
