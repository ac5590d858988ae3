package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var newBotAPI = tgbotapi.NewBotAPI

// BotAPI is the subset of the bot client used by the adapter
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Client sends messages and answers membership queries for one gated channel
type Client struct {
	api       BotAPI
	channelID int64
	username  string
}

// NewClient connects to the Bot API with token
func NewClient(token string, channelID int64) (*Client, *tgbotapi.BotAPI, error) {
	bot, err := newBotAPI(token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create bot client: %w", err)
	}
	return NewClientWithAPI(bot, channelID, bot.Self.UserName), bot, nil
}

// NewClientWithAPI wraps an existing API implementation
func NewClientWithAPI(api BotAPI, channelID int64, username string) *Client {
	return &Client{api: api, channelID: channelID, username: username}
}

// Username is the bot's public handle, used to build referral links
func (c *Client) Username() string {
	return c.username
}

// ChannelID is the gated channel
func (c *Client) ChannelID() int64 {
	return c.channelID
}

// ReferralLink returns the deep link that registers userID as referrer
func (c *Client) ReferralLink(userID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", c.username, userID)
}

// IsMember reports whether userID belongs to the gated channel
func (c *Client) IsMember(ctx context.Context, userID int64) (bool, error) {
	if c.channelID == 0 {
		return false, errors.New("gated channel not configured")
	}

	var member tgbotapi.ChatMember
	err := call(ctx, func() error {
		var err error
		member, err = c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				ChatID: c.channelID,
				UserID: userID,
			},
		})
		return err
	})
	if err != nil {
		return false, err
	}
	return isMemberStatus(member), nil
}

func isMemberStatus(member tgbotapi.ChatMember) bool {
	switch member.Status {
	case "creator", "administrator", "member":
		return true
	case "restricted":
		return member.IsMember
	default:
		return false
	}
}

// Send delivers an HTML formatted message
func (c *Client) Send(ctx context.Context, userID int64, text string) error {
	return c.SendWithKeyboard(ctx, userID, text, nil)
}

// SendWithKeyboard delivers an HTML formatted message with optional inline buttons
func (c *Client) SendWithKeyboard(ctx context.Context, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	return call(ctx, func() error {
		_, err := c.api.Send(msg)
		return err
	})
}

// AnswerCallback acknowledges a button press so the client stops its spinner
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return call(ctx, func() error {
		_, err := c.api.Request(tgbotapi.NewCallback(callbackID, text))
		return err
	})
}

// call runs a blocking Bot API request and gives up when ctx ends.
// The request itself keeps running until the HTTP client returns.
func call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
