package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"golang.org/x/time/rate"
)

// pollTimeout is the long-poll window sent to getUpdates.
const pollTimeout = 5 // seconds

// botAPI is the slice of the Telegram Bot API the dispatcher needs.
// Satisfied by *telego.Bot; tests substitute a fake.
type botAPI interface {
	GetUpdates(ctx context.Context, params *telego.GetUpdatesParams) ([]telego.Update, error)
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	SendChatAction(ctx context.Context, params *telego.SendChatActionParams) error
}

// Client wraps the bot API with outbound pacing and message chunking.
type Client struct {
	api     botAPI
	limiter *rate.Limiter
}

// NewClient connects a Client to the Bot API with the given token.
func NewClient(token string) (*Client, error) {
	bot, err := telego.NewBot(token, telego.WithDefaultLogger(false, true))
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return newClient(bot), nil
}

func newClient(api botAPI) *Client {
	// Telegram allows roughly 30 messages per second bot-wide.
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Every(time.Second/30), 5),
	}
}

// Poll long-polls for message updates starting at offset.
func (c *Client) Poll(ctx context.Context, offset int64) ([]telego.Update, error) {
	return c.api.GetUpdates(ctx, &telego.GetUpdatesParams{
		Offset:         int(offset),
		Timeout:        pollTimeout,
		AllowedUpdates: []string{"message"},
	})
}

// SendText delivers text to a chat, split into 4096-scalar chunks sent in
// order. Each chunk waits on the shared rate limiter.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := c.api.SendMessage(ctx, tu.Message(tu.ID(chatID), chunk)); err != nil {
			return fmt.Errorf("telegram: send message: %w", err)
		}
	}
	return nil
}

// SendTyping posts a single typing action to a chat.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	return c.api.SendChatAction(ctx, tu.ChatAction(tu.ID(chatID), telego.ChatActionTyping))
}
