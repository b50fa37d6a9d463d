// Package telegram sends plain-text messages through the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aristath/newswatch/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Channel is the delivery channel name reported on deliveries and errors.
const Channel = "telegram"

// Client sends messages to one chat.
// The bot session is created on first use and retried on the next send if that fails.
type Client struct {
	token    string
	chatID   string
	endpoint string
	client   *http.Client
	log      zerolog.Logger

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewClient creates a client for chatID, which is either a numeric chat id
// or a public channel username.
func NewClient(token, chatID string, log zerolog.Logger) *Client {
	return &Client{
		token:    token,
		chatID:   strings.TrimSpace(chatID),
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log.With().Str("client", "telegram").Logger(),
	}
}

// SendText delivers text and returns the message id assigned by Telegram.
// Failures are returned as *domain.DeliveryError.
func (c *Client) SendText(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, &domain.DeliveryError{Channel: Channel, Message: err.Error(), Err: err}
	}

	bot, err := c.session()
	if err != nil {
		return 0, deliveryError(err)
	}

	msg, err := c.newMessage(text)
	if err != nil {
		return 0, &domain.DeliveryError{Channel: Channel, Message: err.Error(), Err: err}
	}

	// The session is shared; bind this request to ctx on a copy
	scoped := *bot
	scoped.Client = contextClient{ctx: ctx, client: c.client}

	sent, err := scoped.Send(msg)
	if err != nil {
		return 0, deliveryError(err)
	}

	c.log.Debug().Int("message_id", sent.MessageID).Msg("Message sent")
	return sent.MessageID, nil
}

func (c *Client) newMessage(text string) (tgbotapi.MessageConfig, error) {
	if c.chatID == "" {
		return tgbotapi.MessageConfig{}, errors.New("chat id is empty")
	}
	if id, err := strconv.ParseInt(c.chatID, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text), nil
	}
	username := c.chatID
	if !strings.HasPrefix(username, "@") {
		username = "@" + username
	}
	return tgbotapi.NewMessageToChannel(username, text), nil
}

func (c *Client) session() (*tgbotapi.BotAPI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bot != nil {
		return c.bot, nil
	}

	bot, err := tgbotapi.NewBotAPIWithClient(c.token, c.endpoint, c.client)
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("bot", bot.Self.UserName).Msg("Telegram session established")
	c.bot = bot
	return bot, nil
}

// contextClient issues every request under ctx so a cancelled send never
// reaches Telegram late.
type contextClient struct {
	ctx    context.Context
	client *http.Client
}

func (c contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}

func deliveryError(err error) *domain.DeliveryError {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return &domain.DeliveryError{Channel: Channel, Status: tgErr.Code, Message: tgErr.Message, Err: err}
	}
	return &domain.DeliveryError{Channel: Channel, Message: fmt.Sprintf("%v", err), Err: err}
}
