// Package notification renders analyzed items into alert messages and delivers them.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/newswatch/internal/domain"
	"github.com/rs/zerolog"
)

// Sender delivers a plain-text message and returns the channel's message id.
type Sender interface {
	SendText(ctx context.Context, text string) (int, error)
}

// Notifier implements domain.Notifier.
type Notifier struct {
	sender  Sender
	channel string
	now     func() time.Time
	log     zerolog.Logger
}

// NewNotifier creates a notifier delivering through sender to channel.
func NewNotifier(sender Sender, channel string, log zerolog.Logger) *Notifier {
	return &Notifier{
		sender:  sender,
		channel: channel,
		now:     time.Now,
		log:     log.With().Str("component", "notification").Str("channel", channel).Logger(),
	}
}

// Notify formats and sends one alert.
func (n *Notifier) Notify(ctx context.Context, item *domain.AnalyzedItem) (*domain.Delivery, error) {
	id, err := n.sender.SendText(ctx, FormatMessage(item))
	if err != nil {
		var deliveryErr *domain.DeliveryError
		if errors.As(err, &deliveryErr) {
			return nil, err
		}
		return nil, &domain.DeliveryError{Channel: n.channel, Message: err.Error(), Err: err}
	}

	n.log.Info().Str("ticker", item.Ticker()).Str("link", item.Link()).Msg("Alert sent")

	return &domain.Delivery{
		Channel:   n.channel,
		MessageID: id,
		SentAt:    n.now(),
	}, nil
}

// FormatMessage renders the alert text. Missing fields fall back to placeholders.
func FormatMessage(item *domain.AnalyzedItem) string {
	ticker := orDefault(item.Ticker(), "N/A")
	link := orDefault(item.Link(), "#")

	var title, summary string
	if item != nil && item.Item != nil {
		title = strings.TrimSpace(item.Item.Title)
		summary = item.Item.Summary
	}
	verdict := ""
	if item != nil {
		verdict = item.Verdict
	}
	body := orDefault(verdict, orDefault(summary, "No summary available."))

	score := "N/A"
	if item != nil && item.Score != nil {
		score = fmt.Sprintf("%d/5", *item.Score)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📰 New news for %s:\n\n", ticker)
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Summary: %s\n\n", body)
	fmt.Fprintf(&b, "Read more: %s\n\n", link)
	fmt.Fprintf(&b, "Impact score: %s", score)
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}
