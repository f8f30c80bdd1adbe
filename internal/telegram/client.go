// Package telegram provides a client for sending deal alerts via Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/calebwyatt/dealscout/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	}
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError sends a monitoring error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ *Monitoring error*\n`%s`", escapeMarkdownV2(cycleErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Monitoring recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// SendAlert sends a single deal alert notification.
func (c *Client) SendAlert(alert models.DealAlert) error {
	return c.sendMarkdownV2(formatAlert(alert))
}

// formatAlert formats a deal alert into a Telegram MarkdownV2 message.
func formatAlert(alert models.DealAlert) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔥 *Deal Alert: %d/100*\n\n", alert.Score.Total))

	title := escapeMarkdownV2(alert.Listing.Title)
	if alert.Listing.ViewURL != "" {
		b.WriteString(fmt.Sprintf("[%s](%s)\n", title, alert.Listing.ViewURL))
	} else {
		b.WriteString(title + "\n")
	}

	priceStr := escapeMarkdownV2(fmt.Sprintf("$%.2f", alert.Listing.Price))
	b.WriteString(fmt.Sprintf("💰 *%s*", priceStr))
	if alert.Listing.Category != models.CategoryUnknown {
		b.WriteString(fmt.Sprintf(" · %s", escapeMarkdownV2(string(alert.Listing.Category))))
	}
	b.WriteString("\n")

	if alert.Listing.SellerID != "" {
		b.WriteString(fmt.Sprintf("👤 %s\n", escapeMarkdownV2(alert.Listing.SellerID)))
	}

	if len(alert.Score.Signals) > 0 {
		b.WriteString("\n")
		for _, sig := range alert.Score.Signals {
			b.WriteString(fmt.Sprintf("• %s\n", escapeMarkdownV2(sig)))
		}
	}

	if len(alert.Score.Breakdown) > 0 {
		keys := make([]string, 0, len(alert.Score.Breakdown))
		for k := range alert.Score.Breakdown {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n")
		for _, k := range keys {
			v := alert.Score.Breakdown[k]
			b.WriteString(escapeMarkdownV2(fmt.Sprintf("%s: %+d", k, v)) + "\n")
		}
	}

	if alert.Race != nil {
		b.WriteString(fmt.Sprintf("\n🏁 %s beat %s by %dms\n",
			escapeMarkdownV2(string(alert.Race.Winner)),
			escapeMarkdownV2(string(alert.Race.Loser)),
			alert.Race.AdvantageMS))
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
