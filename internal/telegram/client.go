// Package telegram provides a client for sending notifications via Telegram Bot API.
// It posts a digest after a synthetic dataset has been generated: the run
// identity, the generated window, and the per-country totals.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/covidsynth/internal/dataset"
	"github.com/rewired-gh/covidsynth/internal/models"
)

// Client handles Telegram notifications
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
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

// SendReport posts a generation digest for report and the country summaries
func (c *Client) SendReport(report *dataset.Report, summaries []models.CountrySummary) error {
	msg := tgbotapi.NewMessage(c.chatID, formatMessage(report, summaries))
	msg.ParseMode = "MarkdownV2"

	// Send with retry
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage renders the digest in MarkdownV2
func formatMessage(report *dataset.Report, summaries []models.CountrySummary) string {
	var b strings.Builder

	b.WriteString("🦠 *Synthetic COVID\\-19 dataset generated*\n\n")
	b.WriteString(fmt.Sprintf("🆔 Run: `%s`\n", report.RunID))
	b.WriteString(fmt.Sprintf("🎲 Seed: %d\n", report.Seed))
	b.WriteString(fmt.Sprintf("📅 Window: %s → %s\n",
		escapeMarkdownV2(report.Start.Format(models.DateLayout)),
		escapeMarkdownV2(report.End.Format(models.DateLayout))))
	b.WriteString(fmt.Sprintf("🧾 Records: %s in %d batches \\(%s\\)\n\n",
		escapeMarkdownV2(humanize.Comma(int64(report.Records))), report.Batches,
		escapeMarkdownV2(formatDuration(report.Duration))))

	for i, s := range summaries {
		b.WriteString(fmt.Sprintf("%d\\. *%s*\n", i+1, escapeMarkdownV2(s.Country)))
		b.WriteString(fmt.Sprintf("   Cases: %s · Deaths: %s\n",
			escapeMarkdownV2(humanize.Comma(s.TotalCases)),
			escapeMarkdownV2(humanize.Comma(s.TotalDeaths))))
		b.WriteString(fmt.Sprintf("   Fully vaccinated: %s\n",
			escapeMarkdownV2(fmt.Sprintf("%.1f%%", s.VaccinationRate()))))
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d >= time.Second {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
