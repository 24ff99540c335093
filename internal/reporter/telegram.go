package reporter

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/config"
)

// telegram rejects messages longer than this
const maxMessageLen = 4096

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	bot    botSender
	chatID int64
	logger *zap.Logger
}

func NewTelegramNotifier(cfg config.TelegramConfig, logger *zap.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: cfg.ChatID, logger: logger}, nil
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// inside a MarkdownV2 link target only ')' and '\' need escaping
func escapeLink(url string) string {
	return strings.NewReplacer("\\", "\\\\", ")", "\\)").Replace(url)
}

// FormatTelegram renders one MarkdownV2 block per site.
func FormatTelegram(groups []SiteJobs) []string {
	var msgs []string
	for _, g := range groups {
		if len(g.Jobs) == 0 {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "🏢 *%s* \\(%d jobs\\)\n\n", escapeMarkdown(strings.ToUpper(g.Site)), len(g.Jobs))
		for _, j := range g.Jobs {
			var entry strings.Builder
			fmt.Fprintf(&entry, "• [%s](%s)\n", escapeMarkdown(j.Title), escapeLink(j.URL))
			fmt.Fprintf(&entry, "🆔 %s\n", escapeMarkdown(j.JobID))
			if present(j.Location) {
				fmt.Fprintf(&entry, "📍 %s\n", escapeMarkdown(j.Location))
			}
			if present(j.PostedDate) {
				fmt.Fprintf(&entry, "📅 %s\n", escapeMarkdown(j.PostedDate))
			}
			entry.WriteString("\n")

			if b.Len()+entry.Len() > maxMessageLen {
				msgs = append(msgs, b.String())
				b.Reset()
			}
			b.WriteString(entry.String())
		}
		msgs = append(msgs, b.String())
	}
	return msgs
}

func (t *TelegramNotifier) SendJobs(ctx context.Context, groups []SiteJobs) bool {
	if Total(groups) == 0 {
		return false
	}
	for _, text := range FormatTelegram(groups) {
		if ctx.Err() != nil {
			return false
		}
		msg := tgbotapi.NewMessage(t.chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Error("❌ Error sending telegram message", zap.Error(err))
			return false
		}
	}
	t.logger.Info("✅ Telegram digest sent", zap.Int("jobs", Total(groups)))
	return true
}

func (t *TelegramNotifier) SendFailure(_ context.Context, site, detail string) bool {
	text := fmt.Sprintf("❌ Job Scraper Failed - %s\n\n%s", strings.ToUpper(site), detail)
	if len(text) > maxMessageLen {
		text = strings.ToValidUTF8(text[:maxMessageLen], "")
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		t.logger.Error("❌ Error sending telegram failure", zap.Error(err))
		return false
	}
	return true
}
