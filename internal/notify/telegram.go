package notify

import (
	"context"
	"fmt"
	"log/slog"

	"newsdesk/internal/domain"

	"github.com/go-telegram/bot"
)

// Telegram posts a one-line message to a single chat when an article is
// ingested. Entirely optional; the service runs without it.
type Telegram struct {
	bot    *bot.Bot
	chatID int64
	log    *slog.Logger
}

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &Telegram{bot: b, chatID: chatID, log: log}, nil
}

// ArticleCreated sends the notification. Failures are logged, never
// propagated.
func (t *Telegram) ArticleCreated(ctx context.Context, article domain.Article) {
	text := fmt.Sprintf("New article #%d: %s\n%s", article.ID, article.Title, article.URL)

	if _, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   text,
	}); err != nil {
		t.log.WarnContext(ctx, "Failed to send Telegram notification",
			"error", err,
			"articleID", article.ID,
			"chatID", t.chatID)
	}
}
