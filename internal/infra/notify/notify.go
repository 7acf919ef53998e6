package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	ErrNoRecipients = errors.New("notify: no recipients configured")
	// ErrDisabled means no channel is configured; nothing was delivered.
	ErrDisabled = errors.New("notify: delivery disabled")
)

// Message is one notification, optionally with a file attached.
type Message struct {
	Subject  string
	Body     string
	FileName string
	Data     []byte
}

type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers messages to a fixed list of chats.
type Telegram struct {
	api     Sender
	chatIDs []int64
	log     *slog.Logger
}

func NewTelegram(api Sender, chatIDs []int64, log *slog.Logger) *Telegram {
	return &Telegram{api: api, chatIDs: chatIDs, log: log}
}

// Notify sends m to every chat. A failing chat does not stop the others; all
// failures are joined into the returned error.
func (t *Telegram) Notify(ctx context.Context, m Message) error {
	if len(t.chatIDs) == 0 {
		return ErrNoRecipients
	}

	caption := strings.TrimSpace(m.Subject + "\n" + m.Body)
	var errs []error
	for _, id := range t.chatIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := t.api.Send(build(id, caption, m)); err != nil {
			t.log.Error("telegram notify failed", "chat_id", id, "err", err)
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
			continue
		}
		t.log.Debug("telegram notify sent", "chat_id", id, "file", m.FileName)
	}
	return errors.Join(errs...)
}

func build(chatID int64, caption string, m Message) tgbotapi.Chattable {
	if len(m.Data) == 0 {
		return tgbotapi.NewMessage(chatID, caption)
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  m.FileName,
		Bytes: m.Data,
	})
	doc.Caption = caption
	return doc
}

// Noop stands in when no notification channel is configured. It never
// delivers, so callers must not treat its messages as sent.
type Noop struct{ log *slog.Logger }

func NewNoop(log *slog.Logger) *Noop { return &Noop{log: log} }

func (n *Noop) Notify(_ context.Context, m Message) error {
	n.log.Warn("notification skipped, no channel configured", "subject", m.Subject, "file", m.FileName, "bytes", len(m.Data))
	return ErrDisabled
}
