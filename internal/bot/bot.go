package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prodlog/voe-tracker/internal/export"
	"github.com/prodlog/voe-tracker/internal/ingest"
	"github.com/prodlog/voe-tracker/internal/tracking"
)

// API is the subset of *tgbotapi.BotAPI the bot talks to.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetFileDirectURL(fileID string) (string, error)
}

type Bot struct {
	api     API
	log     *slog.Logger
	svc     *tracking.Service
	exp     *export.Assembler
	allowed map[int64]bool
	fetch   func(url string) ([]byte, error)
	codec   *pairCodec
}

// New builds a bot. With an empty allowedChats every chat may use it.
func New(api API, log *slog.Logger, svc *tracking.Service, exp *export.Assembler, allowedChats []int64) *Bot {
	allowed := make(map[int64]bool, len(allowedChats))
	for _, id := range allowedChats {
		allowed[id] = true
	}
	return &Bot{api: api, log: log, svc: svc, exp: exp, allowed: allowed, fetch: httpGet, codec: newPairCodec(log)}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handle(ctx, upd)
		}
	}
}

func (b *Bot) handle(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		if !b.permitted(upd.Message.Chat) {
			b.log.Warn("message from unknown chat", "chat_id", upd.Message.Chat.ID)
			return
		}
		b.onMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		if upd.CallbackQuery.Message == nil || !b.permitted(upd.CallbackQuery.Message.Chat) {
			return
		}
		b.onCallback(ctx, upd.CallbackQuery)
	}
}

func (b *Bot) permitted(chat *tgbotapi.Chat) bool {
	if chat == nil {
		return false
	}
	return len(b.allowed) == 0 || b.allowed[chat.ID]
}

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Document != nil {
		b.handleUpload(ctx, msg.Chat.ID, msg.Document)
		return
	}
	b.handleCommand(ctx, msg.Chat.ID, commandOf(msg.Text))
}

// commandOf turns "/logistik@voe_bot extra" or a reply-keyboard label into a
// bare command name.
func commandOf(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	if c, ok := labelCommands[strings.TrimSpace(text)]; ok {
		return c
	}
	return strings.ToLower(cmd)
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) handleUpload(ctx context.Context, chatID int64, doc *tgbotapi.Document) {
	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".xlsx") {
		b.reply(chatID, "Bitte eine .xlsx-Datei senden.")
		return
	}
	data, err := b.downloadTelegramFile(doc.FileID)
	if err != nil {
		b.log.Error("download upload failed", "file", doc.FileName, "err", err)
		b.reply(chatID, "Datei konnte nicht geladen werden.")
		return
	}
	rows, err := ingest.Parse(bytes.NewReader(data))
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Datei konnte nicht gelesen werden: %v", err))
		return
	}
	res, err := b.svc.Upload(ctx, rows)
	if err != nil {
		b.log.Error("upload failed", "file", doc.FileName, "err", err)
		b.reply(chatID, fmt.Sprintf("Import fehlgeschlagen: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf(
		"Import abgeschlossen.\nNeue Positionen: %d\nAusgelieferte entfernt: %d\nTagesabschlüsse zurückgesetzt: %d",
		res.Inserted, res.DeletedDelivered, res.ClearedClosures,
	))
}

// downloadTelegramFile fetches a file by its FileID.
func (b *Bot) downloadTelegramFile(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}
	return b.fetch(url)
}

func httpGet(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram returned status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
