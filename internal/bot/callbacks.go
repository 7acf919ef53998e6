package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/prodlog/voe-tracker/internal/tracking"
)

// Callback prefixes. A bare prefix opens the detail view; the *Mark variants
// carry a bundle index.
const (
	cbProduction     = "p"
	cbProductionMark = "pd"
	cbLogistics      = "l"
	cbLogisticsMark  = "lp"
)

func refreshPrefix(prefix string) string {
	if prefix == cbLogisticsMark {
		return cbLogistics
	}
	return cbProduction
}

// maxCallbackData is Telegram's limit for inline button payloads.
const maxCallbackData = 64

// pairCodec packs prefix|batch|date[|idx] into callback data. A pair that
// would not fit is replaced by a short id derived from its batch and date;
// short ids only resolve within the process that issued them.
type pairCodec struct {
	mu    sync.Mutex
	short map[string]tracking.Pair
	log   *slog.Logger
}

func newPairCodec(log *slog.Logger) *pairCodec {
	return &pairCodec{short: map[string]tracking.Pair{}, log: log}
}

func withIndex(s string, idx int) string {
	if idx >= 0 {
		s += "|" + strconv.Itoa(idx)
	}
	return s
}

func (c *pairCodec) encode(prefix string, p tracking.Pair, idx int) string {
	s := withIndex(prefix+"|"+p.BatchID+"|"+p.StartDate, idx)
	if len(s) <= maxCallbackData {
		return s
	}
	id := shortPrefix + uuid.NewSHA1(uuid.NameSpaceOID, []byte(p.BatchID+"|"+p.StartDate)).String()
	c.mu.Lock()
	c.short[id] = p
	c.mu.Unlock()
	c.log.Warn("callback data too long, using short id", "batch", p.BatchID, "start_bft", p.StartDate, "bytes", len(s))
	return withIndex(prefix+"|"+id, idx)
}

const shortPrefix = "#"

func (c *pairCodec) decode(s string) (prefix string, p tracking.Pair, idx int, ok bool) {
	parts := strings.Split(s, "|")
	if len(parts) < 2 || len(parts) > 4 || parts[1] == "" {
		return "", p, 0, false
	}

	var rest []string
	if strings.HasPrefix(parts[1], shortPrefix) {
		c.mu.Lock()
		p, ok = c.short[parts[1]]
		c.mu.Unlock()
		if !ok {
			return "", p, 0, false
		}
		rest = parts[2:]
	} else {
		if len(parts) < 3 {
			return "", p, 0, false
		}
		p = tracking.Pair{BatchID: parts[1], StartDate: parts[2]}
		rest = parts[3:]
	}
	if len(rest) > 1 {
		return "", tracking.Pair{}, 0, false
	}

	idx = -1
	if len(rest) == 1 {
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 0 {
			return "", tracking.Pair{}, 0, false
		}
		idx = n
	}
	return parts[0], p, idx, true
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.log.Error("answer callback failed", "err", err)
	}
}

func (b *Bot) onCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID

	prefix, pair, idx, ok := b.codec.decode(cb.Data)
	if !ok {
		b.answerCallback(cb, "Unbekannte Aktion")
		return
	}

	switch prefix {
	case cbProduction:
		b.showProductionDetail(ctx, chatID, msgID, pair, "")
		b.answerCallback(cb, "")
	case cbLogistics:
		b.showLogisticsDetail(ctx, chatID, msgID, pair, "")
		b.answerCallback(cb, "")
	case cbProductionMark:
		d, err := b.svc.ProductionDetail(ctx, pair.BatchID, pair.StartDate)
		if err != nil || idx < 0 || idx >= len(d.Bundles) {
			b.answerCallback(cb, "Ansicht veraltet, bitte aktualisieren")
			return
		}
		res, err := b.svc.MarkProduced(ctx, pair.BatchID, pair.StartDate, d.Bundles[idx].RowKeys)
		if err != nil {
			b.log.Error("mark produced failed", "batch", pair.BatchID, "err", err)
			b.answerCallback(cb, "Fehler beim Speichern")
			return
		}
		b.showProductionDetail(ctx, chatID, msgID, pair, actionNote("gefertigt", res))
		b.answerCallback(cb, "Gespeichert")
	case cbLogisticsMark:
		d, err := b.svc.LogisticsDetail(ctx, pair.BatchID, pair.StartDate)
		if err != nil || idx < 0 || idx >= len(d.Bundles) {
			b.answerCallback(cb, "Ansicht veraltet, bitte aktualisieren")
			return
		}
		res, err := b.svc.MarkPicked(ctx, pair.BatchID, pair.StartDate, d.Bundles[idx].RowKeys)
		if err != nil {
			b.log.Error("mark picked failed", "batch", pair.BatchID, "err", err)
			b.answerCallback(cb, "Fehler beim Speichern")
			return
		}
		b.showLogisticsDetail(ctx, chatID, msgID, pair, actionNote("kommissioniert", res))
		b.answerCallback(cb, "Gespeichert")
	default:
		b.answerCallback(cb, "Unbekannte Aktion")
	}
}

func actionNote(verb string, res tracking.ActionResult) string {
	note := fmt.Sprintf("%d Position(en) %s.", res.Updated, verb)
	if res.Closed {
		note += " Kürzel abgeschlossen ✅"
	}
	return note
}

func bundleLine(bd tracking.Bundle) string {
	icon := "⏳"
	switch {
	case bd.Done:
		icon = "✔"
	case bd.DoneCount > 0:
		icon = "🛠"
	}
	return fmt.Sprintf("%s %s Ø%g × %g %s · %d Stk", icon, bd.ArticleCode, bd.Diameter, bd.Length, bd.BendType, bd.Quantity)
}

func (b *Bot) showProductionDetail(ctx context.Context, chatID int64, msgID int, p tracking.Pair, note string) {
	d, err := b.svc.ProductionDetail(ctx, p.BatchID, p.StartDate)
	if err != nil {
		b.log.Error("production detail failed", "batch", p.BatchID, "err", err)
		b.send(tgbotapi.NewEditMessageText(chatID, msgID, "Fehler beim Laden."))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Produktion %s", d.Status.Icon(), pairLabel(p))
	for _, bd := range d.Bundles {
		sb.WriteString("\n" + bundleLine(bd))
	}
	if note != "" {
		sb.WriteString("\n\n" + note)
	}
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, sb.String(),
		bundleKeyboard(b.codec, cbProductionMark, p, d.Bundles)))
}

func (b *Bot) showLogisticsDetail(ctx context.Context, chatID int64, msgID int, p tracking.Pair, note string) {
	d, err := b.svc.LogisticsDetail(ctx, p.BatchID, p.StartDate)
	if err != nil {
		b.log.Error("logistics detail failed", "batch", p.BatchID, "err", err)
		b.send(tgbotapi.NewEditMessageText(chatID, msgID, "Fehler beim Laden."))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Logistik %s", d.Status.Icon(), pairLabel(p))
	for _, bd := range d.Bundles {
		sb.WriteString("\n" + bundleLine(bd))
	}
	if c := d.ProductionCarrier; c != nil {
		state := "in Arbeit"
		if d.ProductionDone {
			state = "fertig"
		}
		if c.Delivered {
			state = "ausgeliefert"
		}
		fmt.Fprintf(&sb, "\n\nProduktion: %d Stk, %s", c.Quantity, state)
	}
	if c := d.LogisticsCarrier; c != nil {
		fmt.Fprintf(&sb, "\nBereit zur Auslieferung: %d Stk", c.Quantity)
	}
	if note != "" {
		sb.WriteString("\n\n" + note)
	}
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, sb.String(),
		bundleKeyboard(b.codec, cbLogisticsMark, p, d.Bundles)))
}
