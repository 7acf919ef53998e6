package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/prodlog/voe-tracker/internal/tracking"
)

const (
	cmdStart      = "start"
	cmdHelp       = "hilfe"
	cmdProduction = "produktion"
	cmdLogistics  = "logistik"
	cmdOverview   = "uebersicht"
	cmdClosures   = "abschluss"
	cmdExport     = "export"
)

const helpText = `VOE Kommissionierung
/produktion – offene Produktionsaufträge
/logistik – offene Kommissionierungen
/uebersicht – Gesamtstatus aller Kürzel
/abschluss – heutige Tagesabschlüsse
/export – Tagesabschluss als Excel
Eine .xlsx-Datei senden, um neue Aufträge zu importieren.`

func (b *Bot) handleCommand(ctx context.Context, chatID int64, cmd string) {
	switch cmd {
	case cmdStart, cmdHelp:
		msg := tgbotapi.NewMessage(chatID, helpText)
		msg.ReplyMarkup = mainReplyKeyboard()
		b.send(msg)
	case cmdProduction:
		b.showProduction(ctx, chatID)
	case cmdLogistics:
		b.showLogistics(ctx, chatID)
	case cmdOverview:
		b.showOverview(ctx, chatID)
	case cmdClosures:
		b.showClosures(ctx, chatID)
	case cmdExport:
		b.sendClosureExport(ctx, chatID)
	default:
		b.reply(chatID, "Unbekannter Befehl. /hilfe zeigt alle Befehle.")
	}
}

func pairLabel(p tracking.Pair) string {
	if p.StartDate == "" {
		return p.BatchID
	}
	return p.BatchID + " · " + p.StartDate
}

func (b *Bot) showProduction(ctx context.Context, chatID int64) {
	tiles, err := b.svc.ProductionTiles(ctx)
	if err != nil {
		b.log.Error("production tiles failed", "err", err)
		b.reply(chatID, "Fehler beim Laden der Produktion.")
		return
	}
	if len(tiles) == 0 {
		b.reply(chatID, "Keine offenen Produktionsaufträge.")
		return
	}

	pairs := make([]tracking.Pair, 0, len(tiles))
	labels := make([]string, 0, len(tiles))
	for _, t := range tiles {
		pairs = append(pairs, t.Pair)
		labels = append(labels, fmt.Sprintf("%s %s (%d/%d)", t.Icon, pairLabel(t.Pair), t.Done, t.Total))
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Produktion: %d offen", len(tiles)))
	msg.ReplyMarkup = pairKeyboard(b.codec, cbProduction, pairs, labels)
	b.send(msg)
}

func (b *Bot) showLogistics(ctx context.Context, chatID int64) {
	tiles, err := b.svc.LogisticsTiles(ctx)
	if err != nil {
		b.log.Error("logistics tiles failed", "err", err)
		b.reply(chatID, "Fehler beim Laden der Logistik.")
		return
	}
	if len(tiles) == 0 {
		b.reply(chatID, "Keine offenen Kommissionierungen.")
		return
	}

	pairs := make([]tracking.Pair, 0, len(tiles))
	labels := make([]string, 0, len(tiles))
	for _, t := range tiles {
		label := fmt.Sprintf("%s %s (%d/%d)", t.Icon, pairLabel(t.Pair), t.Done, t.Total)
		if t.Backorder {
			label += " ⚠️"
		}
		pairs = append(pairs, t.Pair)
		labels = append(labels, label)
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Logistik: %d offen (⚠️ = Bestellung offen)", len(tiles)))
	msg.ReplyMarkup = pairKeyboard(b.codec, cbLogistics, pairs, labels)
	b.send(msg)
}

var combinedText = map[tracking.CombinedStatus]string{
	tracking.CombinedComplete:           "abgeschlossen",
	tracking.CombinedAwaitingDelivery:   "wartet auf Auslieferung",
	tracking.CombinedLogisticsMustWork:  "Logistik muss kommissionieren",
	tracking.CombinedAwaitingProduction: "wartet auf Produktion",
	tracking.CombinedOpen:               "offen",
}

func (b *Bot) showOverview(ctx context.Context, chatID int64) {
	tiles, err := b.svc.CombinedTiles(ctx)
	if err != nil {
		b.log.Error("overview failed", "err", err)
		b.reply(chatID, "Fehler beim Laden der Übersicht.")
		return
	}
	if len(tiles) == 0 {
		b.reply(chatID, "Keine Aufträge vorhanden.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Übersicht\n")
	for _, t := range tiles {
		fmt.Fprintf(&sb, "\n%s %s: %s", t.Icon, pairLabel(t.Pair), combinedText[t.Status])
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) showClosures(ctx context.Context, chatID int64) {
	list, err := b.svc.Closures(ctx)
	if err != nil {
		b.log.Error("closures failed", "err", err)
		b.reply(chatID, "Fehler beim Laden der Tagesabschlüsse.")
		return
	}
	if len(list) == 0 {
		b.reply(chatID, "Heute noch keine Abschlüsse.")
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tagesabschluss: %d Kürzel\n", len(list))
	for _, c := range list {
		fmt.Fprintf(&sb, "\n✅ %s · %s · %s · %d Stk", c.BatchID, c.StartDate, c.Kind, c.TotalQuantity)
		if c.DeliveryTarget != "" {
			fmt.Fprintf(&sb, " → %s", c.DeliveryTarget)
		}
		fmt.Fprintf(&sb, " (%s)", c.CreatedAt.Format(items.TimeLayout))
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) sendClosureExport(ctx context.Context, chatID int64) {
	f, err := b.exp.Closures(ctx, false)
	if err != nil {
		b.log.Error("closure export failed", "err", err)
		b.reply(chatID, "Fehler beim Erstellen der Datei.")
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  f.Name,
		Bytes: f.Data,
	})
	doc.Caption = fmt.Sprintf("Tagesabschluss, %d Kürzel.", f.Rows)
	b.send(doc)
}
