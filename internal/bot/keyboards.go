package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prodlog/voe-tracker/internal/tracking"
)

const (
	labelProduction = "Produktion"
	labelLogistics  = "Logistik"
	labelOverview   = "Übersicht"
	labelClosures   = "Tagesabschluss"
	labelExport     = "Export"
)

var labelCommands = map[string]string{
	labelProduction: cmdProduction,
	labelLogistics:  cmdLogistics,
	labelOverview:   cmdOverview,
	labelClosures:   cmdClosures,
	labelExport:     cmdExport,
}

// mainReplyKeyboard is the bottom panel shown after /start.
func mainReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(labelProduction), tgbotapi.NewKeyboardButton(labelLogistics)},
			{tgbotapi.NewKeyboardButton(labelOverview)},
			{tgbotapi.NewKeyboardButton(labelClosures), tgbotapi.NewKeyboardButton(labelExport)},
		},
	}
}

// pairKeyboard has one button per tile, opening its detail view.
func pairKeyboard(c *pairCodec, prefix string, pairs []tracking.Pair, labels []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(pairs))
	for i, p := range pairs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labels[i], c.encode(prefix, p, -1)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// bundleKeyboard offers a button for every bundle that is not done yet.
func bundleKeyboard(c *pairCodec, prefix string, p tracking.Pair, bs []tracking.Bundle) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, bd := range bs {
		if bd.Done {
			continue
		}
		label := fmt.Sprintf("✔ %s Ø%g × %g", bd.ArticleCode, bd.Diameter, bd.Length)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, c.encode(prefix, p, i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Aktualisieren", c.encode(refreshPrefix(prefix), p, -1)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
