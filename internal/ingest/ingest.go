// Package ingest turns an uploaded order spreadsheet into items.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/prodlog/voe-tracker/internal/tracking"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

var (
	ErrEmptySheet    = errors.New("ingest: sheet has no rows")
	ErrNoBatchColumn = errors.New("ingest: no batch column found")
)

var batchAliases = []string{"kuerzel", "kürzel", "kurzel", "kennz", "kennzeichen", "kz"}

// columnAliases maps normalised sheet headers to internal fields. Later
// entries win when a sheet carries several aliases of the same field.
var columnAliases = []struct{ from, to string }{
	{"prodid_bft", "prod_id"},
	{"prodid", "prod_id"},
	{"prod_id", "prod_id"},

	{"artikel_nr_bft", "artikel_nr"},
	{"artikel_nr", "artikel_nr"},

	{"bew_artikel", "artikel_clean"},
	{"bew_art", "artikel_clean"},
	{"bewartikel", "artikel_clean"},
	{"bew_artikel_bft", "artikel_clean"},
	{"bew_artikel_bew", "artikel_clean"},
	{"bewartikelbft", "artikel_clean"},
	{"bewartikelbew", "artikel_clean"},

	{"durchm", "durchmesser"},
	{"durchmesser", "durchmesser"},

	{"laenge", "laenge"},
	{"laenge_bft", "laenge"},
	{"laengebew", "laenge"},

	{"biegung", "biegung"},

	{"bedarfs_menge", "bedarfs_menge_pos"},
	{"bedarfs_n", "bedarfs_menge_pos"},
	{"bedarfs_nr", "bedarfs_menge_pos"},
	{"bedarfsnr", "bedarfs_menge_pos"},
	{"bedarfsmenge", "bedarfs_menge_pos"},
	{"bedarfs_menge_pos", "bedarfs_menge_pos"},

	{"menge", "menge"},

	{"beschaffung", "beschaffung"},
	{"beschaff", "beschaffung"},

	{"referenz", "referenz"},
	{"ref", "referenz"},
	{"refnr", "referenz"},

	{"start_bft", "start_bft"},
	{"start_bew", "start_bew"},
}

var headerReplacer = strings.NewReplacer(
	" ", "_",
	"-", "_",
	".", "",
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

// NormalizeHeader lower-cases and flattens a sheet header: "Bew.-Artikel"
// becomes "bew_artikel", "Länge" becomes "laenge".
func NormalizeHeader(h string) string {
	return headerReplacer.Replace(strings.ToLower(strings.TrimSpace(h)))
}

// NormalizeBatch strips the CP- prefix: "cp-waoi " becomes "WAOI".
func NormalizeBatch(s string) string {
	s = strings.ReplaceAll(s, "CP-", "")
	s = strings.ReplaceAll(s, "cp-", "")
	return strings.ToUpper(strings.TrimSpace(s))
}

// Parse reads the active sheet of an xlsx workbook. The first row is the
// header; rows without a batch id are dropped.
func Parse(r io.Reader) ([]items.Item, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]items.Item, error) {
	cols := map[string]int{}
	for i, h := range rows[0] {
		n := NormalizeHeader(h)
		if _, ok := cols[n]; !ok {
			cols[n] = i
		}
	}

	batchCol := -1
	for _, alias := range batchAliases {
		if i, ok := cols[alias]; ok {
			batchCol = i
			break
		}
	}
	if batchCol < 0 {
		return nil, ErrNoBatchColumn
	}

	field := map[string]int{}
	for _, a := range columnAliases {
		if i, ok := cols[a.from]; ok {
			field[a.to] = i
		}
	}

	var out []items.Item
	for _, row := range rows[1:] {
		get := func(name string) string {
			i, ok := field[name]
			if !ok || i >= len(row) {
				return ""
			}
			return clean(row[i])
		}

		if batchCol >= len(row) {
			continue
		}
		batch := NormalizeBatch(clean(row[batchCol]))
		if batch == "" {
			continue
		}

		bend := get("biegung")
		if bend == "" {
			bend = tracking.UnknownBend
		}

		out = append(out, items.Item{
			BatchID:     batch,
			StartDate:   toDate(get("start_bft")),
			StartBew:    toDate(get("start_bew")),
			Procurement: get("beschaffung"),
			Reference:   get("referenz"),
			ArticleCode: get("artikel_clean"),
			ArticleID:   get("artikel_nr"),
			ProdID:      get("prod_id"),
			Diameter:    toFloat(get("durchmesser")),
			Length:      toFloat(get("laenge")),
			BendType:    bend,
			Quantity:    toFloat(get("bedarfs_menge_pos")),
			Amount:      toFloat(get("menge")),
		})
	}
	return out, nil
}

var spaceReplacer = strings.NewReplacer("\u00a0", " ", "\t", " ")

// clean trims whitespace including non-breaking spaces and maps "nan" to "".
func clean(s string) string {
	s = strings.TrimSpace(spaceReplacer.Replace(s))
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

// toFloat accepts "1234.5", "1234,5", "1.234,5" and "1,234.5". Whatever
// follows last of '.' and ',' is the fraction; the other one groups thousands.
func toFloat(s string) float64 {
	if s == "" {
		return 0
	}
	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
		if strings.Contains(s, ",") {
			return 0
		}
	case dot > comma && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return 0
	}
	return v
}

var dateLayouts = []string{"2006-01-02", "02.01.2006", "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// toDate renders Excel serials and common date strings as YYYY-MM-DD. Anything
// else is kept verbatim.
func toDate(s string) string {
	if s == "" {
		return ""
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.Format("2006-01-02")
		}
		return s
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
