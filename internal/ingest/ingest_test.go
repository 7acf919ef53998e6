package ingest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf := &bytes.Buffer{}
	require.NoError(t, f.Write(buf))
	return buf
}

func TestParse(t *testing.T) {
	buf := workbook(t,
		[]interface{}{"Kürzel", "Start-BFT", "Beschaffung", "Referenz", "Bew.-Artikel", "Artikel-Nr.", "ProdID BFT", "Durchm.", "Länge", "Biegung", "Bedarfs-Menge"},
		[]interface{}{"CP-waoi ", 45730, "Produktion", "Produktion", "BEW-12", "A-1", "P1", 12, 3000, "B1", -2},
		[]interface{}{"nan", "2025-03-14", "Lager", "Am Lager", "BEW-8", "A-2", "", 8, 1000, "", 3},
		[]interface{}{"DERDOA", "14.03.2025", "Lager ", "Am Lager", "BEW-8", "A-2", "", "3,5", "x", "", 1},
		[]interface{}{"", "2025-03-14"},
	)

	got, err := Parse(buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	a := got[0]
	assert.Equal(t, "WAOI", a.BatchID)
	assert.Equal(t, "2025-03-14", a.StartDate)
	assert.Equal(t, "Produktion", a.Procurement)
	assert.Equal(t, "BEW-12", a.ArticleCode)
	assert.Equal(t, "A-1", a.ArticleID)
	assert.Equal(t, "P1", a.ProdID)
	assert.Equal(t, 12.0, a.Diameter)
	assert.Equal(t, 3000.0, a.Length)
	assert.Equal(t, "B1", a.BendType)
	assert.Equal(t, -2.0, a.Quantity)
	assert.Empty(t, a.MergeKey)

	b := got[1]
	assert.Equal(t, "DERDOA", b.BatchID)
	assert.Equal(t, "2025-03-14", b.StartDate)
	assert.Equal(t, "Lager", b.Procurement)
	assert.Equal(t, 3.5, b.Diameter)
	assert.Zero(t, b.Length, "unparseable numbers become zero")
	assert.Equal(t, "unknown", b.BendType)
}

func TestParse_NoBatchColumn(t *testing.T) {
	buf := workbook(t,
		[]interface{}{"Artikel", "Menge"},
		[]interface{}{"X", 1},
	)
	_, err := Parse(buf)
	assert.ErrorIs(t, err, ErrNoBatchColumn)
}

func TestParse_EmptySheet(t *testing.T) {
	_, err := Parse(workbook(t))
	assert.ErrorIs(t, err, ErrEmptySheet)
}

func TestParse_NotAWorkbook(t *testing.T) {
	_, err := Parse(bytes.NewBufferString("kuerzel;menge"))
	assert.Error(t, err)
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Kürzel":        "kuerzel",
		" Bew.-Artikel": "bew_artikel",
		"Länge":         "laenge",
		"ProdID BFT":    "prodid_bft",
		"Durchm.":       "durchm",
		"Bedarfs-Menge": "bedarfs_menge",
		"Maß":           "mass",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHeader(in), in)
	}
}

func TestNormalizeBatch(t *testing.T) {
	assert.Equal(t, "WAOI", NormalizeBatch("CP-WAOI"))
	assert.Equal(t, "GIBO2F", NormalizeBatch(" gibo2f "))
	assert.Empty(t, NormalizeBatch("  "))
}

func TestToDate(t *testing.T) {
	assert.Equal(t, "2025-03-14", toDate("45730"))
	assert.Equal(t, "2025-03-14", toDate("14.03.2025"))
	assert.Equal(t, "2025-03-14", toDate("2025-03-14 00:00:00"))
	assert.Equal(t, "KW 11", toDate("KW 11"))
	assert.Empty(t, toDate(""))
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"12", 12},
		{"-2", -2},
		{"2.5", 2.5},
		{"2,5", 2.5},
		{"1.234,5", 1234.5},
		{"1.234.567,25", 1234567.25},
		{"1,234.5", 1234.5},
		{"1,2,3", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, toFloat(tt.in), 1e-9)
		})
	}
}
