package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prodlog/voe-tracker/internal/domain/closures"
	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/prodlog/voe-tracker/internal/export"
	"github.com/prodlog/voe-tracker/internal/infra/notify"
	"github.com/prodlog/voe-tracker/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type sink struct{ msgs []notify.Message }

func (s *sink) Notify(_ context.Context, m notify.Message) error {
	s.msgs = append(s.msgs, m)
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *sink) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	now := func() time.Time { return time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC) }

	is := items.NewMemoryStore()
	cs := closures.NewMemoryStore()
	svc := tracking.NewService(is, cs, log, tracking.WithClock(now))
	asm := export.NewAssembler(is, cs, log, now)
	n := &sink{}

	return NewRouter(Deps{
		Tracking: svc,
		Export:   asm,
		Daily:    export.NewDailyJob(asm, n, log),
		Targets:  []string{"Halle 1", "Halle 3"},
		Metrics:  true,
		Log:      log,
	}), n
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func uploadSheet(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows := [][]interface{}{
		{"Kürzel", "Start-BFT", "Beschaffung", "Referenz", "Bew.-Artikel", "Durchm.", "Länge", "Biegung", "Bedarfs-Menge"},
		{"CP-WAOI", "2025-03-14", "Produktion", "Produktion", "BEW-12", 12, 3000, "B1", -2},
		{"CP-WAOI", "2025-03-14", "Lager", "Am Lager", "BEW-8", 8, 1000, "B2", 3},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	xlsx := &bytes.Buffer{}
	require.NoError(t, f.Write(xlsx))
	_ = f.Close()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "auftrag.xlsx")
	require.NoError(t, err)
	_, _ = part.Write(xlsx.Bytes())
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkflow(t *testing.T) {
	h, n := newTestRouter(t)

	rec := uploadSheet(t, h)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[tracking.UploadResult](t, rec).Inserted)

	rec = do(t, h, http.MethodGet, "/production", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prod := decode[[]tracking.ProductionTile](t, rec)
	require.Len(t, prod, 1)
	assert.Equal(t, "WAOI", prod[0].BatchID)
	assert.Equal(t, tracking.ProgressOpen, prod[0].Status)

	rec = do(t, h, http.MethodGet, "/production/WAOI?start_bft=2025-03-14", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pd := decode[tracking.ProductionDetail](t, rec)
	require.Len(t, pd.Bundles, 1)
	assert.Equal(t, int64(2), pd.Bundles[0].Quantity)
	prodKeys := pd.Bundles[0].RowKeys

	rec = do(t, h, http.MethodGet, "/logistics/WAOI?start_bft=2025-03-14", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ld := decode[tracking.LogisticsDetail](t, rec)
	require.Len(t, ld.Bundles, 1)
	require.NotNil(t, ld.ProductionCarrier)
	logKeys := ld.Bundles[0].RowKeys

	req := map[string]any{"batch": "WAOI", "start_bft": "2025-03-14", "row_keys": prodKeys}
	rec = do(t, h, http.MethodPost, "/production/done", req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tracking.ActionResult{Updated: 1}, decode[tracking.ActionResult](t, rec))

	req["row_keys"] = logKeys
	rec = do(t, h, http.MethodPost, "/logistics/picked", req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/overview", nil)
	ov := decode[[]tracking.CombinedTile](t, rec)
	require.Len(t, ov, 1)
	assert.Equal(t, tracking.CombinedAwaitingDelivery, ov[0].Status)

	req["row_keys"] = append(append([]string{}, prodKeys...), logKeys...)
	req["target"] = "Halle 3"
	rec = do(t, h, http.MethodPost, "/logistics/delivered", req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tracking.ActionResult{Updated: 2, Closed: true}, decode[tracking.ActionResult](t, rec))

	rec = do(t, h, http.MethodGet, "/dashboard", nil)
	dash := decode[[]map[string]any](t, rec)
	require.Len(t, dash, 1)
	assert.Equal(t, "both", dash[0]["kind"])
	assert.Equal(t, "Halle 3", dash[0]["delivery_target"])
	assert.EqualValues(t, 5, dash[0]["total_quantity"])

	rec = do(t, h, http.MethodGet, "/items/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "VOE_Ausgelieferte_Items_2025-03-14.xlsx")

	rec = do(t, h, http.MethodPost, "/daily/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	run := decode[export.RunResult](t, rec)
	assert.Equal(t, export.StatusSent, run.Status)
	assert.Equal(t, 2, run.Rows)
	assert.Len(t, n.msgs, 1)

	rec = do(t, h, http.MethodGet, "/items/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/dashboard/reset", nil)
	assert.Equal(t, map[string]int{"cleared": 1}, decode[map[string]int](t, rec))
}

func TestActionValidation(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name string
		path string
		body any
		want string
	}{
		{"no keys", "/production/done", map[string]any{"batch": "A", "row_keys": []string{}}, "no row keys"},
		{"no batch", "/logistics/picked", map[string]any{"row_keys": []string{"k"}}, "batch is required"},
		{"no target", "/logistics/delivered", map[string]any{"batch": "A", "row_keys": []string{"k"}}, "target is required"},
		{"bad json", "/logistics/write-off", "{", "invalid body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[errorBody](t, rec).Error, tt.want)
		})
	}
}

func TestUpload_Rejects(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/upload", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, _ := mw.CreateFormFile("file", "notes.txt")
	_, _ = part.Write([]byte("not a workbook"))
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(decode[errorBody](t, rec).Error, "bad request: notes.txt"))
}

func TestEmptyReads(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/targets", nil)
	assert.Equal(t, []string{"Halle 1", "Halle 3"}, decode[[]string](t, rec))

	rec = do(t, h, http.MethodGet, "/shortages", nil)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/shortages/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/dashboard/export", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/daily/export", nil)
	assert.Equal(t, export.StatusEmpty, decode[export.RunResult](t, rec).Status)
}

func TestDailyExport_WithoutChannelKeepsItems(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	now := func() time.Time { return time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC) }
	is := items.NewMemoryStore()
	cs := closures.NewMemoryStore()
	_, err := is.Insert(context.Background(), items.Item{BatchID: "WAOI", StartDate: "2025-03-14", Produced: true})
	require.NoError(t, err)
	asm := export.NewAssembler(is, cs, log, now)
	h := NewRouter(Deps{
		Tracking: tracking.NewService(is, cs, log, tracking.WithClock(now)),
		Export:   asm,
		Daily:    export.NewDailyJob(asm, notify.NewNoop(log), log),
		Log:      log,
	})

	rec := do(t, h, http.MethodPost, "/daily/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	run := decode[export.RunResult](t, rec)
	assert.Equal(t, export.StatusDisabled, run.Status)
	assert.False(t, run.Notified)

	left, _ := is.Query(context.Background(), items.Filter{})
	assert.Len(t, left, 1)
}
