package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prodlog/voe-tracker/internal/domain/items"
	"github.com/prodlog/voe-tracker/internal/ingest"
	"github.com/prodlog/voe-tracker/internal/tracking"
)

const maxUpload = 32 << 20

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		h.fail(w, r, badRequest("multipart form: %v", err))
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, badRequest("missing file"))
		return
	}
	defer func() { _ = f.Close() }()

	rows, err := ingest.Parse(f)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %s: %w", errBadRequest, hdr.Filename, err))
		return
	}

	res, err := h.Tracking.Upload(r.Context(), rows)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) productionTiles(w http.ResponseWriter, r *http.Request) {
	tiles, err := h.Tracking.ProductionTiles(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tiles)
}

func (h *handler) productionDetail(w http.ResponseWriter, r *http.Request) {
	d, err := h.Tracking.ProductionDetail(r.Context(), chi.URLParam(r, "batch"), r.URL.Query().Get("start_bft"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handler) logisticsTiles(w http.ResponseWriter, r *http.Request) {
	tiles, err := h.Tracking.LogisticsTiles(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tiles)
}

func (h *handler) logisticsDetail(w http.ResponseWriter, r *http.Request) {
	d, err := h.Tracking.LogisticsDetail(r.Context(), chi.URLParam(r, "batch"), r.URL.Query().Get("start_bft"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handler) overview(w http.ResponseWriter, r *http.Request) {
	tiles, err := h.Tracking.CombinedTiles(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tiles)
}

func (h *handler) targets(w http.ResponseWriter, _ *http.Request) {
	targets := h.Targets
	if targets == nil {
		targets = []string{}
	}
	writeJSON(w, http.StatusOK, targets)
}

type actionRequest struct {
	Batch     string   `json:"batch"`
	StartDate string   `json:"start_bft"`
	RowKeys   []string `json:"row_keys"`
	Target    string   `json:"target"`
}

func (h *handler) decodeAction(r *http.Request) (actionRequest, error) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, badRequest("invalid body: %v", err)
	}
	req.Batch = strings.TrimSpace(req.Batch)
	if req.Batch == "" {
		return req, badRequest("batch is required")
	}
	return req, nil
}

type markFunc func(ctx context.Context, svc *tracking.Service, req actionRequest) (tracking.ActionResult, error)

// action decodes the common request body and runs fn on it.
func (h *handler) action(fn markFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.decodeAction(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		res, err := fn(r.Context(), h.Tracking, req)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func markProduced(ctx context.Context, svc *tracking.Service, req actionRequest) (tracking.ActionResult, error) {
	return svc.MarkProduced(ctx, req.Batch, req.StartDate, req.RowKeys)
}

func markPicked(ctx context.Context, svc *tracking.Service, req actionRequest) (tracking.ActionResult, error) {
	return svc.MarkPicked(ctx, req.Batch, req.StartDate, req.RowKeys)
}

func markDelivered(ctx context.Context, svc *tracking.Service, req actionRequest) (tracking.ActionResult, error) {
	target := strings.TrimSpace(req.Target)
	if target == "" {
		return tracking.ActionResult{}, badRequest("target is required")
	}
	return svc.MarkDelivered(ctx, req.Batch, req.StartDate, req.RowKeys, target)
}

func markNotFound(ctx context.Context, svc *tracking.Service, req actionRequest) (tracking.ActionResult, error) {
	return svc.MarkNotFound(ctx, req.Batch, req.StartDate, req.RowKeys)
}

func writeOff(ctx context.Context, svc *tracking.Service, req actionRequest) (tracking.ActionResult, error) {
	return svc.WriteOff(ctx, req.Batch, req.StartDate, req.RowKeys)
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	list, err := h.Tracking.Closures(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	type row struct {
		Batch          string `json:"batch"`
		StartDate      string `json:"start_bft"`
		Kind           string `json:"kind"`
		TotalQuantity  int64  `json:"total_quantity"`
		DeliveryTarget string `json:"delivery_target"`
		CreatedAt      string `json:"created_at"`
	}
	out := make([]row, 0, len(list))
	for _, c := range list {
		out = append(out, row{
			Batch:          c.BatchID,
			StartDate:      c.StartDate,
			Kind:           string(c.Kind),
			TotalQuantity:  c.TotalQuantity,
			DeliveryTarget: c.DeliveryTarget,
			CreatedAt:      c.CreatedAt.Format(items.TimeLayout),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) dashboardExport(w http.ResponseWriter, r *http.Request) {
	f, err := h.Export.Closures(r.Context(), r.URL.Query().Get("reset") == "true")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeFile(w, f)
}

func (h *handler) dashboardReset(w http.ResponseWriter, r *http.Request) {
	n, err := h.Tracking.ResetClosures(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (h *handler) itemsExport(w http.ResponseWriter, r *http.Request) {
	f, err := h.Export.Delivered(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeFile(w, f)
}

func (h *handler) shortages(w http.ResponseWriter, r *http.Request) {
	list, err := h.Tracking.Shortages(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []tracking.Shortage{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) shortagesExport(w http.ResponseWriter, r *http.Request) {
	f, err := h.Export.Shortages(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeFile(w, f)
}

func (h *handler) dailyExport(w http.ResponseWriter, r *http.Request) {
	res, err := h.Daily.Run(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
