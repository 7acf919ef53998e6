package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prodlog/voe-tracker/internal/export"
	"github.com/prodlog/voe-tracker/internal/ingest"
	"github.com/prodlog/voe-tracker/internal/tracking"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFile(w http.ResponseWriter, f export.File) {
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", f.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}

type errorBody struct {
	Error string `json:"error"`
}

// fail maps domain errors to status codes. Anything unknown is logged and
// reported as 500.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tracking.ErrNoKeys),
		errors.Is(err, tracking.ErrNoRows),
		errors.Is(err, ingest.ErrNoBatchColumn),
		errors.Is(err, ingest.ErrEmptySheet),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, export.ErrNothingToExport):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}
