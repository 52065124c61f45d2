package tokenledger

import (
	"encoding/json"
	"net/http"

	"github.com/terapiaconect/platform/pkg/logging"
)

// Handler serves the admin usage report.
type Handler struct {
	ledger          *Ledger
	defaultBaseline string
	logger          *logging.Logger
}

func NewHandler(ledger *Ledger, defaultBaseline string, logger *logging.Logger) *Handler {
	if ledger == nil {
		panic("tokenledger: ledger is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{ledger: ledger, defaultBaseline: defaultBaseline, logger: logger}
}

// Usage handles GET /admin/usage. A baseline query parameter overrides the
// configured savings baseline; baseline=none disables the comparison.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	baseline := h.defaultBaseline
	if q := r.URL.Query().Get("baseline"); q != "" {
		baseline = q
	}
	if baseline == "none" {
		baseline = ""
	}
	report, err := h.ledger.BuildReport(baseline)
	if err != nil {
		h.logger.Warn("usage report failed", "baseline", baseline, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
