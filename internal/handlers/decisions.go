package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"payment-router/internal/common/pagination"
	"payment-router/internal/storage"
)

const (
	defaultDecisionLimit = 50
	maxDecisionLimit     = 500
)

// decisionView re-inflates the stored JSON columns so API consumers get
// structured data instead of embedded strings.
type decisionView struct {
	ID               string          `json:"id"`
	MerchantID       string          `json:"merchant_id"`
	SelectedProvider string          `json:"selected_provider,omitempty"`
	Reason           string          `json:"reason"`
	Profile          string          `json:"profile"`
	Candidates       json.RawMessage `json:"candidates"`
	Context          json.RawMessage `json:"context"`
	Metadata         json.RawMessage `json:"metadata"`
	ProcessingMs     int64           `json:"processing_ms"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toDecisionView(record *storage.DecisionRecord) decisionView {
	return decisionView{
		ID:               record.ID,
		MerchantID:       record.MerchantID,
		SelectedProvider: record.SelectedProvider,
		Reason:           record.Reason,
		Profile:          record.Profile,
		Candidates:       json.RawMessage(record.Candidates),
		Context:          json.RawMessage(record.Context),
		Metadata:         json.RawMessage(record.Metadata),
		ProcessingMs:     record.ProcessingMs,
		CreatedAt:        record.CreatedAt,
	}
}

// ListDecisions returns the decision audit trail, newest first.
// Supported query parameters: merchant_id, provider, profile, since
// (RFC 3339), limit, offset.
func (h *Handlers) ListDecisions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := storage.DecisionFilters{
		MerchantID: query.Get("merchant_id"),
		Provider:   query.Get("provider"),
		Profile:    query.Get("profile"),
	}
	if since := query.Get("since"); since != "" {
		parsed, err := time.Parse(time.RFC3339, since)
		if err == nil {
			filters.Since = parsed
		}
	}

	params := pagination.ParseParams(r, defaultDecisionLimit, maxDecisionLimit)

	records, err := h.storage.ListDecisions(filters, params.Limit, params.Offset)
	if err != nil {
		h.respondError(w, err)
		return
	}
	total, err := h.storage.CountDecisions(filters)
	if err != nil {
		h.respondError(w, err)
		return
	}

	views := make([]decisionView, 0, len(records))
	for _, record := range records {
		views = append(views, toDecisionView(record))
	}

	h.respondJSON(w, http.StatusOK, pagination.NewResponse(views, total, params))
}

// GetDecision returns one decision by ID.
func (h *Handlers) GetDecision(w http.ResponseWriter, r *http.Request) {
	record, err := h.storage.GetDecision(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toDecisionView(record))
}
