package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"payment-router/internal/common/errors"
	"payment-router/internal/common/logging"
	"payment-router/internal/routing"
)

// RouteRequest is the body of POST /api/route. Amount arrives as a JSON
// number or string and is parsed into an exact decimal either way.
type RouteRequest struct {
	Amount     json.Number `json:"amount"`
	Currency   string      `json:"currency"`
	Country    string      `json:"country"`
	Network    string      `json:"network"`
	BINPrefix  string      `json:"bin_prefix,omitempty"`
	MerchantID string      `json:"merchant_id"`
	Profile    string      `json:"profile,omitempty"` // optional per-request override
}

func (req *RouteRequest) toContext() (*routing.RoutingContext, error) {
	if req.Currency == "" {
		return nil, errors.ValidationError("currency is required")
	}
	if req.Country == "" {
		return nil, errors.ValidationError("country is required")
	}
	if req.Network == "" {
		return nil, errors.ValidationError("network is required")
	}
	if req.Amount.String() == "" {
		return nil, errors.ValidationError("amount is required")
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		return nil, errors.ValidationError("amount is not a valid number")
	}
	if amount.IsNegative() {
		return nil, errors.ValidationError("amount must not be negative")
	}

	return &routing.RoutingContext{
		Amount:     amount,
		Currency:   strings.ToUpper(req.Currency),
		Country:    strings.ToUpper(req.Country),
		Network:    strings.ToUpper(req.Network),
		BINPrefix:  req.BINPrefix,
		MerchantID: req.MerchantID,
	}, nil
}

// HandleRoute runs the selection pipeline for one transaction. With an
// Idempotency-Key header, a repeated request inside the retention window
// returns the original decision.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	rctx, err := req.toContext()
	if err != nil {
		h.respondError(w, err)
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey != "" && h.idempotency != nil {
		cached, found, err := h.idempotency.Lookup(r.Context(), rctx.MerchantID, idempotencyKey)
		if err != nil {
			h.logger.Warn("Idempotency lookup failed, routing anyway", logging.Err(err))
		} else if found {
			w.Header().Set("X-Idempotent-Replay", "true")
			h.respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	var decision *routing.RouteDecision
	if req.Profile != "" {
		decision, err = h.engine.RouteWithProfile(r.Context(), rctx, req.Profile)
	} else {
		decision, err = h.engine.Route(r.Context(), rctx)
	}
	if err != nil {
		h.respondError(w, errors.InternalError("routing failed", err))
		return
	}

	if idempotencyKey != "" && h.idempotency != nil {
		stored, err := h.idempotency.Remember(r.Context(), rctx.MerchantID, idempotencyKey, decision)
		if err != nil {
			h.logger.Warn("Idempotency store failed", logging.Err(err))
		} else {
			decision = stored
		}
	}

	if h.recorder != nil {
		if err := h.recorder.Record(r.Context(), decision); err != nil {
			// The caller still gets the decision; only the audit trail
			// is degraded.
			h.logger.Error("Decision audit failed", err,
				logging.String("decision_id", decision.ID),
			)
		}
	}

	h.respondJSON(w, http.StatusOK, decision)
}
