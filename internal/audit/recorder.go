// Package audit persists routing decisions and announces them on a Redis
// stream for downstream consumers (reconciliation, analytics, alerting).
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"payment-router/internal/common/logging"
	"payment-router/internal/redis"
	"payment-router/internal/routing"
	"payment-router/internal/storage"
)

const (
	// DecisionStream is the Redis stream decisions are announced on.
	DecisionStream = "routing:decisions"

	// streamMaxLen caps the stream; older entries are trimmed. The
	// database keeps the full trail.
	streamMaxLen = 10000
)

// Recorder writes the decision audit trail. Storage is the durable record;
// the stream announcement is best effort and its failure only logs.
type Recorder struct {
	storage storage.Storage
	client  *redis.Client
	logger  logging.Logger
}

// New creates a decision recorder. The redis client may be nil, which
// disables stream announcements.
func New(st storage.Storage, client *redis.Client, logger logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Recorder{
		storage: st,
		client:  client,
		logger:  logger,
	}
}

// Record persists the decision and announces it. A database failure is
// returned; a stream failure is logged and swallowed.
func (r *Recorder) Record(ctx context.Context, decision *routing.RouteDecision) error {
	record, err := toRecord(decision)
	if err != nil {
		return err
	}

	if err := r.storage.SaveDecision(record); err != nil {
		return fmt.Errorf("save decision %s: %w", decision.ID, err)
	}

	r.announce(ctx, decision)
	return nil
}

func (r *Recorder) announce(ctx context.Context, decision *routing.RouteDecision) {
	if r.client == nil {
		return
	}

	_, err := r.client.AddToStream(ctx, DecisionStream, map[string]interface{}{
		"decision_id": decision.ID,
		"merchant_id": decision.Context.MerchantID,
		"provider":    decision.SelectedProvider,
		"profile":     decision.Metadata.Profile.Name,
		"reason":      decision.Reason,
		"created_at":  decision.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}, streamMaxLen)
	if err != nil {
		r.logger.Warn("Decision stream announcement failed",
			logging.String("decision_id", decision.ID),
			logging.Err(err),
		)
	}
}

// StreamDepth returns the number of entries currently on the decision
// stream, or -1 when announcements are disabled.
func (r *Recorder) StreamDepth(ctx context.Context) (int64, error) {
	if r.client == nil {
		return -1, nil
	}
	return r.client.StreamLen(ctx, DecisionStream)
}

func toRecord(decision *routing.RouteDecision) (*storage.DecisionRecord, error) {
	candidates, err := json.Marshal(decision.Candidates)
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}
	routingContext, err := json.Marshal(decision.Context)
	if err != nil {
		return nil, fmt.Errorf("marshal context: %w", err)
	}
	metadata, err := json.Marshal(decision.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	return &storage.DecisionRecord{
		ID:               decision.ID,
		MerchantID:       decision.Context.MerchantID,
		SelectedProvider: decision.SelectedProvider,
		Reason:           decision.Reason,
		Profile:          decision.Metadata.Profile.Name,
		Candidates:       candidates,
		Context:          routingContext,
		Metadata:         metadata,
		ProcessingMs:     decision.ProcessingTime.Milliseconds(),
		CreatedAt:        decision.CreatedAt,
	}, nil
}
