package sqlite

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-router/internal/storage"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	adapter, err := NewAdapter(&Config{DatabasePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })
	return adapter
}

func TestDefaultUserCreated(t *testing.T) {
	adapter := newTestAdapter(t)

	count, err := adapter.GetUserCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	user, err := adapter.ValidateUser("admin", "admin")
	require.NoError(t, err)
	assert.True(t, user.IsDefault)
}

func TestUserLifecycle(t *testing.T) {
	adapter := newTestAdapter(t)

	created, err := adapter.CreateUser("ops", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, "ops", created.Username)

	_, err = adapter.ValidateUser("ops", "wrong")
	assert.Error(t, err)

	validated, err := adapter.ValidateUser("ops", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, created.ID, validated.ID)

	require.NoError(t, adapter.UpdateUserCredentials(created.ID, "ops", "rotated-password"))
	_, err = adapter.ValidateUser("ops", "s3cret-password")
	assert.Error(t, err)
	_, err = adapter.ValidateUser("ops", "rotated-password")
	assert.NoError(t, err)
}

func TestConfigDocuments(t *testing.T) {
	adapter := newTestAdapter(t)

	_, err := adapter.GetConfig(storage.KeyRules)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, adapter.SetConfig(storage.KeyActiveProfile, []byte(`"balanced"`)))
	value, err := adapter.GetConfig(storage.KeyActiveProfile)
	require.NoError(t, err)
	assert.JSONEq(t, `"balanced"`, string(value))

	// Upsert overwrites
	require.NoError(t, adapter.SetConfig(storage.KeyActiveProfile, []byte(`"cost_optimized"`)))
	value, err = adapter.GetConfig(storage.KeyActiveProfile)
	require.NoError(t, err)
	assert.JSONEq(t, `"cost_optimized"`, string(value))

	require.NoError(t, adapter.SetConfig(storage.KeyProviderWeights, []byte(`{"StripeMock": 3}`)))
	all, err := adapter.GetAllConfig()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func newDecisionRecord(id, merchant, provider, profile string, at time.Time) *storage.DecisionRecord {
	candidates, _ := json.Marshal([]string{provider})
	return &storage.DecisionRecord{
		ID:               id,
		MerchantID:       merchant,
		SelectedProvider: provider,
		Reason:           "Selected " + provider,
		Profile:          profile,
		Candidates:       candidates,
		Context:          []byte(`{"currency":"USD"}`),
		Metadata:         []byte(`{}`),
		ProcessingMs:     3,
		CreatedAt:        at,
	}
}

func TestDecisionAuditTrail(t *testing.T) {
	adapter := newTestAdapter(t)
	now := time.Now().UTC()

	require.NoError(t, adapter.SaveDecision(newDecisionRecord("d1", "m1", "StripeMock", "balanced", now.Add(-2*time.Hour))))
	require.NoError(t, adapter.SaveDecision(newDecisionRecord("d2", "m1", "AdyenMock", "balanced", now.Add(-time.Hour))))
	require.NoError(t, adapter.SaveDecision(newDecisionRecord("d3", "m2", "StripeMock", "cost_optimized", now)))

	t.Run("get by id", func(t *testing.T) {
		record, err := adapter.GetDecision("d2")
		require.NoError(t, err)
		assert.Equal(t, "AdyenMock", record.SelectedProvider)
		assert.JSONEq(t, `{"currency":"USD"}`, string(record.Context))

		_, err = adapter.GetDecision("nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		records, err := adapter.ListDecisions(storage.DecisionFilters{}, 10, 0)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "d3", records[0].ID)
	})

	t.Run("filter by merchant", func(t *testing.T) {
		records, err := adapter.ListDecisions(storage.DecisionFilters{MerchantID: "m1"}, 10, 0)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("filter by provider and profile", func(t *testing.T) {
		count, err := adapter.CountDecisions(storage.DecisionFilters{
			Provider: "StripeMock",
			Profile:  "cost_optimized",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("prune old decisions", func(t *testing.T) {
		deleted, err := adapter.DeleteOldDecisions(now.Add(-90 * time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		count, err := adapter.CountDecisions(storage.DecisionFilters{})
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}
