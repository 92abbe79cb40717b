package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-router/internal/audit"
	"payment-router/internal/auth"
	"payment-router/internal/config"
	"payment-router/internal/configstore"
	"payment-router/internal/idempotency"
	"payment-router/internal/providers"
	"payment-router/internal/providers/mock"
	"payment-router/internal/redis"
	"payment-router/internal/routing"
	"payment-router/internal/storage/sqlite"
)

type testEnv struct {
	server *httptest.Server
	token  string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	adapter, err := sqlite.NewAdapter(&sqlite.Config{DatabasePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	mr := miniredis.RunT(t)
	redisClient, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { redisClient.Close() })

	cfg := &config.Config{
		JWTSecret:      "test-secret-test-secret-test-secret!",
		IdempotencyTTL: "1h",
	}

	authSvc, err := auth.New(adapter, cfg, redisClient)
	require.NoError(t, err)

	registry := providers.NewRegistry()
	for _, p := range mock.DefaultProviders() {
		require.NoError(t, registry.Register(p))
	}

	store := configstore.New(adapter, nil)
	require.NoError(t, store.Refresh())

	engine := routing.NewEngine(registry, store, nil)
	idem := idempotency.New(redisClient, time.Hour, nil)
	recorder := audit.New(adapter, redisClient, nil)

	h := New(Deps{
		Storage:     adapter,
		Config:      cfg,
		Auth:        authSvc,
		Engine:      engine,
		ConfigStore: store,
		Registry:    registry,
		Idempotency: idem,
		Recorder:    recorder,
		Redis:       redisClient,
	})

	router := mux.NewRouter()
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/auth/login", h.Login).Methods("POST")
	router.HandleFunc("/api/route", h.HandleRoute).Methods("POST")

	admin := router.PathPrefix("/api").Subrouter()
	admin.Use(authSvc.RequireAuth)
	admin.HandleFunc("/auth/logout", h.Logout).Methods("POST")
	admin.HandleFunc("/auth/credentials", h.ChangeCredentials).Methods("PUT")
	admin.HandleFunc("/routing/rules", h.GetRules).Methods("GET")
	admin.HandleFunc("/routing/rules", h.UpdateRules).Methods("PUT")
	admin.HandleFunc("/routing/profiles", h.GetProfiles).Methods("GET")
	admin.HandleFunc("/routing/profiles/active", h.SetActiveProfile).Methods("PUT")
	admin.HandleFunc("/routing/profiles/custom/{name}", h.UpsertCustomProfile).Methods("PUT")
	admin.HandleFunc("/routing/profiles/custom/{name}", h.DeleteCustomProfile).Methods("DELETE")
	admin.HandleFunc("/providers", h.GetProviders).Methods("GET")
	admin.HandleFunc("/decisions", h.ListDecisions).Methods("GET")
	admin.HandleFunc("/decisions/{id}", h.GetDecision).Methods("GET")

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	env := &testEnv{server: server}
	env.token = env.login(t, "admin", "admin")
	return env
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	status, body := e.do(t, "POST", "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// do sends a JSON request and decodes the JSON response into a map.
// Extra headers override defaults.
func (e *testEnv) do(t *testing.T, method, path string, payload interface{}, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()

	var reqBody *bytes.Buffer = bytes.NewBuffer(nil)
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

func routeBody() map[string]interface{} {
	return map[string]interface{}{
		"amount":      "100.00",
		"currency":    "USD",
		"country":     "US",
		"network":     "VISA",
		"merchant_id": "merch_1",
	}
}

func TestHandleRoute(t *testing.T) {
	env := setupEnv(t)

	t.Run("selects a provider", func(t *testing.T) {
		status, body := env.do(t, "POST", "/api/route", routeBody(), nil)
		assert.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, body["selected_provider"])
		assert.NotEmpty(t, body["id"])
		assert.NotEmpty(t, body["candidates"])
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		payload := routeBody()
		delete(payload, "currency")
		status, body := env.do(t, "POST", "/api/route", payload, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["error"], "currency")
	})

	t.Run("rejects unknown body fields", func(t *testing.T) {
		payload := routeBody()
		payload["surprise"] = true
		status, _ := env.do(t, "POST", "/api/route", payload, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("no eligible providers is a decision, not an error", func(t *testing.T) {
		payload := routeBody()
		payload["currency"] = "JPY"
		payload["country"] = "JP"
		payload["network"] = "JCB"
		status, body := env.do(t, "POST", "/api/route", payload, nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Empty(t, body["selected_provider"])
		assert.Equal(t, "No eligible providers found", body["reason"])
	})

	t.Run("per-request profile override", func(t *testing.T) {
		payload := routeBody()
		payload["profile"] = "cost_optimized"
		status, body := env.do(t, "POST", "/api/route", payload, nil)
		assert.Equal(t, http.StatusOK, status)
		metadata, _ := body["metadata"].(map[string]interface{})
		profile, _ := metadata["profile"].(map[string]interface{})
		assert.Equal(t, "cost_optimized", profile["name"])
	})
}

func TestHandleRouteIdempotency(t *testing.T) {
	env := setupEnv(t)

	headers := map[string]string{"Idempotency-Key": "order-42"}
	status, first := env.do(t, "POST", "/api/route", routeBody(), headers)
	require.Equal(t, http.StatusOK, status)

	status, replay := env.do(t, "POST", "/api/route", routeBody(), headers)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, first["id"], replay["id"])

	status, fresh := env.do(t, "POST", "/api/route", routeBody(), nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEqual(t, first["id"], fresh["id"])

	// A different merchant reusing the same key must not see the replay
	otherMerchant := routeBody()
	otherMerchant["merchant_id"] = "merch_2"
	status, other := env.do(t, "POST", "/api/route", otherMerchant, headers)
	require.Equal(t, http.StatusOK, status)
	assert.NotEqual(t, first["id"], other["id"])
}

func TestDecisionAuditTrail(t *testing.T) {
	env := setupEnv(t)

	status, decision := env.do(t, "POST", "/api/route", routeBody(), nil)
	require.Equal(t, http.StatusOK, status)
	decisionID, _ := decision["id"].(string)
	require.NotEmpty(t, decisionID)

	status, listing := env.do(t, "GET", "/api/decisions?merchant_id=merch_1", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), listing["total"])

	status, fetched := env.do(t, "GET", "/api/decisions/"+decisionID, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, decisionID, fetched["id"])
	assert.Equal(t, "merch_1", fetched["merchant_id"])

	status, _ = env.do(t, "GET", "/api/decisions/no-such-id", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAdminRequiresAuth(t *testing.T) {
	env := setupEnv(t)
	env.token = ""

	status, _ := env.do(t, "GET", "/api/routing/rules", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, "GET", "/api/routing/rules", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRulesEndpoints(t *testing.T) {
	env := setupEnv(t)

	status, body := env.do(t, "GET", "/api/routing/rules", nil, nil)
	require.Equal(t, http.StatusOK, status)
	rules, _ := body["rules"].([]interface{})
	assert.NotEmpty(t, rules)

	update := []map[string]interface{}{{
		"conditions": []map[string]string{
			{"field": "country", "operator": "eq", "value": "DE"},
		},
		"action": map[string]interface{}{
			"mode":      "PREFERRED",
			"providers": []string{"AdyenMock"},
		},
		"description": "German traffic prefers Adyen",
	}}
	status, body = env.do(t, "PUT", "/api/routing/rules", update, nil)
	require.Equal(t, http.StatusOK, status)
	rules, _ = body["rules"].([]interface{})
	assert.Len(t, rules, 1)

	invalid := []map[string]interface{}{{
		"conditions": []map[string]string{
			{"field": "country", "operator": "between", "value": "DE"},
		},
		"action": map[string]interface{}{
			"mode":      "PREFERRED",
			"providers": []string{"AdyenMock"},
		},
	}}
	status, _ = env.do(t, "PUT", "/api/routing/rules", invalid, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProfileEndpoints(t *testing.T) {
	env := setupEnv(t)

	status, body := env.do(t, "GET", "/api/routing/profiles", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "balanced", body["active"])

	status, _ = env.do(t, "PUT", "/api/routing/profiles/active", map[string]string{"name": "cost_optimized"}, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, "GET", "/api/routing/profiles", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "cost_optimized", body["active"])

	status, _ = env.do(t, "PUT", "/api/routing/profiles/active", map[string]string{"name": "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	custom := map[string]interface{}{
		"description": "merchant tuned",
		"strategies": map[string]float64{
			"cost":        0.5,
			"reliability": 0.5,
		},
	}
	status, _ = env.do(t, "PUT", "/api/routing/profiles/custom/merchant_a", custom, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, "PUT", "/api/routing/profiles/active", map[string]string{"name": "merchant_a"}, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, "DELETE", "/api/routing/profiles/custom/merchant_a", nil, nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestProvidersEndpoint(t *testing.T) {
	env := setupEnv(t)

	status, body := env.do(t, "GET", "/api/providers", nil, nil)
	require.Equal(t, http.StatusOK, status)
	listed, _ := body["providers"].([]interface{})
	assert.Len(t, listed, 4)
}

func TestHealthEndpoint(t *testing.T) {
	env := setupEnv(t)
	env.token = ""

	status, body := env.do(t, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(0), body["decision_stream_depth"])

	status, _ = env.do(t, "POST", "/api/route", routeBody(), nil)
	require.Equal(t, http.StatusOK, status)

	_, body = env.do(t, "GET", "/health", nil, nil)
	assert.Equal(t, float64(1), body["decision_stream_depth"])
}

func TestCredentialRotation(t *testing.T) {
	env := setupEnv(t)

	status, _ := env.do(t, "PUT", "/api/auth/credentials", map[string]string{
		"current_password": "wrong",
		"new_password":     "hunter22",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, "PUT", "/api/auth/credentials", map[string]string{
		"current_password": "admin",
		"new_username":     "operator",
		"new_password":     "hunter22",
	}, nil)
	require.Equal(t, http.StatusOK, status)

	env.token = ""
	status, _ = env.do(t, "POST", "/api/auth/login", map[string]string{
		"username": "admin",
		"password": "admin",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	env.token = env.login(t, "operator", "hunter22")
	assert.NotEmpty(t, env.token)
}

func TestLogoutBlacklistsToken(t *testing.T) {
	env := setupEnv(t)

	status, _ := env.do(t, "POST", "/api/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, "GET", "/api/routing/rules", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
