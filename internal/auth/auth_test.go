package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-router/internal/config"
	"payment-router/internal/redis"
	"payment-router/internal/storage/sqlite"
)

const testSecret = "test-secret-key-that-is-long-enough"

func newTestAuth(t *testing.T, withRedis bool) *Auth {
	t.Helper()
	adapter, err := sqlite.NewAdapter(&sqlite.Config{DatabasePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	var client *redis.Client
	if withRedis {
		mr := miniredis.RunT(t)
		client, err = redis.NewClient(&redis.Config{Address: mr.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { client.Close() })
	}

	a, err := New(adapter, &config.Config{JWTSecret: testSecret}, client)
	require.NoError(t, err)
	return a
}

func TestNewRequiresSecret(t *testing.T) {
	adapter, err := sqlite.NewAdapter(&sqlite.Config{DatabasePath: ":memory:"})
	require.NoError(t, err)
	defer adapter.Close()

	_, err = New(adapter, &config.Config{}, nil)
	assert.Error(t, err)
}

func TestGenerateAndValidateJWT(t *testing.T) {
	a := newTestAuth(t, false)

	token, claims, err := a.GenerateJWT(7, "ops", false)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "payment-router", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)

	parsed, err := a.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, 7, parsed.UserID)
	assert.Equal(t, "ops", parsed.Username)
}

func TestValidateJWTRejects(t *testing.T) {
	a := newTestAuth(t, false)

	t.Run("empty token", func(t *testing.T) {
		_, err := a.ValidateJWT("")
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := a.ValidateJWT("invalid.token.here")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: 1, Username: "x",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}})
		signed, err := other.SignedString([]byte("a-completely-different-secret-key"))
		require.NoError(t, err)

		_, err = a.ValidateJWT(signed)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: 1, Username: "x",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				Issuer:    "payment-router",
			}})
		signed, err := expired.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = a.ValidateJWT(signed)
		assert.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	a := newTestAuth(t, false)

	// The sqlite adapter seeds a default admin/admin user
	token, claims, err := a.Login("admin", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, claims.IsDefault)

	_, _, err = a.Login("admin", "wrong")
	assert.Error(t, err)

	_, _, err = a.Login("ghost", "admin")
	assert.Error(t, err)
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newTestAuth(t, true)

	token, _, err := a.Login("admin", "admin")
	require.NoError(t, err)

	_, err = a.ValidateJWT(token)
	require.NoError(t, err)

	require.NoError(t, a.Logout(token))

	_, err = a.ValidateJWT(token)
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	a := newTestAuth(t, false)

	var seenUser string
	handler := a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = r.Header.Get("X-Username")
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/routing/rules", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/routing/rules", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid bearer token", func(t *testing.T) {
		token, _, err := a.Login("admin", "admin")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/routing/rules", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin", seenUser)
	})
}
