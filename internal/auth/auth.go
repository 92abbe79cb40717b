// Package auth issues and validates the JWT bearer tokens used by the
// admin API. Logout blacklists the token in Redis for the remainder of
// its lifetime; without Redis, tokens stay valid until expiry.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"payment-router/internal/common/errors"
	"payment-router/internal/config"
	"payment-router/internal/redis"
	"payment-router/internal/storage"
)

const (
	tokenLifetime     = 24 * time.Hour
	blacklistKeyStamp = "jwt:blacklist:%s"
	issuer            = "payment-router"
)

// Claims is the JWT payload for authenticated admin users.
type Claims struct {
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	IsDefault bool   `json:"is_default"`
	jwt.RegisteredClaims
}

type Auth struct {
	storage storage.Storage
	secret  []byte
	redis   *redis.Client
}

// New creates the auth service. The JWT secret must be configured; config
// validation enforces length.
func New(st storage.Storage, cfg *config.Config, redisClient *redis.Client) (*Auth, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.ConfigError("JWT_SECRET is required")
	}
	return &Auth{
		storage: st,
		secret:  []byte(cfg.JWTSecret),
		redis:   redisClient,
	}, nil
}

// Login validates credentials and returns a signed token.
func (a *Auth) Login(username, password string) (string, *Claims, error) {
	user, err := a.storage.ValidateUser(username, password)
	if err != nil {
		return "", nil, errors.AuthError("invalid credentials")
	}

	token, claims, err := a.GenerateJWT(user.ID, user.Username, user.IsDefault)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// GenerateJWT signs a token for the given user.
func (a *Auth) GenerateJWT(userID int, username string, isDefault bool) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		IsDefault: isDefault,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// ValidateJWT parses and verifies a token, including the revocation list.
func (a *Auth) ValidateJWT(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.AuthError("token is required")
	}

	if a.redis != nil {
		key := fmt.Sprintf(blacklistKeyStamp, tokenString)
		if _, err := a.redis.Get(context.Background(), key); err == nil {
			return nil, errors.AuthError("token has been revoked")
		}
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, errors.AuthError("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.AuthError("invalid token")
	}
	return claims, nil
}

// Logout revokes a token by blacklisting it until it would have expired.
func (a *Auth) Logout(tokenString string) error {
	if a.redis == nil {
		return nil
	}

	claims, err := a.ValidateJWT(tokenString)
	if err != nil {
		return nil // already unusable
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}

	key := fmt.Sprintf(blacklistKeyStamp, tokenString)
	return a.redis.Set(context.Background(), key, "1", remaining)
}

// RequireAuth guards admin endpoints. The token is taken from the
// Authorization header in standard Bearer form.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w)
			return
		}

		claims, err := a.ValidateJWT(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			unauthorized(w)
			return
		}

		// Expose identity to handlers through request headers
		r.Header.Set("X-User-ID", strconv.Itoa(claims.UserID))
		r.Header.Set("X-Username", claims.Username)
		if claims.IsDefault {
			r.Header.Set("X-Is-Default", "true")
		}

		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": "Authentication required"}`))
}
