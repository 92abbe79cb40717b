package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"payment-router/internal/common/errors"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewUsername     string `json:"new_username"`
	NewPassword     string `json:"new_password"`
}

// Login validates credentials and issues a JWT.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		h.respondError(w, errors.ValidationError("username and password are required"))
		return
	}

	token, claims, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"username":   claims.Username,
		"is_default": claims.IsDefault,
		"expires_at": claims.ExpiresAt.Time,
	})
}

// Logout blacklists the presented token for its remaining lifetime.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		h.respondError(w, errors.AuthError("missing bearer token"))
		return
	}

	if err := h.auth.Logout(token); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// ChangeCredentials updates the authenticated user's username and password.
// Changing away from the default admin/admin credentials clears the
// is_default flag on future tokens.
func (h *Handlers) ChangeCredentials(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(r.Header.Get("X-User-ID"))
	if err != nil {
		h.respondError(w, errors.AuthError("not authenticated"))
		return
	}
	username := r.Header.Get("X-Username")

	var req changePasswordRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if req.NewPassword == "" {
		h.respondError(w, errors.ValidationError("new_password is required"))
		return
	}
	if _, _, err := h.auth.Login(username, req.CurrentPassword); err != nil {
		h.respondError(w, errors.AuthError("current password is incorrect"))
		return
	}

	newUsername := req.NewUsername
	if newUsername == "" {
		newUsername = username
	}
	if err := h.storage.UpdateUserCredentials(userID, newUsername, req.NewPassword); err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "credentials updated"})
}
