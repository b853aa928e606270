package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/account"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/chat"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/identity"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Signup handles POST /api/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	err := h.svc.Signup(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, account.ErrAlreadyExists):
		Error(w, http.StatusConflict, "Username already exists.")
	case errors.Is(err, account.ErrInvalidUsername):
		Error(w, http.StatusBadRequest, "Usernames may only contain letters, digits, '.', '_', '@' and '-'.")
	case errors.Is(err, account.ErrEmptyPassword):
		Error(w, http.StatusBadRequest, "Password is required.")
	case err != nil:
		slog.Error("Signup failed", "username", req.Username, "error", err)
		Error(w, http.StatusInternalServerError, "failed to create account")
	default:
		JSON(w, http.StatusCreated, messageResponse{Message: "Account created successfully! Please log in."})
	}
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, chat.ErrInvalidCredentials) {
		Error(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}
	if err != nil {
		slog.Error("Login failed", "username", req.Username, "error", err)
		Error(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	identity.SetSessionCookie(w, h.reg.Register(sess), h.isDev)
	JSON(w, http.StatusOK, map[string]string{
		"message":  "Login successful!",
		"username": sess.Username(),
	})
}

// Logout handles POST /api/logout. It succeeds even without a session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := identity.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.svc.Logout(r.Context(), sess); err != nil {
			slog.Error("Logout flush failed", "username", sess.Username(), "error", err)
			Error(w, http.StatusInternalServerError, "failed to save chat history")
			return
		}
		h.reg.Remove(identity.TokenFromContext(r.Context()))
	}

	identity.ClearSessionCookie(w, h.isDev)
	JSON(w, http.StatusOK, messageResponse{Message: "You have been logged out."})
}
