package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/chat"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/domain"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/identity"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// ChatSession groups transcript entries under a date for the profile page.
type ChatSession struct {
	Date     string                `json:"date"`
	Messages []domain.MessageEntry `json:"messages"`
}

// ProfileResponse is the body of GET /api/profile.
type ProfileResponse struct {
	Profile     domain.Profile `json:"profile"`
	ChatHistory []ChatSession  `json:"chat_history"`
}

// Chat handles POST /api/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}

	sess := identity.SessionFromContext(r.Context())
	reply, err := h.svc.HandleTurn(r.Context(), sess, req.Message)
	if errors.Is(err, chat.ErrSessionExpired) {
		Error(w, http.StatusUnauthorized, "Session error. Please log in again.")
		return
	}
	if err != nil {
		slog.Error("Chat turn failed", "username", sess.Username(), "error", err)
		Error(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	JSON(w, http.StatusOK, chatResponse{Response: reply})
}

// ClearChat handles POST /api/clear_chat.
func (h *Handler) ClearChat(w http.ResponseWriter, r *http.Request) {
	sess := identity.SessionFromContext(r.Context())
	err := h.svc.ClearHistory(r.Context(), sess)
	if errors.Is(err, chat.ErrSessionExpired) {
		JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "User not found"})
		return
	}
	if err != nil {
		slog.Error("Clear chat failed", "username", sess.Username(), "error", err)
		JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "failed to clear chat"})
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Profile handles GET /api/profile. The stored transcript is shown as one
// session dated today.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	username := identity.SessionFromContext(r.Context()).Username()

	p, err := h.svc.GetProfile(r.Context(), username)
	if err != nil {
		slog.Error("Load profile failed", "username", username, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	entries, err := h.svc.GetHistory(r.Context(), username)
	if err != nil {
		slog.Error("Load history failed", "username", username, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}

	resp := ProfileResponse{Profile: p, ChatHistory: []ChatSession{}}
	if len(entries) > 0 {
		resp.ChatHistory = append(resp.ChatHistory, ChatSession{
			Date:     time.Now().Format("2006-01-02"),
			Messages: entries,
		})
	}
	JSON(w, http.StatusOK, resp)
}

// History handles GET /api/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	username := identity.SessionFromContext(r.Context()).Username()
	entries, err := h.svc.GetHistory(r.Context(), username)
	if err != nil {
		slog.Error("Load history failed", "username", username, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}
	JSON(w, http.StatusOK, map[string][]domain.MessageEntry{"messages": entries})
}
