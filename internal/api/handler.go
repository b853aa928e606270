// Package api provides HTTP handlers for the MindCare API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/chat"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/identity"
)

// maxRequestBodySize caps JSON request bodies (1MB).
const maxRequestBodySize = 1 << 20

// Handler serves the account, chat and profile endpoints.
type Handler struct {
	svc            *chat.Service
	reg            *identity.Registry
	isDev          bool
	originPatterns []string
}

// NewHandler creates a new Handler. originPatterns restricts which origins
// may open the chat websocket; "*" allows any.
func NewHandler(svc *chat.Service, reg *identity.Registry, isDev bool, originPatterns []string) *Handler {
	if isDev || len(originPatterns) == 0 {
		originPatterns = []string{"*"}
	}
	return &Handler{svc: svc, reg: reg, isDev: isDev, originPatterns: originPatterns}
}

// RegisterRoutes mounts the API on r. Routes that need a login are wrapped
// in identity.RequireSession.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(h.reg))

		r.Post("/api/signup", h.Signup)
		r.Post("/api/login", h.Login)
		r.Post("/api/logout", h.Logout)
		// Chat checks the session itself so blank input is answered either way.
		r.Post("/api/chat", h.Chat)

		r.Group(func(r chi.Router) {
			r.Use(identity.RequireSession)
			r.Post("/api/clear_chat", h.ClearChat)
			r.Get("/api/profile", h.Profile)
			r.Get("/api/history", h.History)
			r.Get("/ws/chat", h.ChatSocket)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decode reads a JSON body into v, reporting whether it succeeded. On
// failure the error response has already been written.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
