package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/chat"
	"github.com/NadhiyaSeelam/MindCare-AI/internal/identity"
)

// ChatSocket handles GET /ws/chat. Each text frame from the client is one
// chat turn; the frame may be the raw utterance or {"message": "..."}. Each
// reply is sent back as {"response": "..."}.
func (h *Handler) ChatSocket(w http.ResponseWriter, r *http.Request) {
	sess := identity.SessionFromContext(r.Context())
	username := sess.Username()

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "username", username)
		return
	}
	defer func() {
		if closeErr := ws.CloseNow(); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "username", username)
		}
	}()

	slog.Info("Chat socket opened", "username", username, "ip", r.RemoteAddr)
	h.chatLoop(r.Context(), ws, identity.TokenFromContext(r.Context()), sess)
	slog.Info("Chat socket closed", "username", username)
}

// chatLoop runs turns until the socket closes. Each handled frame refreshes
// the token so an open conversation is not expired as idle.
func (h *Handler) chatLoop(ctx context.Context, ws *websocket.Conn, token string, sess *chat.Session) {
	for {
		typ, frame, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 {
				slog.Warn("WebSocket read error", "error", err, "username", sess.Username())
			}
			return
		}
		if typ != websocket.MessageText {
			_ = ws.Close(websocket.StatusUnsupportedData, "text frames only")
			return
		}

		reply, err := h.svc.HandleTurn(ctx, sess, utteranceFromFrame(frame))
		if errors.Is(err, chat.ErrSessionExpired) {
			_ = writeFrame(ctx, ws, map[string]string{"error": "Session error. Please log in again."})
			_ = ws.Close(websocket.StatusPolicyViolation, "session expired")
			return
		}
		if err != nil {
			slog.Error("Chat turn failed", "username", sess.Username(), "error", err)
			if writeErr := writeFrame(ctx, ws, map[string]string{"error": "failed to process message"}); writeErr != nil {
				return
			}
			continue
		}

		h.reg.Touch(token)

		if err := writeFrame(ctx, ws, chatResponse{Response: reply}); err != nil {
			slog.Debug("WebSocket write error", "error", err, "username", sess.Username())
			return
		}
	}
}

// utteranceFromFrame unwraps {"message": ...} frames and otherwise uses the
// frame text as is. Text that happens to decode as that object, such as
// "null" or "{}", yields an empty message and gets the blank-input reply.
func utteranceFromFrame(frame []byte) string {
	var req chatRequest
	if err := json.Unmarshal(frame, &req); err == nil {
		return req.Message
	}
	return string(frame)
}

func writeFrame(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
