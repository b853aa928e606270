package identity

import (
	"context"
	"log/slog"
	"time"

	"github.com/NadhiyaSeelam/MindCare-AI/internal/chat"
)

// ExpireFunc finalizes a session whose token went idle.
type ExpireFunc func(ctx context.Context, sess *chat.Session) error

// StartExpiryWorker runs a background goroutine that periodically sweeps the
// registry for sessions idle longer than ttl and finalizes them.
func StartExpiryWorker(ctx context.Context, reg *Registry, ttl, interval time.Duration, expire ExpireFunc) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session expiry worker started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				expireIdleSessions(ctx, reg, ttl, expire)
			case <-ctx.Done():
				slog.Info("Session expiry worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func expireIdleSessions(ctx context.Context, reg *Registry, ttl time.Duration, expire ExpireFunc) int {
	idle := reg.Idle(ttl)
	if len(idle) == 0 {
		return 0
	}

	expired := 0
	for _, e := range idle {
		if !reg.RemoveIfIdle(e.Token, ttl) {
			continue
		}
		if err := expire(ctx, e.Session); err != nil {
			slog.Error("Failed to finalize expired session, will retry",
				"username", e.Session.Username(),
				"error", err)
			reg.restore(e)
			continue
		}
		expired++
	}

	slog.Info("Session expiry sweep completed", "idle", len(idle), "expired", expired)
	return expired
}

// FinalizeAll ends every registered session. It is used at shutdown so
// buffers are flushed before the process exits.
func FinalizeAll(ctx context.Context, reg *Registry, expire ExpireFunc) {
	reg.mu.Lock()
	entries := make([]*Entry, 0, len(reg.sessions))
	for token, e := range reg.sessions {
		entries = append(entries, e)
		delete(reg.sessions, token)
	}
	reg.mu.Unlock()

	for _, e := range entries {
		if err := expire(ctx, e.Session); err != nil {
			slog.Error("Failed to finalize session at shutdown", "username", e.Session.Username(), "error", err)
		}
	}
}
