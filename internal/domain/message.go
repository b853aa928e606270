package domain

import "time"

// MessageType identifies who authored a chat entry.
type MessageType string

const (
	// MessageTypeUser marks an utterance typed by the user.
	MessageTypeUser MessageType = "user"
	// MessageTypeBot marks a reply produced by the classifier.
	MessageTypeBot MessageType = "bot"
)

// ClockLayout is the layout of MessageEntry.Timestamp.
const ClockLayout = "15:04"

// MessageEntry is a single line of the chat transcript.
type MessageEntry struct {
	Type      MessageType `json:"type"`
	Message   string      `json:"message"`
	Timestamp string      `json:"timestamp"`
}

// Exchange builds the user/bot pair for one chat turn. Both entries share
// the same clock timestamp.
func Exchange(utterance, reply string, now time.Time) [2]MessageEntry {
	ts := now.Format(ClockLayout)
	return [2]MessageEntry{
		{Type: MessageTypeUser, Message: utterance, Timestamp: ts},
		{Type: MessageTypeBot, Message: reply, Timestamp: ts},
	}
}

// LastN returns the most recent n entries of history.
func LastN(history []MessageEntry, n int) []MessageEntry {
	if n >= len(history) {
		return history
	}
	if n <= 0 {
		return history[len(history):]
	}
	return history[len(history)-n:]
}
