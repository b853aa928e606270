// Package domain contains core domain types for the MindCare application.
package domain

import (
	"time"
)

// TimestampLayout is the layout used for profile timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// UnknownTimestamp marks a profile timestamp that could not be recovered.
const UnknownTimestamp = "Unknown"

// Profile holds the per-user statistics shown on the profile page.
type Profile struct {
	Username      string `json:"username"`
	CreatedDate   string `json:"created_date"`
	TotalSessions int    `json:"total_sessions"`
	TotalMessages int    `json:"total_messages"`
	LastActive    string `json:"last_active"`
}

// NewProfile returns a fresh profile created at now.
func NewProfile(username string, now time.Time) Profile {
	ts := now.Format(TimestampLayout)
	return Profile{
		Username:    username,
		CreatedDate: ts,
		LastActive:  ts,
	}
}

// RecoveredProfile returns the degraded profile used when the stored record
// cannot be parsed.
func RecoveredProfile(username string, now time.Time) Profile {
	return Profile{
		Username:    username,
		CreatedDate: UnknownTimestamp,
		LastActive:  now.Format(TimestampLayout),
	}
}

// Touch sets LastActive to now.
func (p *Profile) Touch(now time.Time) {
	p.LastActive = now.Format(TimestampLayout)
}
