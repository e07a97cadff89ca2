package models

import (
	"strings"
	"time"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCalled    Status = "called"
	StatusServing   Status = "serving"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Active reports whether the entry still occupies a slot in the queue.
func (s Status) Active() bool {
	return s == StatusWaiting || s == StatusCalled || s == StatusServing
}

// Terminal reports whether the status can never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Entry struct {
	ID            string     `json:"id"`
	DisplayNumber string     `json:"display_number"`
	Name          string     `json:"name"`
	Contact       string     `json:"contact"`
	JoinedAt      time.Time  `json:"joined_at"`
	Status        Status     `json:"status"`
	Position      int        `json:"position"`
	EstimatedWait int        `json:"estimated_wait_minutes"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	NotifiedAt    *time.Time `json:"notified_at,omitempty"`
}

// MatchesIdentity reports whether the entry belongs to the same customer,
// using the duplicate-detection key (case-insensitive trimmed name + contact).
func (e *Entry) MatchesIdentity(name, contact string) bool {
	return e.Contact == contact &&
		strings.EqualFold(strings.TrimSpace(e.Name), strings.TrimSpace(name))
}

// VerificationClaim is the payload carried inside a queue ticket token.
type VerificationClaim struct {
	DisplayNumber string `json:"display_number"`
	Contact       string `json:"contact"`
	Timestamp     int64  `json:"timestamp"`
}
