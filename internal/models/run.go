package models

import (
	"time"

	"github.com/google/uuid"
)

// Run is the archived summary of one completed audit.
type Run struct {
	ID         string    `json:"id" db:"id"`
	Owner      string    `json:"owner" db:"owner"`
	Repo       string    `json:"repo" db:"repo"`
	Prefix     string    `json:"prefix" db:"prefix"`
	Stargazers int       `json:"stargazers" db:"stargazers"`
	Suspicious int       `json:"suspicious" db:"suspicious"`
	TopScore   float64   `json:"top_score" db:"top_score"`
	MeanScore  float64   `json:"mean_score" db:"mean_score"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// NewRun creates a new Run with a generated UUID
func NewRun(owner, repo, prefix string) *Run {
	return &Run{
		ID:        uuid.New().String(),
		Owner:     owner,
		Repo:      repo,
		Prefix:    prefix,
		CreatedAt: time.Now(),
	}
}

// RunScore is one archived per-stargazer score row.
type RunScore struct {
	RunID       string  `json:"run_id" db:"run_id"`
	Login       string  `json:"login" db:"login"`
	AccountType string  `json:"account_type" db:"account_type"`
	Score       float64 `json:"score" db:"score"`
	Signals     string  `json:"signals" db:"signals"` // comma-separated signal names
}
