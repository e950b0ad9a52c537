package models

import "time"

// ActivityEvent is one public event performed by a stargazer.
type ActivityEvent struct {
	Login          string    `json:"login"`
	EventType      string    `json:"event_type"`
	RepoName       string    `json:"repo_name"`
	EventTimestamp time.Time `json:"event_timestamp"`
}
