package models

import (
	"time"
)

// Starred-repo visibility as observed during collection.
const (
	StarredStatusPublic  = "public"
	StarredStatusPrivate = "private"
	StarredStatusUnknown = "unknown"
)

// Stargazer represents one account that starred the target repository.
// Pointer fields are nil when the account's sub-data could not be fetched;
// such records are marked Partial and tolerated downstream.
type Stargazer struct {
	Login       string    `json:"login"`
	AccountID   int64     `json:"account_id"`
	AccountType string    `json:"account_type"` // "User" or "Organization"
	StarredAt   time.Time `json:"starred_at"`

	PublicRepos      *int       `json:"public_repos"`
	Followers        *int       `json:"followers"`
	Following        *int       `json:"following"`
	AccountCreatedAt *time.Time `json:"account_created_at"`
	TotalStarred     *int       `json:"total_starred"`
	ActivityCount    *int       `json:"activity_count"`

	StarredStatus string `json:"starred_status"`
	Partial       bool   `json:"partial"`
}

// IsOrganization reports whether the account is an organization
func (s *Stargazer) IsOrganization() bool {
	return s.AccountType == "Organization"
}

// AccountAgeAtStar returns how old the account was when it starred the
// target repository, or false if the creation time is unknown.
func (s *Stargazer) AccountAgeAtStar() (time.Duration, bool) {
	if s.AccountCreatedAt == nil {
		return 0, false
	}
	return s.StarredAt.Sub(*s.AccountCreatedAt), true
}

// FollowerRatio returns followers/following, or false when either side is
// unknown or the account follows nobody.
func (s *Stargazer) FollowerRatio() (float64, bool) {
	if s.Followers == nil || s.Following == nil || *s.Following == 0 {
		return 0, false
	}
	return float64(*s.Followers) / float64(*s.Following), true
}
