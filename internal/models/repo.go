package models

import "time"

// OwnedRepo is one repository owned by a stargazer, as sampled during
// collection (most recently pushed first).
type OwnedRepo struct {
	OwnerLogin  string     `json:"owner_login"`
	Name        string     `json:"repo_name"`
	FullName    string     `json:"repo_full_name"`
	Description string     `json:"description"`
	Stars       int        `json:"stars"`
	Forks       int        `json:"forks"`
	CreatedAt   *time.Time `json:"created_at"`
	PushedAt    *time.Time `json:"pushed_at"`
}

// StarredRepo is one repository starred by a stargazer (first page sample).
type StarredRepo struct {
	Login       string     `json:"login"`
	FullName    string     `json:"repo_full_name"`
	Description string     `json:"description"`
	Stars       int        `json:"stars"`
	Forks       int        `json:"forks"`
	CreatedAt   *time.Time `json:"created_at"`
	PushedAt    *time.Time `json:"pushed_at"`
}
