package models

import "fmt"

// Collection holds everything gathered in one run, in API return order.
type Collection struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`

	Stargazers   []*Stargazer     `json:"stargazers"`
	OwnedRepos   []*OwnedRepo     `json:"owned_repos"`
	StarredRepos []*StarredRepo   `json:"starred_repos"`
	Activity     []*ActivityEvent `json:"activity"`
}

// Validate checks referential completeness: every sub-record must point at
// a stargazer collected in the same run.
func (c *Collection) Validate() error {
	logins := make(map[string]struct{}, len(c.Stargazers))
	for _, sg := range c.Stargazers {
		logins[sg.Login] = struct{}{}
	}
	for _, r := range c.OwnedRepos {
		if _, ok := logins[r.OwnerLogin]; !ok {
			return fmt.Errorf("owned repo %s references unknown stargazer %s", r.FullName, r.OwnerLogin)
		}
	}
	for _, r := range c.StarredRepos {
		if _, ok := logins[r.Login]; !ok {
			return fmt.Errorf("starred repo %s references unknown stargazer %s", r.FullName, r.Login)
		}
	}
	for _, e := range c.Activity {
		if _, ok := logins[e.Login]; !ok {
			return fmt.Errorf("activity event references unknown stargazer %s", e.Login)
		}
	}
	return nil
}
