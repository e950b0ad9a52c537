package models

// RepoCount is one row of a common-repo frequency table: how many distinct
// stargazers own or star the same repository. Owned repos are keyed by short
// name (coordinated accounts tend to own identically named repos); starred
// repos by full name.
type RepoCount struct {
	Name  string  `json:"repo_name"`
	Count int     `json:"count"`
	Share float64 `json:"share"` // fraction of stargazers with known data
}

// BucketCount is one bucket of an ordered distribution.
type BucketCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// StargazerScore is the derived suspicion verdict for one stargazer.
type StargazerScore struct {
	Login       string   `json:"login"`
	AccountType string   `json:"account_type"`
	Score       float64  `json:"score"`
	Signals     []string `json:"signals"`
	Flagged     bool     `json:"flagged"`
}

// Report is the read-only aggregate computed from one run's collection.
// It is deterministic given identical input tables.
type Report struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`

	TotalStargazers int            `json:"total_stargazers"`
	PartialRecords  int            `json:"partial_records"`
	AccountTypes    map[string]int `json:"account_types"`
	StatusCounts    map[string]int `json:"status_counts"`

	AgeBuckets   []BucketCount `json:"age_buckets"`
	RatioBuckets []BucketCount `json:"ratio_buckets"`

	ZeroRepoCount int `json:"zero_repo_count"`
	ZeroRepoKnown int `json:"zero_repo_known"` // denominator: accounts with known repo count

	CommonOwnedRepos   []RepoCount `json:"common_owned_repos"`
	CommonStarredRepos []RepoCount `json:"common_starred_repos"`

	// Scores sorted by score descending, login ascending on ties.
	Scores        []StargazerScore   `json:"scores"`
	FlaggedCount  int                `json:"flagged_count"`
	MeanScore     float64            `json:"mean_score"`
	SettingsInUse *SuspicionSettings `json:"settings_in_use"`
}

// TopScores returns up to n highest-scoring stargazers
func (r *Report) TopScores(n int) []StargazerScore {
	if n > len(r.Scores) {
		n = len(r.Scores)
	}
	return r.Scores[:n]
}

// TopScore returns the highest suspicion score, or 0 for an empty report
func (r *Report) TopScore() float64 {
	if len(r.Scores) == 0 {
		return 0
	}
	return r.Scores[0].Score
}
