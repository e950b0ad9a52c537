package models

import "errors"

// Suspicion signal names, stable across runs so archived scores can be
// compared.
const (
	SignalNewAccount    = "new_account"
	SignalZeroRepos     = "zero_public_repos"
	SignalFollowerRatio = "follower_ratio"
	SignalNoActivity    = "no_activity"
)

// SuspicionSettings holds the weights and thresholds for the per-stargazer
// suspicion score. Weights are relative; the final score is normalized to
// 0-100 over the signals that were actually observable for the account.
type SuspicionSettings struct {
	NewAccountWeight    int     `json:"new_account_weight"`
	ZeroRepoWeight      int     `json:"zero_repo_weight"`
	FollowerRatioWeight int     `json:"follower_ratio_weight"`
	NoActivityWeight    int     `json:"no_activity_weight"`
	AgeThresholdDays    int     `json:"age_threshold_days"`
	RatioThreshold      float64 `json:"ratio_threshold"`
	MinFollowing        int     `json:"min_following"`
	FlagThreshold       float64 `json:"flag_threshold"`
}

// DefaultSuspicionSettings returns the default weighting
func DefaultSuspicionSettings() *SuspicionSettings {
	return &SuspicionSettings{
		NewAccountWeight:    35,
		ZeroRepoWeight:      25,
		FollowerRatioWeight: 20,
		NoActivityWeight:    20,
		AgeThresholdDays:    90,
		RatioThreshold:      0.1,
		MinFollowing:        10,
		FlagThreshold:       50,
	}
}

// Validate validates the settings
func (s *SuspicionSettings) Validate() error {
	if s.NewAccountWeight < 0 || s.ZeroRepoWeight < 0 ||
		s.FollowerRatioWeight < 0 || s.NoActivityWeight < 0 {
		return errors.New("signal weights must be non-negative")
	}
	if s.NewAccountWeight+s.ZeroRepoWeight+s.FollowerRatioWeight+s.NoActivityWeight == 0 {
		return errors.New("at least one signal weight must be positive")
	}
	if s.AgeThresholdDays <= 0 {
		return errors.New("age threshold must be positive")
	}
	if s.RatioThreshold <= 0 {
		return errors.New("ratio threshold must be positive")
	}
	if s.FlagThreshold < 0 || s.FlagThreshold > 100 {
		return errors.New("flag threshold must be between 0 and 100")
	}
	return nil
}
