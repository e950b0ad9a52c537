package services

import "errors"

// Error taxonomy for the collection pipeline. Run-level failures wrap one of
// these sentinels; per-stargazer failures are recorded as partial records
// and never surface here.
var (
	// ErrNotFound means the target repository or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAuth means the credential is missing, malformed, or rejected.
	ErrAuth = errors.New("authentication failed")

	// ErrRateLimited means the API quota reset is further away than the
	// configured maximum wait.
	ErrRateLimited = errors.New("rate limited")

	// ErrRequestFailed means a transient fault persisted through the
	// retry budget.
	ErrRequestFailed = errors.New("request failed")
)
