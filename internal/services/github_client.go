package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alimgiray/starscope/pkg/config"
	"github.com/alimgiray/starscope/pkg/logger"
	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// GitHubClient wraps the GitHub API with pagination helpers, rate-limit
// backoff, and bounded retries. It is stateless between calls.
type GitHubClient struct {
	client *github.Client
	cfg    config.GitHubConfig
}

// NewGitHubClient creates a client from configuration. An empty token falls
// back to unauthenticated requests (heavily rate limited by GitHub).
func NewGitHubClient(cfg *config.Config) (*GitHubClient, error) {
	var httpClient *http.Client
	if cfg.GitHub.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.GitHub.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	if cfg.GitHub.APIURL != "" {
		base := cfg.GitHub.APIURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid API URL %q: %w", cfg.GitHub.APIURL, err)
		}
		client.BaseURL = u
	}

	return &GitHubClient{client: client, cfg: cfg.GitHub}, nil
}

// GetRepository fetches the target repository, probing that it exists
func (c *GitHubClient) GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error) {
	var repository *github.Repository
	err := c.do(fmt.Sprintf("get repository %s/%s", owner, repo), func() error {
		var err error
		repository, _, err = c.client.Repositories.Get(ctx, owner, repo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return repository, nil
}

// ListStargazersPage fetches one page of stargazers with star timestamps.
// It returns the records and the next page number, 0 when exhausted.
func (c *GitHubClient) ListStargazersPage(ctx context.Context, owner, repo string, page int) ([]*github.Stargazer, int, error) {
	opts := &github.ListOptions{Page: page, PerPage: c.cfg.PerPage}

	var stargazers []*github.Stargazer
	nextPage := 0
	err := c.do(fmt.Sprintf("list stargazers %s/%s page %d", owner, repo, page), func() error {
		var resp *github.Response
		var err error
		stargazers, resp, err = c.client.Activity.ListStargazers(ctx, owner, repo, opts)
		if err != nil {
			return err
		}
		nextPage = resp.NextPage
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return stargazers, nextPage, nil
}

// GetUser fetches account details for one login
func (c *GitHubClient) GetUser(ctx context.Context, login string) (*github.User, error) {
	var user *github.User
	err := c.do(fmt.Sprintf("get user %s", login), func() error {
		var err error
		user, _, err = c.client.Users.Get(ctx, login)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListOwnedRepos fetches up to limit of the user's public repositories,
// most recently pushed first.
func (c *GitHubClient) ListOwnedRepos(ctx context.Context, login string, limit int) ([]*github.Repository, error) {
	if limit <= 0 {
		return nil, nil
	}

	perPage := c.cfg.PerPage
	if limit < perPage {
		perPage = limit
	}
	opts := &github.RepositoryListOptions{
		Sort:        "pushed",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var all []*github.Repository
	for {
		var repos []*github.Repository
		var nextPage int
		err := c.do(fmt.Sprintf("list repos of %s page %d", login, opts.Page), func() error {
			var resp *github.Response
			var err error
			repos, resp, err = c.client.Repositories.List(ctx, login, opts)
			if err != nil {
				return err
			}
			nextPage = resp.NextPage
			return nil
		})
		if err != nil {
			return nil, err
		}

		all = append(all, repos...)
		if len(all) >= limit {
			return all[:limit], nil
		}
		if nextPage == 0 {
			return all, nil
		}
		opts.Page = nextPage
	}
}

// ListStarredFirstPage fetches the first page of repositories starred by
// the user, as a sample of their starring behavior.
func (c *GitHubClient) ListStarredFirstPage(ctx context.Context, login string) ([]*github.StarredRepository, error) {
	opts := &github.ActivityListStarredOptions{
		ListOptions: github.ListOptions{PerPage: c.cfg.PerPage},
	}

	var starred []*github.StarredRepository
	err := c.do(fmt.Sprintf("list starred of %s", login), func() error {
		var err error
		starred, _, err = c.client.Activity.ListStarred(ctx, login, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return starred, nil
}

// ListRecentEvents fetches the user's recent public events, up to the
// configured number of pages.
func (c *GitHubClient) ListRecentEvents(ctx context.Context, login string) ([]*github.Event, error) {
	var all []*github.Event
	opts := &github.ListOptions{PerPage: 30}

	for page := 0; page < c.cfg.ActivityPages; page++ {
		var events []*github.Event
		var nextPage int
		err := c.do(fmt.Sprintf("list events of %s page %d", login, opts.Page), func() error {
			var resp *github.Response
			var err error
			events, resp, err = c.client.Activity.ListEventsPerformedByUser(ctx, login, true, opts)
			if err != nil {
				return err
			}
			nextPage = resp.NextPage
			return nil
		})
		if err != nil {
			return nil, err
		}

		all = append(all, events...)
		if nextPage == 0 {
			break
		}
		opts.Page = nextPage
	}
	return all, nil
}

// do runs one API call with the retry policy: rate limits sleep until reset
// and retry the same call without consuming the retry budget; 404 and 401
// fail immediately; other faults retry with exponential backoff.
func (c *GitHubClient) do(op string, fn func() error) error {
	attempts := 0
	for {
		err := fn()
		if err == nil {
			if c.cfg.RequestDelay > 0 {
				time.Sleep(c.cfg.RequestDelay)
			}
			return nil
		}

		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			if werr := c.waitForReset(op, time.Until(rateErr.Rate.Reset.Time)); werr != nil {
				return werr
			}
			continue
		}

		var abuseErr *github.AbuseRateLimitError
		if errors.As(err, &abuseErr) {
			wait := c.cfg.MinRateLimitWait
			if abuseErr.RetryAfter != nil {
				wait = *abuseErr.RetryAfter
			}
			if werr := c.waitForReset(op, wait); werr != nil {
				return werr
			}
			continue
		}

		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil {
			switch ghErr.Response.StatusCode {
			case http.StatusNotFound, http.StatusGone:
				return fmt.Errorf("%s: %w", op, ErrNotFound)
			case http.StatusUnauthorized:
				return fmt.Errorf("%s: %w", op, ErrAuth)
			}
		}

		attempts++
		if attempts >= c.cfg.MaxRetries {
			return fmt.Errorf("%s: %w after %d attempts: %v", op, ErrRequestFailed, attempts, err)
		}

		backoff := c.cfg.RetryBackoff
		for i := 1; i < attempts; i++ {
			backoff *= 2
		}
		logger.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempts,
			"backoff":   backoff.String(),
		}).WithError(err).Warnf("Request failed, retrying")
		time.Sleep(backoff)
	}
}

// waitForReset sleeps through a rate-limit window. The wait is clamped below
// by MinRateLimitWait (a reset timestamp already in the past still deserves
// a pause) and rejected above MaxRateLimitWait.
func (c *GitHubClient) waitForReset(op string, wait time.Duration) error {
	if wait < c.cfg.MinRateLimitWait {
		wait = c.cfg.MinRateLimitWait
	}
	if wait > c.cfg.MaxRateLimitWait {
		return fmt.Errorf("%s: %w: reset in %s exceeds maximum wait %s",
			op, ErrRateLimited, wait.Round(time.Second), c.cfg.MaxRateLimitWait)
	}

	logger.WithFields(logrus.Fields{
		"operation": op,
		"wait":      wait.Round(time.Second).String(),
	}).Warnf("Rate limit hit, sleeping until reset")
	time.Sleep(wait)
	return nil
}
