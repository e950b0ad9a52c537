package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alimgiray/starscope/internal/models"
	"github.com/alimgiray/starscope/pkg/config"
	"github.com/alimgiray/starscope/pkg/logger"
	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
)

// CollectorService builds the run's record sets: stargazers, owned repos,
// starred repos, and recent activity. Per-stargazer failures degrade to
// partial records; only run-level failures (target missing, bad credential,
// exhausted retries on the stargazer list) abort.
type CollectorService struct {
	client *GitHubClient
	cfg    config.GitHubConfig
}

func NewCollectorService(client *GitHubClient, cfg *config.Config) *CollectorService {
	return &CollectorService{
		client: client,
		cfg:    cfg.GitHub,
	}
}

// Collect fetches all stargazers of owner/repo (up to limit when limit > 0,
// truncating records rather than pages) and their sub-data, preserving API
// return order.
func (s *CollectorService) Collect(ctx context.Context, owner, repo string, limit int) (*models.Collection, error) {
	// Probe the target first so NotFound/Auth abort before any work.
	repository, err := s.client.GetRepository(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"repository": repository.GetFullName(),
		"stars":      repository.GetStargazersCount(),
		"limit":      limit,
	}).Infof("Starting stargazer collection")

	raw, err := s.fetchStargazers(ctx, owner, repo, limit)
	if err != nil {
		return nil, err
	}

	collection := &models.Collection{Owner: owner, Repo: repo}
	for i, sg := range raw {
		logger.WithFields(logrus.Fields{
			"login":    sg.GetUser().GetLogin(),
			"position": fmt.Sprintf("%d/%d", i+1, len(raw)),
		}).Debugf("Processing stargazer")

		if err := s.collectStargazer(ctx, sg, collection); err != nil {
			return nil, err
		}
	}

	// Orphaned sub-records would be a collection bug, not bad input.
	if err := collection.Validate(); err != nil {
		return nil, fmt.Errorf("collection integrity: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"stargazers":    len(collection.Stargazers),
		"owned_repos":   len(collection.OwnedRepos),
		"starred_repos": len(collection.StarredRepos),
		"activity":      len(collection.Activity),
	}).Infof("Collection finished")

	return collection, nil
}

// fetchStargazers paginates the stargazer list until exhausted or the limit
// is reached. The last page may be consumed only partially.
func (s *CollectorService) fetchStargazers(ctx context.Context, owner, repo string, limit int) ([]*github.Stargazer, error) {
	var all []*github.Stargazer
	page := 1
	for {
		stargazers, nextPage, err := s.client.ListStargazersPage(ctx, owner, repo, page)
		if err != nil {
			return nil, err
		}
		all = append(all, stargazers...)

		logger.WithFields(logrus.Fields{
			"page":    page,
			"fetched": len(all),
		}).Debugf("Fetched stargazer page")

		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}
		if nextPage == 0 {
			return all, nil
		}
		page = nextPage
	}
}

// collectStargazer appends one stargazer and its sub-records to the
// collection. Sub-data failures mark the record partial and move on;
// credential and rate-limit-cap failures propagate as fatal.
func (s *CollectorService) collectStargazer(ctx context.Context, sg *github.Stargazer, collection *models.Collection) error {
	account := sg.GetUser()
	record := &models.Stargazer{
		Login:         account.GetLogin(),
		AccountID:     account.GetID(),
		AccountType:   account.GetType(),
		StarredAt:     sg.GetStarredAt().Time,
		StarredStatus: models.StarredStatusUnknown,
	}

	user, err := s.client.GetUser(ctx, record.Login)
	if err != nil {
		if isFatal(err) {
			return err
		}
		logger.WithField("login", record.Login).WithError(err).Warnf("Could not fetch account details, recording partial")
		record.Partial = true
		collection.Stargazers = append(collection.Stargazers, record)
		return nil
	}

	record.PublicRepos = user.PublicRepos
	record.Followers = user.Followers
	record.Following = user.Following
	if user.CreatedAt != nil {
		record.AccountCreatedAt = timePtr(user.CreatedAt)
	}
	if user.Type != nil {
		record.AccountType = user.GetType()
	}

	if record.PublicRepos != nil && *record.PublicRepos > 0 {
		repos, err := s.client.ListOwnedRepos(ctx, record.Login, s.cfg.OwnedRepoLimit)
		if err != nil {
			if isFatal(err) {
				return err
			}
			logger.WithField("login", record.Login).WithError(err).Warnf("Could not fetch owned repos, recording partial")
			record.Partial = true
		} else {
			for _, r := range repos {
				collection.OwnedRepos = append(collection.OwnedRepos, &models.OwnedRepo{
					OwnerLogin:  record.Login,
					Name:        r.GetName(),
					FullName:    r.GetFullName(),
					Description: r.GetDescription(),
					Stars:       r.GetStargazersCount(),
					Forks:       r.GetForksCount(),
					CreatedAt:   timePtr(r.CreatedAt),
					PushedAt:    timePtr(r.PushedAt),
				})
			}
		}
	}

	starredVisible := false
	starred, err := s.client.ListStarredFirstPage(ctx, record.Login)
	if err != nil {
		if isFatal(err) {
			return err
		}
		logger.WithField("login", record.Login).WithError(err).Warnf("Could not fetch starred repos, recording partial")
		record.Partial = true
	} else {
		count := len(starred)
		record.TotalStarred = &count
		if count == 0 {
			record.StarredStatus = models.StarredStatusPrivate
		} else {
			record.StarredStatus = models.StarredStatusPublic
			starredVisible = true
		}
		for _, st := range starred {
			r := st.GetRepository()
			collection.StarredRepos = append(collection.StarredRepos, &models.StarredRepo{
				Login:       record.Login,
				FullName:    r.GetFullName(),
				Description: r.GetDescription(),
				Stars:       r.GetStargazersCount(),
				Forks:       r.GetForksCount(),
				CreatedAt:   timePtr(r.CreatedAt),
				PushedAt:    timePtr(r.PushedAt),
			})
		}
	}

	// Activity listing is only meaningful for accounts with public signals,
	// mirroring how private accounts forbid event access.
	hasPublicSignal := starredVisible || (record.PublicRepos != nil && *record.PublicRepos > 0)
	if hasPublicSignal {
		events, err := s.client.ListRecentEvents(ctx, record.Login)
		if err != nil {
			if isFatal(err) {
				return err
			}
			logger.WithField("login", record.Login).WithError(err).Warnf("Could not fetch activity, recording partial")
			record.Partial = true
		} else {
			count := len(events)
			record.ActivityCount = &count
			for _, ev := range events {
				collection.Activity = append(collection.Activity, &models.ActivityEvent{
					Login:          record.Login,
					EventType:      ev.GetType(),
					RepoName:       ev.GetRepo().GetName(),
					EventTimestamp: ev.GetCreatedAt().Time,
				})
			}
		}
	}

	collection.Stargazers = append(collection.Stargazers, record)
	return nil
}

// isFatal reports whether a per-stargazer fetch error must abort the run
func isFatal(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrRateLimited)
}

func timePtr(ts *github.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time
	return &t
}
