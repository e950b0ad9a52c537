package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alimgiray/starscope/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a client at a fake API server with waits shrunk so
// retry paths run in milliseconds.
func newTestClient(t *testing.T, serverURL string) *GitHubClient {
	t.Helper()

	cfg := &config.Config{
		GitHub: config.GitHubConfig{
			APIURL:           serverURL,
			PerPage:          100,
			MaxRetries:       3,
			RetryBackoff:     time.Millisecond,
			RequestDelay:     0,
			MinRateLimitWait: time.Millisecond,
			MaxRateLimitWait: time.Second,
			OwnedRepoLimit:   5,
			ActivityPages:    1,
		},
	}
	client, err := NewGitHubClient(cfg)
	require.NoError(t, err)
	return client
}

func TestGetRepository(t *testing.T) {
	var requests int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"full_name":"octocat/hello","stargazers_count":42}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	repo, err := client.GetRepository(t.Context(), "octocat", "hello")

	require.NoError(t, err)
	assert.Equal(t, "octocat/hello", repo.GetFullName())
	assert.Equal(t, 42, repo.GetStargazersCount())
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestGetRepositoryErrors(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		expectedErr error
		// How many requests the client should make before giving up.
		expectedRequests int32
	}{
		{
			name:             "404 fails immediately as not found",
			status:           http.StatusNotFound,
			expectedErr:      ErrNotFound,
			expectedRequests: 1,
		},
		{
			name:             "410 fails immediately as not found",
			status:           http.StatusGone,
			expectedErr:      ErrNotFound,
			expectedRequests: 1,
		},
		{
			name:             "401 fails immediately as auth failure",
			status:           http.StatusUnauthorized,
			expectedErr:      ErrAuth,
			expectedRequests: 1,
		},
		{
			name:             "500 exhausts the retry budget",
			status:           http.StatusInternalServerError,
			expectedErr:      ErrRequestFailed,
			expectedRequests: 3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var requests int32
			mux := http.NewServeMux()
			mux.HandleFunc("/repos/octocat/hello", func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&requests, 1)
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"message":"nope"}`)
			})
			server := httptest.NewServer(mux)
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.GetRepository(t.Context(), "octocat", "hello")

			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Equal(t, tc.expectedRequests, atomic.LoadInt32(&requests))
		})
	}
}

func TestListStargazersPagePagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello/stargazers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", `</repos/octocat/hello/stargazers?page=2&per_page=100>; rel="next"`)
			fmt.Fprint(w, `[{"starred_at":"2024-01-01T00:00:00Z","user":{"login":"u1","id":1,"type":"User"}}]`)
		case "2":
			fmt.Fprint(w, `[{"starred_at":"2024-01-02T00:00:00Z","user":{"login":"u2","id":2,"type":"User"}}]`)
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	first, next, err := client.ListStargazersPage(t.Context(), "octocat", "hello", 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "u1", first[0].GetUser().GetLogin())
	assert.Equal(t, 2, next)

	second, next, err := client.ListStargazersPage(t.Context(), "octocat", "hello", next)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "u2", second[0].GetUser().GetLogin())
	assert.Equal(t, 0, next)
}

func TestRateLimitRetriesSamePage(t *testing.T) {
	var requests int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello/stargazers", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			// First attempt hits the rate limit with a reset in the
			// past, so the clamped minimum wait applies.
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(-time.Second).Unix(), 10))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"starred_at":"2024-01-01T00:00:00Z","user":{"login":"u1","id":1,"type":"User"}}]`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	stargazers, next, err := client.ListStargazersPage(t.Context(), "octocat", "hello", 1)

	require.NoError(t, err)
	require.Len(t, stargazers, 1)
	assert.Equal(t, "u1", stargazers[0].GetUser().GetLogin())
	assert.Equal(t, 0, next)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestRateLimitBeyondMaxWaitAborts(t *testing.T) {
	var requests int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello/stargazers", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(2*time.Hour).Unix(), 10))
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, _, err := client.ListStargazersPage(t.Context(), "octocat", "hello", 1)

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestListOwnedRepos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/u1/repos", func(w http.ResponseWriter, r *http.Request) {
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		if perPage <= 0 || perPage > 10 {
			perPage = 10
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "[")
		for i := 0; i < perPage; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"name":"repo%d","full_name":"u1/repo%d"}`, i, i)
		}
		fmt.Fprint(w, "]")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	repos, err := client.ListOwnedRepos(t.Context(), "u1", 3)
	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, "repo0", repos[0].GetName())
	assert.Equal(t, "repo2", repos[2].GetName())

	// A non-positive limit asks for nothing.
	repos, err = client.ListOwnedRepos(t.Context(), "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, repos)
}
