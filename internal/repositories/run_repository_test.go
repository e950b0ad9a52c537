package repositories

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/alimgiray/starscope/internal/models"
	"github.com/alimgiray/starscope/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) *RunRepository {
	t.Helper()

	db, err := database.Init(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRunRepository(db)
}

func TestCreateAndGetRun(t *testing.T) {
	repo := setupTestRepo(t)

	run := models.NewRun("octocat", "hello", "octocat_hello_20240102_150405")
	run.Stargazers = 42
	run.Suspicious = 3
	run.TopScore = 100
	run.MeanScore = 21.5

	scores := []models.StargazerScore{
		{Login: "bot", AccountType: "User", Score: 100, Signals: []string{"new_account", "zero_public_repos"}},
		{Login: "ok", AccountType: "User", Score: 0},
	}
	require.NoError(t, repo.Create(run, scores))

	got, err := repo.GetByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "octocat", got.Owner)
	assert.Equal(t, "hello", got.Repo)
	assert.Equal(t, "octocat_hello_20240102_150405", got.Prefix)
	assert.Equal(t, 42, got.Stargazers)
	assert.Equal(t, 3, got.Suspicious)
	assert.Equal(t, 100.0, got.TopScore)
	assert.Equal(t, 21.5, got.MeanScore)
	assert.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Second)
}

func TestGetRunNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetByID("no-such-run")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetScoresOrdered(t *testing.T) {
	repo := setupTestRepo(t)

	run := models.NewRun("o", "r", "prefix")
	scores := []models.StargazerScore{
		{Login: "mid", AccountType: "User", Score: 50, Signals: []string{"no_activity"}},
		{Login: "zz-top", AccountType: "User", Score: 100, Signals: []string{"new_account", "no_activity"}},
		{Login: "aa-top", AccountType: "User", Score: 100, Signals: []string{"new_account"}},
	}
	require.NoError(t, repo.Create(run, scores))

	got, err := repo.GetScores(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "aa-top", got[0].Login)
	assert.Equal(t, "zz-top", got[1].Login)
	assert.Equal(t, "mid", got[2].Login)
	assert.Equal(t, "new_account,no_activity", got[1].Signals)
}

func TestListRunsMostRecentFirst(t *testing.T) {
	repo := setupTestRepo(t)

	older := models.NewRun("o", "old", "old-prefix")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := models.NewRun("o", "new", "new-prefix")

	require.NoError(t, repo.Create(older, nil))
	require.NoError(t, repo.Create(newer, nil))

	runs, err := repo.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)
}
