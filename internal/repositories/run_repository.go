package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/alimgiray/starscope/internal/models"
)

// RunRepository persists completed run summaries and their per-stargazer
// scores so past audits can be browsed and compared.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create archives one run and its scores in a single transaction
func (r *RunRepository) Create(run *models.Run, scores []models.StargazerScore) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO runs (
			id, owner, repo, prefix, stargazers, suspicious,
			top_score, mean_score, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query,
		run.ID, run.Owner, run.Repo, run.Prefix, run.Stargazers, run.Suspicious,
		run.TopScore, run.MeanScore, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	scoreQuery := `
		INSERT INTO run_scores (run_id, login, account_type, score, signals)
		VALUES (?, ?, ?, ?, ?)
	`
	for _, sc := range scores {
		_, err = tx.Exec(scoreQuery, run.ID, sc.Login, sc.AccountType, sc.Score, strings.Join(sc.Signals, ","))
		if err != nil {
			return fmt.Errorf("failed to insert score for %s: %w", sc.Login, err)
		}
	}

	return tx.Commit()
}

// GetByID retrieves one archived run
func (r *RunRepository) GetByID(id string) (*models.Run, error) {
	query := `
		SELECT id, owner, repo, prefix, stargazers, suspicious,
		       top_score, mean_score, created_at
		FROM runs WHERE id = ?
	`

	var run models.Run
	err := r.db.QueryRow(query, id).Scan(
		&run.ID, &run.Owner, &run.Repo, &run.Prefix, &run.Stargazers, &run.Suspicious,
		&run.TopScore, &run.MeanScore, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetScores retrieves the archived scores of one run, highest first
func (r *RunRepository) GetScores(runID string) ([]*models.RunScore, error) {
	query := `
		SELECT run_id, login, account_type, score, signals
		FROM run_scores WHERE run_id = ?
		ORDER BY score DESC, login ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []*models.RunScore
	for rows.Next() {
		var score models.RunScore
		if err := rows.Scan(&score.RunID, &score.Login, &score.AccountType, &score.Score, &score.Signals); err != nil {
			return nil, err
		}
		scores = append(scores, &score)
	}
	return scores, rows.Err()
}

// List retrieves all archived runs, most recent first
func (r *RunRepository) List() ([]*models.Run, error) {
	query := `
		SELECT id, owner, repo, prefix, stargazers, suspicious,
		       top_score, mean_score, created_at
		FROM runs
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var run models.Run
		err := rows.Scan(
			&run.ID, &run.Owner, &run.Repo, &run.Prefix, &run.Stargazers, &run.Suspicious,
			&run.TopScore, &run.MeanScore, &run.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
