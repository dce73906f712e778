package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/evalx/evalx-backend/models"
	"github.com/lib/pq"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSubmissionConflict = errors.New("submission already exists for this team and round")
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByTeamAndRound(ctx context.Context, teamID int, kind models.RoundKind) (*models.Submission, error)
	ListByTeam(ctx context.Context, eventID, teamID int) ([]*models.Submission, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Submission, error)
	// ListPendingEvaluation возвращает сабмишены, ожидающие AI-оценки.
	ListPendingEvaluation(ctx context.Context, limit int) ([]*models.Submission, error)
	SetEvaluation(ctx context.Context, id int, status models.EvaluationStatus, evaluation *models.Evaluation) error
}

type postgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &postgresSubmissionRepository{db: db}
}

const submissionColumns = `id, event_id, team_id, round_kind, submitted_at, submitted_by,
	file_key, repo_url, video_url, session_id, eval_status, evaluation`

func scanSubmission(row interface{ Scan(...interface{}) error }) (*models.Submission, error) {
	submission := &models.Submission{}
	var evaluationJSON []byte
	err := row.Scan(
		&submission.ID,
		&submission.EventID,
		&submission.TeamID,
		&submission.RoundKind,
		&submission.SubmittedAt,
		&submission.SubmittedBy,
		&submission.FileKey,
		&submission.RepoURL,
		&submission.VideoURL,
		&submission.SessionID,
		&submission.EvalStatus,
		&evaluationJSON,
	)
	if err != nil {
		return nil, err
	}
	if len(evaluationJSON) > 0 {
		var evaluation models.Evaluation
		if err := json.Unmarshal(evaluationJSON, &evaluation); err != nil {
			// Неразборчивая оценка не должна ломать чтение сабмишена.
			return submission, nil
		}
		submission.Evaluation = &evaluation
	}
	return submission, nil
}

func (r *postgresSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (event_id, team_id, round_kind, submitted_by, file_key, repo_url, video_url, session_id, eval_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, submitted_at`

	err := r.db.QueryRowContext(ctx, query,
		submission.EventID,
		submission.TeamID,
		submission.RoundKind,
		submission.SubmittedBy,
		submission.FileKey,
		submission.RepoURL,
		submission.VideoURL,
		submission.SessionID,
		submission.EvalStatus,
	).Scan(&submission.ID, &submission.SubmittedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pgUniqueViolation {
			if pqErr.Constraint == "submissions_team_id_round_kind_key" {
				return ErrSubmissionConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresSubmissionRepository) GetByTeamAndRound(ctx context.Context, teamID int, kind models.RoundKind) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE team_id = $1 AND round_kind = $2`

	submission, err := scanSubmission(r.db.QueryRowContext(ctx, query, teamID, kind))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return submission, nil
}

func (r *postgresSubmissionRepository) list(ctx context.Context, where string, args ...interface{}) ([]*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions ` + where

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := make([]*models.Submission, 0)
	for rows.Next() {
		submission, scanErr := scanSubmission(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		submissions = append(submissions, submission)
	}
	return submissions, rows.Err()
}

func (r *postgresSubmissionRepository) ListByTeam(ctx context.Context, eventID, teamID int) ([]*models.Submission, error) {
	return r.list(ctx, `WHERE event_id = $1 AND team_id = $2 ORDER BY submitted_at`, eventID, teamID)
}

func (r *postgresSubmissionRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Submission, error) {
	return r.list(ctx, `WHERE event_id = $1 ORDER BY submitted_at`, eventID)
}

func (r *postgresSubmissionRepository) ListPendingEvaluation(ctx context.Context, limit int) ([]*models.Submission, error) {
	return r.list(ctx, `WHERE eval_status = 'pending' ORDER BY submitted_at LIMIT $1`, limit)
}

func (r *postgresSubmissionRepository) SetEvaluation(ctx context.Context, id int, status models.EvaluationStatus, evaluation *models.Evaluation) error {
	var evaluationJSON interface{}
	if evaluation != nil {
		data, err := json.Marshal(evaluation)
		if err != nil {
			return fmt.Errorf("failed to marshal evaluation: %w", err)
		}
		evaluationJSON = data
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE submissions SET eval_status = $1, evaluation = $2 WHERE id = $3`,
		status, evaluationJSON, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSubmissionNotFound)
}
