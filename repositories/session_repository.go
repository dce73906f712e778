package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/evalx/evalx-backend/models"
)

var ErrSessionNotFound = errors.New("interview session not found")

type SessionRepository interface {
	Create(ctx context.Context, session *models.InterviewSession) error
	GetByID(ctx context.Context, id string) (*models.InterviewSession, error)
	// UpdateProgress сохраняет продвижение сессии: индекс, счётчики, done-флаг.
	UpdateProgress(ctx context.Context, session *models.InterviewSession) error
	// UpsertTurn записывает оценённый ответ; повтор того же индекса замещает
	// предыдущий turn (retry-путь).
	UpsertTurn(ctx context.Context, turn *models.InterviewTurn) error
	ListTurns(ctx context.Context, sessionID string) ([]*models.InterviewTurn, error)
}

type postgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) SessionRepository {
	return &postgresSessionRepository{db: db}
}

func (r *postgresSessionRepository) Create(ctx context.Context, session *models.InterviewSession) error {
	questionsJSON, err := json.Marshal(session.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	query := `
		INSERT INTO interview_sessions
			(id, event_id, team_id, team_name, report_key, questions, current_index, total_questions, total_score, answered_count, done)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		session.ID,
		session.EventID,
		session.TeamID,
		session.TeamName,
		session.ReportKey,
		questionsJSON,
		session.CurrentIndex,
		session.TotalQuestions,
		session.TotalScore,
		session.AnsweredCount,
		session.Done,
	).Scan(&session.CreatedAt)
}

func (r *postgresSessionRepository) GetByID(ctx context.Context, id string) (*models.InterviewSession, error) {
	query := `
		SELECT id, event_id, team_id, team_name, report_key, questions,
			current_index, total_questions, total_score, answered_count, done, created_at
		FROM interview_sessions
		WHERE id = $1`

	session := &models.InterviewSession{}
	var questionsJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.EventID,
		&session.TeamID,
		&session.TeamName,
		&session.ReportKey,
		&questionsJSON,
		&session.CurrentIndex,
		&session.TotalQuestions,
		&session.TotalScore,
		&session.AnsweredCount,
		&session.Done,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(questionsJSON, &session.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions for session %s: %w", id, err)
	}
	return session, nil
}

func (r *postgresSessionRepository) UpdateProgress(ctx context.Context, session *models.InterviewSession) error {
	query := `
		UPDATE interview_sessions
		SET current_index = $1, total_score = $2, answered_count = $3, done = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		session.CurrentIndex,
		session.TotalScore,
		session.AnsweredCount,
		session.Done,
		session.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSessionNotFound)
}

func (r *postgresSessionRepository) UpsertTurn(ctx context.Context, turn *models.InterviewTurn) error {
	query := `
		INSERT INTO interview_turns (session_id, question_index, question, audio_key, transcript, feedback, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, question_index) DO UPDATE
		SET audio_key = EXCLUDED.audio_key,
			transcript = EXCLUDED.transcript,
			feedback = EXCLUDED.feedback,
			score = EXCLUDED.score,
			created_at = NOW()
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		turn.SessionID,
		turn.QuestionIndex,
		turn.Question,
		turn.AudioKey,
		turn.Transcript,
		turn.Feedback,
		turn.Score,
	).Scan(&turn.ID, &turn.CreatedAt)
}

func (r *postgresSessionRepository) ListTurns(ctx context.Context, sessionID string) ([]*models.InterviewTurn, error) {
	query := `
		SELECT id, session_id, question_index, question, audio_key, transcript, feedback, score, created_at
		FROM interview_turns
		WHERE session_id = $1
		ORDER BY question_index`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := make([]*models.InterviewTurn, 0)
	for rows.Next() {
		turn := &models.InterviewTurn{}
		if scanErr := rows.Scan(
			&turn.ID,
			&turn.SessionID,
			&turn.QuestionIndex,
			&turn.Question,
			&turn.AudioKey,
			&turn.Transcript,
			&turn.Feedback,
			&turn.Score,
			&turn.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}
