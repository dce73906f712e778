package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/evalx/evalx-backend/models"
	"github.com/lib/pq"
)

var (
	ErrRequestNotFound        = errors.New("join request not found")
	ErrRequestConflict        = errors.New("pending join request already exists")
	ErrRequestAlreadyResolved = errors.New("join request already resolved")
)

type RequestRepository interface {
	Create(ctx context.Context, request *models.JoinRequest) error
	GetByID(ctx context.Context, id int) (*models.JoinRequest, error)
	// Resolve переводит pending-заявку в accepted/rejected ровно один раз.
	Resolve(ctx context.Context, id int, status models.RequestStatus) error
	HasPending(ctx context.Context, teamID, userID int) (bool, error)
}

type postgresRequestRepository struct {
	db *sql.DB
}

func NewPostgresRequestRepository(db *sql.DB) RequestRepository {
	return &postgresRequestRepository{db: db}
}

func (r *postgresRequestRepository) Create(ctx context.Context, request *models.JoinRequest) error {
	query := `
		INSERT INTO join_requests (team_id, user_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, status, created_at`

	err := r.db.QueryRowContext(ctx, query, request.TeamID, request.UserID).
		Scan(&request.ID, &request.Status, &request.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pgUniqueViolation {
			// Частичный уникальный индекс по (team_id, user_id) WHERE status = 'pending'.
			if pqErr.Constraint == "join_requests_pending_key" {
				return ErrRequestConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresRequestRepository) GetByID(ctx context.Context, id int) (*models.JoinRequest, error) {
	query := `
		SELECT id, team_id, user_id, status, created_at, resolved_at
		FROM join_requests
		WHERE id = $1`

	request := &models.JoinRequest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&request.ID,
		&request.TeamID,
		&request.UserID,
		&request.Status,
		&request.CreatedAt,
		&request.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

func (r *postgresRequestRepository) Resolve(ctx context.Context, id int, status models.RequestStatus) error {
	query := `
		UPDATE join_requests
		SET status = $1, resolved_at = NOW()
		WHERE id = $2 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// Либо заявки нет, либо она уже разрешена: различаем для вызывающего.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrRequestAlreadyResolved
	}
	return nil
}

func (r *postgresRequestRepository) HasPending(ctx context.Context, teamID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM join_requests WHERE team_id = $1 AND user_id = $2 AND status = 'pending')`,
		teamID, userID).Scan(&exists)
	return exists, err
}
