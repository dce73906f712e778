package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evalx/evalx-backend/models"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventNameConflict = errors.New("event name conflict")
)

type EventRepository interface {
	// Create сохраняет событие вместе с его раундами в одной транзакции.
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	ListByOrganizer(ctx context.Context, organizerID int) ([]*models.Event, error)
	ListPublished(ctx context.Context) ([]*models.Event, error)
	// ListUnfinished возвращает события, статусы которых ещё могут измениться по датам.
	ListUnfinished(ctx context.Context) ([]*models.Event, error)
	UpdateStatus(ctx context.Context, id int, status models.EventStatus) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, name, summary, description, organizer_id, date, registration_deadline,
	prize, max_teams, min_members, max_members, status, banner_key, logo_key, created_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Summary,
		&event.Description,
		&event.OrganizerID,
		&event.Date,
		&event.RegistrationDeadline,
		&event.Prize,
		&event.MaxTeams,
		&event.MinMembers,
		&event.MaxMembers,
		&event.Status,
		&event.BannerKey,
		&event.LogoKey,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (name, summary, description, organizer_id, date, registration_deadline,
			prize, max_teams, min_members, max_members, status, banner_key, logo_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query,
		event.Name,
		event.Summary,
		event.Description,
		event.OrganizerID,
		event.Date,
		event.RegistrationDeadline,
		event.Prize,
		event.MaxTeams,
		event.MinMembers,
		event.MaxMembers,
		event.Status,
		event.BannerKey,
		event.LogoKey,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pgUniqueViolation {
			if pqErr.Constraint == "events_name_key" {
				return ErrEventNameConflict
			}
		}
		return err
	}

	roundQuery := `INSERT INTO rounds (event_id, kind, instructions, position) VALUES ($1, $2, $3, $4)`
	for i := range event.Rounds {
		event.Rounds[i].EventID = event.ID
		event.Rounds[i].Position = i
		if _, err := tx.ExecContext(ctx, roundQuery,
			event.ID, event.Rounds[i].Kind, event.Rounds[i].Instructions, i); err != nil {
			return fmt.Errorf("failed to insert round %q: %w", event.Rounds[i].Kind, err)
		}
	}

	return tx.Commit()
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	rounds, err := r.listRounds(ctx, id)
	if err != nil {
		return nil, err
	}
	event.Rounds = rounds

	return event, nil
}

func (r *postgresEventRepository) listRounds(ctx context.Context, eventID int) ([]models.Round, error) {
	query := `SELECT event_id, kind, instructions, position FROM rounds WHERE event_id = $1 ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rounds := make([]models.Round, 0)
	for rows.Next() {
		var round models.Round
		if scanErr := rows.Scan(&round.EventID, &round.Kind, &round.Instructions, &round.Position); scanErr != nil {
			return nil, scanErr
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

func (r *postgresEventRepository) list(ctx context.Context, where string, args ...interface{}) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ` + where

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for _, event := range events {
		rounds, roundsErr := r.listRounds(ctx, event.ID)
		if roundsErr != nil {
			return nil, roundsErr
		}
		event.Rounds = rounds
	}

	return events, nil
}

func (r *postgresEventRepository) ListByOrganizer(ctx context.Context, organizerID int) ([]*models.Event, error) {
	return r.list(ctx, `WHERE organizer_id = $1 ORDER BY date DESC`, organizerID)
}

func (r *postgresEventRepository) ListPublished(ctx context.Context) ([]*models.Event, error) {
	return r.list(ctx, `WHERE status <> 'canceled' ORDER BY date DESC`)
}

func (r *postgresEventRepository) ListUnfinished(ctx context.Context) ([]*models.Event, error) {
	return r.list(ctx, `WHERE status NOT IN ('completed', 'canceled') ORDER BY date`)
}

func (r *postgresEventRepository) UpdateStatus(ctx context.Context, id int, status models.EventStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}
