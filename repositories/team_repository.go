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
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name conflict")
	ErrMembershipConflict = errors.New("user already belongs to a team for this event")
)

type TeamRepository interface {
	// Create сохраняет команду и добавляет лидера первым участником в одной транзакции.
	Create(ctx context.Context, team *models.Team) error
	// GetByID возвращает команду с участниками и заявками.
	GetByID(ctx context.Context, id int) (*models.Team, error)
	// GetByEventAndUser возвращает команду события, в которой состоит пользователь.
	GetByEventAndUser(ctx context.Context, eventID, userID int) (*models.Team, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error)
	CountByEvent(ctx context.Context, eventID int) (int, error)
	AddMember(ctx context.Context, teamID, eventID, userID int) error
	RemoveMember(ctx context.Context, teamID, userID int) error
	CountMembers(ctx context.Context, teamID int) (int, error)
	Delete(ctx context.Context, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func mapTeamWriteError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case pgUniqueViolation:
			switch pqErr.Constraint {
			case "teams_event_id_name_key":
				return ErrTeamNameConflict
			case "team_members_event_id_user_id_key":
				return ErrMembershipConflict
			}
		case pgForeignKeyViolation:
			if pqErr.Constraint == "team_members_team_id_fkey" {
				return ErrTeamNotFound
			}
		}
	}
	return err
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO teams (event_id, name, leader_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query, team.EventID, team.Name, team.LeaderID).
		Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		return mapTeamWriteError(err)
	}

	memberQuery := `INSERT INTO team_members (team_id, event_id, user_id) VALUES ($1, $2, $3)`
	if _, err = tx.ExecContext(ctx, memberQuery, team.ID, team.EventID, team.LeaderID); err != nil {
		return mapTeamWriteError(err)
	}

	return tx.Commit()
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT id, event_id, name, leader_id, created_at FROM teams WHERE id = $1`

	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID, &team.EventID, &team.Name, &team.LeaderID, &team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	if err := r.populate(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) GetByEventAndUser(ctx context.Context, eventID, userID int) (*models.Team, error) {
	query := `
		SELECT t.id, t.event_id, t.name, t.leader_id, t.created_at
		FROM teams t
		JOIN team_members m ON m.team_id = t.id
		WHERE t.event_id = $1 AND m.user_id = $2`

	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(
		&team.ID, &team.EventID, &team.Name, &team.LeaderID, &team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	if err := r.populate(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error) {
	query := `SELECT id, event_id, name, leader_id, created_at FROM teams WHERE event_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team := &models.Team{}
		if scanErr := rows.Scan(&team.ID, &team.EventID, &team.Name, &team.LeaderID, &team.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for _, team := range teams {
		if err := r.populate(ctx, team); err != nil {
			return nil, err
		}
	}

	return teams, nil
}

// populate подгружает участников (лидер первым, далее по времени вступления)
// и заявки с данными пользователей.
func (r *postgresTeamRepository) populate(ctx context.Context, team *models.Team) error {
	memberQuery := `
		SELECT m.user_id, u.first_name, u.last_name, u.email, m.joined_at
		FROM team_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY (m.user_id = $2) DESC, m.joined_at`

	rows, err := r.db.QueryContext(ctx, memberQuery, team.ID, team.LeaderID)
	if err != nil {
		return err
	}
	defer rows.Close()

	team.Members = make([]models.TeamMember, 0)
	for rows.Next() {
		var member models.TeamMember
		var firstName, lastName string
		if scanErr := rows.Scan(&member.UserID, &firstName, &lastName, &member.Email, &member.JoinedAt); scanErr != nil {
			return scanErr
		}
		member.Name = firstName
		if lastName != "" {
			member.Name = firstName + " " + lastName
		}
		team.Members = append(team.Members, member)
	}
	if err = rows.Err(); err != nil {
		return err
	}

	requestQuery := `
		SELECT r.id, r.team_id, r.user_id, u.first_name, u.last_name, r.status, r.created_at, r.resolved_at
		FROM join_requests r
		JOIN users u ON u.id = r.user_id
		WHERE r.team_id = $1
		ORDER BY r.created_at`

	requestRows, err := r.db.QueryContext(ctx, requestQuery, team.ID)
	if err != nil {
		return err
	}
	defer requestRows.Close()

	team.Requests = make([]models.JoinRequest, 0)
	for requestRows.Next() {
		var request models.JoinRequest
		var firstName, lastName string
		if scanErr := requestRows.Scan(
			&request.ID, &request.TeamID, &request.UserID,
			&firstName, &lastName, &request.Status, &request.CreatedAt, &request.ResolvedAt,
		); scanErr != nil {
			return scanErr
		}
		request.Name = firstName
		if lastName != "" {
			request.Name = firstName + " " + lastName
		}
		team.Requests = append(team.Requests, request)
	}
	return requestRows.Err()
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, teamID, eventID, userID int) error {
	query := `INSERT INTO team_members (team_id, event_id, user_id) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, teamID, eventID, userID); err != nil {
		return mapTeamWriteError(err)
	}
	return nil
}

func (r *postgresTeamRepository) RemoveMember(ctx context.Context, teamID, userID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) CountByEvent(ctx context.Context, eventID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM teams WHERE event_id = $1`, eventID).Scan(&count)
	return count, err
}

func (r *postgresTeamRepository) CountMembers(ctx context.Context, teamID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM team_members WHERE team_id = $1`, teamID).Scan(&count)
	return count, err
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
