package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evalx/evalx-backend/models"
	"github.com/evalx/evalx-backend/repositories"
)

type TeamService interface {
	Create(ctx context.Context, eventID, leaderID int, name string) (*models.Team, error)
	// GetMyTeam возвращает команду пользователя в рамках события
	// вместе с участниками и заявками.
	GetMyTeam(ctx context.Context, eventID, userID int) (*models.Team, error)
	// ListOpen возвращает команды события, в которых ещё есть места,
	// с отношением зрителя к каждой из них.
	ListOpen(ctx context.Context, eventID, viewerID int) ([]*OpenTeam, error)
	ListByEvent(ctx context.Context, eventID, organizerID int) ([]*models.Team, error)
	SendJoinRequest(ctx context.Context, teamID, userID int) (*models.JoinRequest, error)
	AcceptRequest(ctx context.Context, requestID, actorID int) error
	RejectRequest(ctx context.Context, requestID, actorID int) error
	AddMember(ctx context.Context, teamID, actorID, userID int) error
	InviteByEmail(ctx context.Context, teamID, actorID int, email string) error
	RemoveMember(ctx context.Context, teamID, actorID, userID int) error
	Delete(ctx context.Context, teamID, actorID int) error
	DeleteByOrganizer(ctx context.Context, teamID, organizerID int) error
}

// OpenTeam - команда в списке открытых вместе с отношением зрителя к ней.
type OpenTeam struct {
	*models.Team
	MemberCount int                 `json:"memberCount"`
	Relation    models.TeamRelation `json:"relation"`
}

type teamService struct {
	teamRepo    repositories.TeamRepository
	requestRepo repositories.RequestRepository
	eventRepo   repositories.EventRepository
	userRepo    repositories.UserRepository
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	requestRepo repositories.RequestRepository,
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
) TeamService {
	return &teamService{
		teamRepo:    teamRepo,
		requestRepo: requestRepo,
		eventRepo:   eventRepo,
		userRepo:    userRepo,
	}
}

// Classify вычисляет отношение пользователя к команде. Лидерство
// определяется только полем LeaderID.
func Classify(userID int, team *models.Team) models.TeamRelation {
	if team.LeaderID == userID {
		return models.RelationLeader
	}
	for _, member := range team.Members {
		if member.UserID == userID {
			return models.RelationMember
		}
	}
	for _, request := range team.Requests {
		if request.UserID == userID && request.Status == models.RequestPending {
			return models.RelationPending
		}
	}
	return models.RelationNone
}

func (s *teamService) Create(ctx context.Context, eventID, leaderID int, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	if time.Now().After(event.RegistrationDeadline) {
		return nil, ErrRegistrationClosed
	}

	count, err := s.teamRepo.CountByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count teams for event %d: %w", eventID, err)
	}
	if count >= event.MaxTeams {
		return nil, ErrEventTeamsFull
	}

	team := &models.Team{
		EventID:  eventID,
		Name:     name,
		LeaderID: leaderID,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrMembershipConflict):
			return nil, ErrUserAlreadyInTeam
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetMyTeam(ctx context.Context, eventID, userID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team for user %d: %w", userID, err)
	}
	return team, nil
}

func (s *teamService) ListOpen(ctx context.Context, eventID, viewerID int) ([]*OpenTeam, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}

	teams, err := s.teamRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for event %d: %w", eventID, err)
	}

	open := make([]*OpenTeam, 0, len(teams))
	for _, team := range teams {
		if len(team.Members) >= event.MaxMembers {
			continue
		}
		open = append(open, &OpenTeam{
			Team:        team,
			MemberCount: len(team.Members),
			Relation:    Classify(viewerID, team),
		})
	}
	return open, nil
}

func (s *teamService) ListByEvent(ctx context.Context, eventID, organizerID int) ([]*models.Team, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	if event.OrganizerID != organizerID {
		return nil, ErrForbiddenOperation
	}

	teams, err := s.teamRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for event %d: %w", eventID, err)
	}
	return teams, nil
}

func (s *teamService) SendJoinRequest(ctx context.Context, teamID, userID int) (*models.JoinRequest, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	switch Classify(userID, team) {
	case models.RelationLeader, models.RelationMember:
		return nil, ErrUserAlreadyInTeam
	}
	pending, err := s.requestRepo.HasPending(ctx, teamID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending request for team %d: %w", teamID, err)
	}
	if pending {
		return nil, ErrJoinRequestConflict
	}
	// Свободное место проверяется и при отправке, и при принятии: между
	// ними состав команды мог измениться.
	if err := s.ensureHasRoom(ctx, team); err != nil {
		return nil, err
	}

	request := &models.JoinRequest{
		TeamID: teamID,
		UserID: userID,
		Status: models.RequestPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		if errors.Is(err, repositories.ErrRequestConflict) {
			return nil, ErrJoinRequestConflict
		}
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}
	return request, nil
}

func (s *teamService) AcceptRequest(ctx context.Context, requestID, actorID int) error {
	request, team, err := s.getRequestForLeader(ctx, requestID, actorID)
	if err != nil {
		return err
	}
	if err := s.ensureHasRoom(ctx, team); err != nil {
		return err
	}

	// Заявка закрывается только после успешного вступления: упавший
	// AddMember оставляет её pending.
	if err := s.teamRepo.AddMember(ctx, team.ID, team.EventID, request.UserID); err != nil {
		if errors.Is(err, repositories.ErrMembershipConflict) {
			return ErrUserAlreadyInTeam
		}
		return fmt.Errorf("failed to add member to team %d: %w", team.ID, err)
	}
	if err := s.requestRepo.Resolve(ctx, requestID, models.RequestAccepted); err != nil {
		return s.mapResolveError(err, requestID)
	}
	return nil
}

func (s *teamService) RejectRequest(ctx context.Context, requestID, actorID int) error {
	_, _, err := s.getRequestForLeader(ctx, requestID, actorID)
	if err != nil {
		return err
	}
	if err := s.requestRepo.Resolve(ctx, requestID, models.RequestRejected); err != nil {
		return s.mapResolveError(err, requestID)
	}
	return nil
}

func (s *teamService) AddMember(ctx context.Context, teamID, actorID, userID int) error {
	team, err := s.getTeamForLeader(ctx, teamID, actorID)
	if err != nil {
		return err
	}
	return s.addMember(ctx, team, userID)
}

func (s *teamService) InviteByEmail(ctx context.Context, teamID, actorID int, email string) error {
	team, err := s.getTeamForLeader(ctx, teamID, actorID)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user by email: %w", err)
	}
	return s.addMember(ctx, team, user.ID)
}

func (s *teamService) addMember(ctx context.Context, team *models.Team, userID int) error {
	if err := s.ensureHasRoom(ctx, team); err != nil {
		return err
	}
	if err := s.teamRepo.AddMember(ctx, team.ID, team.EventID, userID); err != nil {
		if errors.Is(err, repositories.ErrMembershipConflict) {
			return ErrUserAlreadyInTeam
		}
		return fmt.Errorf("failed to add member to team %d: %w", team.ID, err)
	}
	return nil
}

func (s *teamService) RemoveMember(ctx context.Context, teamID, actorID, userID int) error {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if userID == team.LeaderID {
		return ErrCannotRemoveLeader
	}
	// Убрать участника может лидер, либо участник уходит сам.
	if actorID != team.LeaderID && actorID != userID {
		return ErrSelfRemoveForbidden
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, userID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to remove member from team %d: %w", teamID, err)
	}
	return nil
}

func (s *teamService) Delete(ctx context.Context, teamID, actorID int) error {
	if _, err := s.getTeamForLeader(ctx, teamID, actorID); err != nil {
		return err
	}
	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}
	return nil
}

func (s *teamService) DeleteByOrganizer(ctx context.Context, teamID, organizerID int) error {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}

	event, err := s.eventRepo.GetByID(ctx, team.EventID)
	if err != nil {
		return fmt.Errorf("failed to get event %d: %w", team.EventID, err)
	}
	if event.OrganizerID != organizerID {
		return ErrForbiddenOperation
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}
	return nil
}

func (s *teamService) getTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return team, nil
}

func (s *teamService) getTeamForLeader(ctx context.Context, teamID, actorID int) (*models.Team, error) {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.LeaderID != actorID {
		return nil, ErrLeaderActionForbidden
	}
	return team, nil
}

func (s *teamService) getRequestForLeader(ctx context.Context, requestID, actorID int) (*models.JoinRequest, *models.Team, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, nil, ErrRequestNotFound
		}
		return nil, nil, fmt.Errorf("failed to get join request %d: %w", requestID, err)
	}

	team, err := s.getTeam(ctx, request.TeamID)
	if err != nil {
		return nil, nil, err
	}
	if team.LeaderID != actorID {
		return nil, nil, ErrLeaderActionForbidden
	}
	if request.Status != models.RequestPending {
		return nil, nil, ErrRequestAlreadyResolved
	}
	return request, team, nil
}

func (s *teamService) ensureHasRoom(ctx context.Context, team *models.Team) error {
	event, err := s.eventRepo.GetByID(ctx, team.EventID)
	if err != nil {
		return fmt.Errorf("failed to get event %d: %w", team.EventID, err)
	}

	count, err := s.teamRepo.CountMembers(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("failed to count members of team %d: %w", team.ID, err)
	}
	if count >= event.MaxMembers {
		return ErrTeamFull
	}
	return nil
}

func (s *teamService) mapResolveError(err error, requestID int) error {
	switch {
	case errors.Is(err, repositories.ErrRequestNotFound):
		return ErrRequestNotFound
	case errors.Is(err, repositories.ErrRequestAlreadyResolved):
		return ErrRequestAlreadyResolved
	}
	return fmt.Errorf("failed to resolve join request %d: %w", requestID, err)
}
