package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/evalx/evalx-backend/models"
	"github.com/evalx/evalx-backend/repositories"
	"github.com/evalx/evalx-backend/storage"
)

type SubmissionService interface {
	// SubmitDeck принимает файл презентации за ppt-раунд и ставит его
	// в очередь на AI-оценку.
	SubmitDeck(ctx context.Context, eventID, userID int, file *FileInput) (*models.Submission, error)
	// SubmitRepo принимает ссылки на репозиторий и демо-видео за repo-раунд.
	SubmitRepo(ctx context.Context, eventID, userID int, repoURL, videoURL string) (*models.Submission, error)
	// SubmitInterview фиксирует viva-раунд как сданный. Оценка придёт
	// из сессии собеседования, а не из фонового свипера.
	SubmitInterview(ctx context.Context, eventID, userID int, sessionID string) (*models.Submission, error)
	// ListMine возвращает сабмишены команды пользователя по виду раунда.
	ListMine(ctx context.Context, eventID, userID int) (*TeamSubmissions, error)
	ListByEvent(ctx context.Context, eventID, organizerID int) ([]*models.Submission, error)
}

// TeamSubmissions - сабмишены одной команды, индексированные видом раунда.
type TeamSubmissions struct {
	TeamID      int                                     `json:"teamId"`
	TeamName    string                                  `json:"teamName"`
	Submissions map[models.RoundKind]*models.Submission `json:"submissions"`
}

type submissionService struct {
	submissionRepo repositories.SubmissionRepository
	teamRepo       repositories.TeamRepository
	eventRepo      repositories.EventRepository
	uploader       storage.FileUploader
}

func NewSubmissionService(
	submissionRepo repositories.SubmissionRepository,
	teamRepo repositories.TeamRepository,
	eventRepo repositories.EventRepository,
	uploader storage.FileUploader,
) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		teamRepo:       teamRepo,
		eventRepo:      eventRepo,
		uploader:       uploader,
	}
}

func (s *submissionService) SubmitDeck(ctx context.Context, eventID, userID int, file *FileInput) (*models.Submission, error) {
	if file == nil {
		return nil, ErrDeckFileRequired
	}

	team, err := s.prepare(ctx, eventID, userID, models.RoundDeck)
	if err != nil {
		return nil, err
	}

	// Файл грузится только после всех проверок: повторная отправка не
	// должна оставлять мусор в хранилище.
	key := buildObjectKey("submissions/decks", file.Filename)
	if _, err := s.uploader.Upload(ctx, key, file.ContentType, file.Reader); err != nil {
		return nil, fmt.Errorf("failed to upload deck: %w", err)
	}

	submission := &models.Submission{
		EventID:     eventID,
		TeamID:      team.ID,
		RoundKind:   models.RoundDeck,
		SubmittedBy: userID,
		FileKey:     &key,
		EvalStatus:  models.EvaluationPending,
	}
	if err := s.create(ctx, submission); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to delete orphaned deck: %w", delErr))
		}
		return nil, err
	}
	s.populateFileURL(submission)
	return submission, nil
}

func (s *submissionService) SubmitRepo(ctx context.Context, eventID, userID int, repoURL, videoURL string) (*models.Submission, error) {
	if repoURL == "" || videoURL == "" {
		return nil, ErrRepoLinksRequired
	}

	team, err := s.prepare(ctx, eventID, userID, models.RoundRepo)
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		EventID:     eventID,
		TeamID:      team.ID,
		RoundKind:   models.RoundRepo,
		SubmittedBy: userID,
		RepoURL:     &repoURL,
		VideoURL:    &videoURL,
		EvalStatus:  models.EvaluationPending,
	}
	if err := s.create(ctx, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *submissionService) SubmitInterview(ctx context.Context, eventID, userID int, sessionID string) (*models.Submission, error) {
	team, err := s.prepare(ctx, eventID, userID, models.RoundInterview)
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		EventID:     eventID,
		TeamID:      team.ID,
		RoundKind:   models.RoundInterview,
		SubmittedBy: userID,
		EvalStatus:  models.EvaluationNone,
	}
	if sessionID != "" {
		submission.SessionID = &sessionID
	}
	if err := s.create(ctx, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

// prepare выполняет проверки, общие для всех раундов: раунд входит в
// событие, пользователь состоит в команде, сабмишена ещё нет.
func (s *submissionService) prepare(ctx context.Context, eventID, userID int, kind models.RoundKind) (*models.Team, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	if !eventHasRound(event, kind) {
		return nil, ErrRoundNotFound
	}

	team, err := s.teamRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team for user %d: %w", userID, err)
	}

	_, err = s.submissionRepo.GetByTeamAndRound(ctx, team.ID, kind)
	if err == nil {
		return nil, ErrSubmissionExists
	}
	if !errors.Is(err, repositories.ErrSubmissionNotFound) {
		return nil, fmt.Errorf("failed to check existing submission: %w", err)
	}
	return team, nil
}

func (s *submissionService) create(ctx context.Context, submission *models.Submission) error {
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		if errors.Is(err, repositories.ErrSubmissionConflict) {
			return ErrSubmissionExists
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (s *submissionService) ListMine(ctx context.Context, eventID, userID int) (*TeamSubmissions, error) {
	team, err := s.teamRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team for user %d: %w", userID, err)
	}

	submissions, err := s.submissionRepo.ListByTeam(ctx, eventID, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for team %d: %w", team.ID, err)
	}

	result := &TeamSubmissions{
		TeamID:      team.ID,
		TeamName:    team.Name,
		Submissions: make(map[models.RoundKind]*models.Submission, len(submissions)),
	}
	for _, submission := range submissions {
		s.populateFileURL(submission)
		result.Submissions[submission.RoundKind] = submission
	}
	return result, nil
}

func (s *submissionService) ListByEvent(ctx context.Context, eventID, organizerID int) ([]*models.Submission, error) {
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

	submissions, err := s.submissionRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for event %d: %w", eventID, err)
	}
	for _, submission := range submissions {
		s.populateFileURL(submission)
	}
	return submissions, nil
}

func (s *submissionService) populateFileURL(submission *models.Submission) {
	if submission.FileKey != nil {
		url := s.uploader.GetPublicURL(*submission.FileKey)
		submission.FileURL = &url
	}
}

func eventHasRound(event *models.Event, kind models.RoundKind) bool {
	for _, round := range event.Rounds {
		if round.Kind == kind {
			return true
		}
	}
	return false
}
