package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/evalx/evalx-backend/ai"
	"github.com/evalx/evalx-backend/models"
	"github.com/evalx/evalx-backend/repositories"
	"github.com/evalx/evalx-backend/storage"
)

// Продолжительность «живой» фазы события после его даты начала.
const eventDuration = 24 * time.Hour

type EventService interface {
	Create(ctx context.Context, organizerID int, input CreateEventInput) (*models.Event, error)
	GetByID(ctx context.Context, id int) (*models.Event, error)
	ListForOrganizer(ctx context.Context, organizerID int) ([]*models.Event, error)
	ListPublished(ctx context.Context) ([]*models.Event, error)
	// GenerateDraft просит AI-коллаборатора заполнить черновик события по описанию.
	GenerateDraft(ctx context.Context, details string) (*models.EventDraft, error)
	// AutoUpdateEventStatusesByDates продвигает статусы событий по их датам.
	// Вызывается планировщиком.
	AutoUpdateEventStatusesByDates(ctx context.Context) error
}

type RoundInput struct {
	Kind         models.RoundKind
	Instructions string
}

type FileInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

type CreateEventInput struct {
	Name                 string
	Summary              string
	Description          string
	Date                 time.Time
	RegistrationDeadline time.Time
	Prize                string
	MaxTeams             int
	MinMembers           int
	MaxMembers           int
	Rounds               []RoundInput
	Banner               *FileInput
	Logo                 *FileInput
}

type eventService struct {
	eventRepo repositories.EventRepository
	uploader  storage.FileUploader
	evaluator ai.Evaluator
	logger    *slog.Logger
}

func NewEventService(
	eventRepo repositories.EventRepository,
	uploader storage.FileUploader,
	evaluator ai.Evaluator,
	logger *slog.Logger,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		uploader:  uploader,
		evaluator: evaluator,
		logger:    logger,
	}
}

func validateCreateEventInput(input CreateEventInput) error {
	if input.Name == "" {
		return ErrEventNameRequired
	}
	if input.Date.IsZero() || input.RegistrationDeadline.IsZero() {
		return ErrEventDatesRequired
	}
	// Инвариант: дедлайн регистрации не позже даты события. Проверяется до
	// любых записей и загрузок файлов.
	if input.RegistrationDeadline.After(input.Date) {
		return ErrEventInvalidDeadline
	}
	if input.MaxTeams <= 0 {
		return ErrEventInvalidCapacity
	}
	if input.MinMembers <= 0 || input.MaxMembers < input.MinMembers {
		return ErrEventInvalidMemberRange
	}
	if len(input.Rounds) == 0 {
		return ErrEventRoundsRequired
	}
	seen := make(map[models.RoundKind]bool, len(input.Rounds))
	for _, round := range input.Rounds {
		if !round.Kind.Valid() {
			return fmt.Errorf("%w: %q", ErrEventInvalidRoundKind, round.Kind)
		}
		if seen[round.Kind] {
			return fmt.Errorf("%w: duplicate round %q", ErrValidationFailed, round.Kind)
		}
		seen[round.Kind] = true
	}
	return nil
}

func statusForDates(now, registrationDeadline, date time.Time) models.EventStatus {
	switch {
	case now.Before(registrationDeadline):
		return models.StatusRegistration
	case now.Before(date):
		return models.StatusUpcoming
	case now.Before(date.Add(eventDuration)):
		return models.StatusLive
	default:
		return models.StatusCompleted
	}
}

func (s *eventService) Create(ctx context.Context, organizerID int, input CreateEventInput) (*models.Event, error) {
	if err := validateCreateEventInput(input); err != nil {
		return nil, err
	}

	event := &models.Event{
		Name:                 input.Name,
		Summary:              input.Summary,
		Description:          input.Description,
		OrganizerID:          organizerID,
		Date:                 input.Date,
		RegistrationDeadline: input.RegistrationDeadline,
		Prize:                input.Prize,
		MaxTeams:             input.MaxTeams,
		MinMembers:           input.MinMembers,
		MaxMembers:           input.MaxMembers,
		Status:               statusForDates(time.Now(), input.RegistrationDeadline, input.Date),
	}
	for _, round := range input.Rounds {
		event.Rounds = append(event.Rounds, models.Round{
			Kind:         round.Kind,
			Instructions: round.Instructions,
		})
	}

	if input.Banner != nil {
		key, err := s.uploadFile(ctx, "events/banners", input.Banner)
		if err != nil {
			return nil, fmt.Errorf("failed to upload banner: %w", err)
		}
		event.BannerKey = &key
	}
	if input.Logo != nil {
		key, err := s.uploadFile(ctx, "events/logos", input.Logo)
		if err != nil {
			return nil, fmt.Errorf("failed to upload logo: %w", err)
		}
		event.LogoKey = &key
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		// Осиротевшие файлы чистим сразу, не полагаясь на фоновую уборку.
		if event.BannerKey != nil {
			if delErr := s.uploader.Delete(ctx, *event.BannerKey); delErr != nil {
				s.logger.Warn("failed to delete orphaned banner", slog.Any("error", delErr))
			}
		}
		if event.LogoKey != nil {
			if delErr := s.uploader.Delete(ctx, *event.LogoKey); delErr != nil {
				s.logger.Warn("failed to delete orphaned logo", slog.Any("error", delErr))
			}
		}
		if errors.Is(err, repositories.ErrEventNameConflict) {
			return nil, ErrEventNameConflict
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.populateURLs(event)
	return event, nil
}

func (s *eventService) uploadFile(ctx context.Context, prefix string, file *FileInput) (string, error) {
	key := buildObjectKey(prefix, file.Filename)
	if _, err := s.uploader.Upload(ctx, key, file.ContentType, file.Reader); err != nil {
		return "", err
	}
	return key, nil
}

func (s *eventService) populateURLs(event *models.Event) {
	if event.BannerKey != nil {
		url := s.uploader.GetPublicURL(*event.BannerKey)
		event.BannerURL = &url
	}
	if event.LogoKey != nil {
		url := s.uploader.GetPublicURL(*event.LogoKey)
		event.LogoURL = &url
	}
}

func (s *eventService) GetByID(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}
	s.populateURLs(event)
	return event, nil
}

func (s *eventService) ListForOrganizer(ctx context.Context, organizerID int) ([]*models.Event, error) {
	events, err := s.eventRepo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizer events: %w", err)
	}
	for _, event := range events {
		s.populateURLs(event)
	}
	return events, nil
}

func (s *eventService) ListPublished(ctx context.Context) ([]*models.Event, error) {
	events, err := s.eventRepo.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	for _, event := range events {
		s.populateURLs(event)
	}
	return events, nil
}

func (s *eventService) GenerateDraft(ctx context.Context, details string) (*models.EventDraft, error) {
	if details == "" {
		return nil, ErrValidationFailed
	}
	draft, err := s.evaluator.DraftEvent(ctx, details)
	if err != nil {
		return nil, fmt.Errorf("failed to generate event draft: %w", err)
	}
	return draft, nil
}

func (s *eventService) AutoUpdateEventStatusesByDates(ctx context.Context) error {
	events, err := s.eventRepo.ListUnfinished(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unfinished events: %w", err)
	}

	now := time.Now()
	for _, event := range events {
		next := statusForDates(now, event.RegistrationDeadline, event.Date)
		if next == event.Status {
			continue
		}
		if err := s.eventRepo.UpdateStatus(ctx, event.ID, next); err != nil {
			s.logger.Error("failed to update event status",
				slog.Int("event_id", event.ID),
				slog.String("status", string(next)),
				slog.Any("error", err))
			continue
		}
		s.logger.Info("event status updated",
			slog.Int("event_id", event.ID),
			slog.String("from", string(event.Status)),
			slog.String("to", string(next)))
	}
	return nil
}
