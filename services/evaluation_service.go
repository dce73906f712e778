package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/evalx/evalx-backend/ai"
	"github.com/evalx/evalx-backend/live"
	"github.com/evalx/evalx-backend/models"
	"github.com/evalx/evalx-backend/repositories"
	"github.com/evalx/evalx-backend/storage"
)

const (
	sweepBatchSize   = 20
	sweepConcurrency = 4
)

// EvaluationService прогоняет ожидающие сабмишены через AI-оценку
// в фоне. Вызывается планировщиком.
type EvaluationService interface {
	Sweep(ctx context.Context) error
}

type evaluationService struct {
	submissionRepo repositories.SubmissionRepository
	uploader       storage.FileUploader
	evaluator      ai.Evaluator
	hub            *live.Hub
	logger         *slog.Logger
}

func NewEvaluationService(
	submissionRepo repositories.SubmissionRepository,
	uploader storage.FileUploader,
	evaluator ai.Evaluator,
	hub *live.Hub,
	logger *slog.Logger,
) EvaluationService {
	return &evaluationService{
		submissionRepo: submissionRepo,
		uploader:       uploader,
		evaluator:      evaluator,
		hub:            hub,
		logger:         logger,
	}
}

func (s *evaluationService) Sweep(ctx context.Context) error {
	pending, err := s.submissionRepo.ListPendingEvaluation(ctx, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending submissions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, submission := range pending {
		submission := submission
		g.Go(func() error {
			s.evaluate(gctx, submission)
			return nil
		})
	}
	return g.Wait()
}

// evaluate обрабатывает один сабмишен. Сбой AI-вызова оставляет статус
// pending, сабмишен попадёт в следующий проход.
func (s *evaluationService) evaluate(ctx context.Context, submission *models.Submission) {
	evaluation, err := s.buildEvaluation(ctx, submission)
	if err != nil {
		s.logger.Error("submission evaluation failed",
			slog.Int("submission_id", submission.ID),
			slog.String("round", string(submission.RoundKind)),
			slog.Any("error", err))
		return
	}

	if err := s.submissionRepo.SetEvaluation(ctx, submission.ID, models.EvaluationCompleted, evaluation); err != nil {
		s.logger.Error("failed to store evaluation",
			slog.Int("submission_id", submission.ID),
			slog.Any("error", err))
		return
	}

	s.logger.Info("submission evaluated",
		slog.Int("submission_id", submission.ID),
		slog.Int("team_id", submission.TeamID),
		slog.String("round", string(submission.RoundKind)))

	roomID := fmt.Sprintf("%d", submission.EventID)
	s.hub.BroadcastToRoom(roomID, live.Message{
		Type:   live.MessageEvaluationCompleted,
		RoomID: roomID,
		Payload: map[string]interface{}{
			"teamId":  submission.TeamID,
			"roundId": submission.RoundKind,
		},
	})
	s.hub.BroadcastToRoom(roomID, live.Message{
		Type:   live.MessageLeaderboardUpdated,
		RoomID: roomID,
	})
}

func (s *evaluationService) buildEvaluation(ctx context.Context, submission *models.Submission) (*models.Evaluation, error) {
	switch submission.RoundKind {
	case models.RoundDeck:
		if submission.FileKey == nil {
			return nil, fmt.Errorf("deck submission %d has no file", submission.ID)
		}
		deck, err := s.evaluator.EvaluateDeck(ctx, s.uploader.GetPublicURL(*submission.FileKey))
		if err != nil {
			return nil, err
		}
		return &models.Evaluation{Kind: models.RoundDeck, Deck: deck}, nil

	case models.RoundRepo:
		if submission.RepoURL == nil || submission.VideoURL == nil {
			return nil, fmt.Errorf("repo submission %d is missing links", submission.ID)
		}
		repo, err := s.evaluator.EvaluateRepo(ctx, *submission.RepoURL, *submission.VideoURL)
		if err != nil {
			return nil, err
		}
		return &models.Evaluation{Kind: models.RoundRepo, Repo: repo}, nil
	}
	return nil, fmt.Errorf("round %q is not evaluated in background", submission.RoundKind)
}
