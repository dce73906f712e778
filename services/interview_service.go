package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/evalx/evalx-backend/ai"
	"github.com/evalx/evalx-backend/live"
	"github.com/evalx/evalx-backend/models"
	"github.com/evalx/evalx-backend/repositories"
	"github.com/evalx/evalx-backend/storage"
)

type InterviewService interface {
	// StartSession загружает отчёт проекта, генерирует вопросы и открывает
	// новую сессию собеседования на первом вопросе.
	StartSession(ctx context.Context, userID int, eventID *int, report *FileInput) (*models.InterviewSession, error)
	// SubmitAnswer оценивает аудио-ответ на текущий вопрос и продвигает
	// сессию вперёд. Повтор текущего индекса замещает прежний ответ.
	SubmitAnswer(ctx context.Context, sessionID string, questionIndex int, audio *FileInput) (*AnswerResult, error)
	// Speak синтезирует озвучку текста вопроса.
	Speak(ctx context.Context, text string) ([]byte, string, error)
}

// AnswerResult - итог одного оценённого ответа и следующее состояние сессии.
type AnswerResult struct {
	Transcript     string  `json:"transcript"`
	Feedback       string  `json:"feedback"`
	Score          float64 `json:"score"`
	TotalScore     float64 `json:"totalScore"`
	AnsweredCount  int     `json:"answeredCount"`
	Done           bool    `json:"done"`
	NextQuestion   string  `json:"nextQuestion,omitempty"`
	NextIndex      int     `json:"nextIndex"`
	TotalQuestions int     `json:"totalQuestions"`
}

type interviewService struct {
	sessionRepo    repositories.SessionRepository
	submissionRepo repositories.SubmissionRepository
	teamRepo       repositories.TeamRepository
	uploader       storage.FileUploader
	evaluator      ai.Evaluator
	hub            *live.Hub
	logger         *slog.Logger
}

func NewInterviewService(
	sessionRepo repositories.SessionRepository,
	submissionRepo repositories.SubmissionRepository,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	evaluator ai.Evaluator,
	hub *live.Hub,
	logger *slog.Logger,
) InterviewService {
	return &interviewService{
		sessionRepo:    sessionRepo,
		submissionRepo: submissionRepo,
		teamRepo:       teamRepo,
		uploader:       uploader,
		evaluator:      evaluator,
		hub:            hub,
		logger:         logger,
	}
}

func (s *interviewService) StartSession(ctx context.Context, userID int, eventID *int, report *FileInput) (*models.InterviewSession, error) {
	if report == nil {
		return nil, ErrReportFileRequired
	}

	session := &models.InterviewSession{
		ID:      uuid.NewString(),
		EventID: eventID,
	}
	if eventID != nil {
		team, err := s.teamRepo.GetByEventAndUser(ctx, *eventID, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("failed to get team for user %d: %w", userID, err)
		}
		session.TeamID = &team.ID
		session.TeamName = &team.Name
	}

	key := buildObjectKey("interviews/reports", report.Filename)
	if _, err := s.uploader.Upload(ctx, key, report.ContentType, report.Reader); err != nil {
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}
	session.ReportKey = key

	questions, err := s.evaluator.GenerateQuestions(ctx, s.uploader.GetPublicURL(key))
	if err != nil {
		return nil, fmt.Errorf("failed to generate interview questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("interview question generation returned no questions")
	}
	session.Questions = questions
	session.TotalQuestions = len(questions)

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create interview session: %w", err)
	}
	return session, nil
}

func (s *interviewService) SubmitAnswer(ctx context.Context, sessionID string, questionIndex int, audio *FileInput) (*AnswerResult, error) {
	if audio == nil {
		return nil, ErrAudioFileRequired
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get interview session %s: %w", sessionID, err)
	}
	if session.Done {
		return nil, ErrSessionDone
	}
	// Принимается только текущий индекс. Его повтор после сбоя замещает
	// прежний ответ; уже пройденные и будущие индексы отклоняются.
	if questionIndex != session.CurrentIndex {
		return nil, ErrQuestionIndexMismatch
	}
	question := session.CurrentQuestion()

	// Аудио читается дважды: в хранилище и в скоринг.
	audioBytes, err := io.ReadAll(audio.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read answer audio: %w", err)
	}

	key := buildObjectKey("interviews/answers", audio.Filename)
	if _, err := s.uploader.Upload(ctx, key, audio.ContentType, bytes.NewReader(audioBytes)); err != nil {
		return nil, fmt.Errorf("failed to upload answer audio: %w", err)
	}

	evaluation, err := s.evaluator.ScoreAnswer(ctx, question, bytes.NewReader(audioBytes), audio.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to score answer: %w", err)
	}

	turn := &models.InterviewTurn{
		SessionID:     sessionID,
		QuestionIndex: questionIndex,
		Question:      question,
		AudioKey:      &key,
		Transcript:    evaluation.Transcript,
		Feedback:      evaluation.Feedback,
		Score:         evaluation.Score,
	}
	if err := s.sessionRepo.UpsertTurn(ctx, turn); err != nil {
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}

	// Прогресс пересчитывается по записанным turn-ам, чтобы замещённый
	// ответ не удваивал сумму очков.
	turns, err := s.sessionRepo.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers for session %s: %w", sessionID, err)
	}
	session.TotalScore = 0
	for _, t := range turns {
		session.TotalScore += t.Score
	}
	session.AnsweredCount = len(turns)
	session.CurrentIndex = questionIndex + 1
	session.Done = session.CurrentIndex >= session.TotalQuestions

	if err := s.sessionRepo.UpdateProgress(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session %s: %w", sessionID, err)
	}

	if session.Done {
		s.finishSession(ctx, session)
	}

	return &AnswerResult{
		Transcript:     evaluation.Transcript,
		Feedback:       evaluation.Feedback,
		Score:          evaluation.Score,
		TotalScore:     session.TotalScore,
		AnsweredCount:  session.AnsweredCount,
		Done:           session.Done,
		NextQuestion:   session.CurrentQuestion(),
		NextIndex:      session.CurrentIndex,
		TotalQuestions: session.TotalQuestions,
	}, nil
}

// finishSession подцепляет итог собеседования к viva-сабмишену команды.
// Сбой здесь не откатывает завершение сессии, только логируется.
func (s *interviewService) finishSession(ctx context.Context, session *models.InterviewSession) {
	if session.TeamID == nil || session.EventID == nil {
		return
	}

	submission, err := s.submissionRepo.GetByTeamAndRound(ctx, *session.TeamID, models.RoundInterview)
	if err != nil {
		if !errors.Is(err, repositories.ErrSubmissionNotFound) {
			s.logger.Error("failed to find interview submission",
				slog.String("session_id", session.ID),
				slog.Any("error", err))
		}
		return
	}

	evaluation := &models.Evaluation{
		Kind: models.RoundInterview,
		Viva: &models.InterviewSummary{
			TotalScore:     session.TotalScore,
			AnsweredCount:  session.AnsweredCount,
			TotalQuestions: session.TotalQuestions,
		},
	}
	if err := s.submissionRepo.SetEvaluation(ctx, submission.ID, models.EvaluationCompleted, evaluation); err != nil {
		s.logger.Error("failed to attach interview summary",
			slog.String("session_id", session.ID),
			slog.Int("submission_id", submission.ID),
			slog.Any("error", err))
		return
	}

	roomID := fmt.Sprintf("%d", *session.EventID)
	s.hub.BroadcastToRoom(roomID, live.Message{
		Type:   live.MessageLeaderboardUpdated,
		RoomID: roomID,
		Payload: map[string]interface{}{
			"teamId":    *session.TeamID,
			"roundId":   models.RoundInterview,
			"sessionId": session.ID,
		},
	})
}

func (s *interviewService) Speak(ctx context.Context, text string) ([]byte, string, error) {
	if text == "" {
		return nil, "", ErrSpeechTextRequired
	}
	audio, contentType, err := s.evaluator.Synthesize(ctx, text)
	if err != nil {
		return nil, "", fmt.Errorf("failed to synthesize speech: %w", err)
	}
	return audio, contentType, nil
}
