package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/evalx/evalx-backend/live"
	"github.com/evalx/evalx-backend/models"
)

func newInterviewFixture(t *testing.T, evaluator *fakeEvaluator) (InterviewService, *fakeSessionRepo, *fakeSubmissionRepo, *fakeTeamRepo) {
	t.Helper()
	sessionRepo := newFakeSessionRepo()
	submissionRepo := newFakeSubmissionRepo()
	teamRepo := newFakeTeamRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewInterviewService(sessionRepo, submissionRepo, teamRepo,
		&fakeUploader{}, evaluator, live.NewHub(), logger)
	return svc, sessionRepo, submissionRepo, teamRepo
}

func reportFile() *FileInput {
	return &FileInput{
		Reader:      strings.NewReader("project report"),
		Filename:    "report.pdf",
		ContentType: "application/pdf",
	}
}

func audioFile() *FileInput {
	return &FileInput{
		Reader:      strings.NewReader("pretend audio"),
		Filename:    "answer.webm",
		ContentType: "audio/webm",
	}
}

func TestStartSession(t *testing.T) {
	evaluator := &fakeEvaluator{questions: []string{"q1", "q2", "q3"}}
	svc, _, _, _ := newInterviewFixture(t, evaluator)
	ctx := context.Background()

	session, err := svc.StartSession(ctx, 1, nil, reportFile())
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if session.ID == "" {
		t.Error("session id is empty")
	}
	if session.TotalQuestions != 3 {
		t.Errorf("total questions = %d, want 3", session.TotalQuestions)
	}
	if session.CurrentIndex != 0 || session.CurrentQuestion() != "q1" {
		t.Errorf("session starts at %d %q, want 0 q1", session.CurrentIndex, session.CurrentQuestion())
	}

	if _, err := svc.StartSession(ctx, 1, nil, nil); !errors.Is(err, ErrReportFileRequired) {
		t.Errorf("nil report: err = %v, want ErrReportFileRequired", err)
	}
}

func TestSubmitAnswerProgression(t *testing.T) {
	evaluator := &fakeEvaluator{questions: []string{"q1", "q2"}, answerScore: 8}
	svc, _, _, _ := newInterviewFixture(t, evaluator)
	ctx := context.Background()

	session, err := svc.StartSession(ctx, 1, nil, reportFile())
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	first, err := svc.SubmitAnswer(ctx, session.ID, 0, audioFile())
	if err != nil {
		t.Fatalf("answer q1: %v", err)
	}
	if first.Done {
		t.Error("done after first of two answers")
	}
	if first.AnsweredCount != 1 || first.TotalScore != 8 {
		t.Errorf("after q1: answered %d score %v, want 1 and 8", first.AnsweredCount, first.TotalScore)
	}
	if first.NextQuestion != "q2" || first.NextIndex != 1 {
		t.Errorf("next = %q at %d, want q2 at 1", first.NextQuestion, first.NextIndex)
	}

	second, err := svc.SubmitAnswer(ctx, session.ID, 1, audioFile())
	if err != nil {
		t.Fatalf("answer q2: %v", err)
	}
	if !second.Done {
		t.Error("not done after final answer")
	}
	if second.AnsweredCount != 2 || second.TotalScore != 16 {
		t.Errorf("after q2: answered %d score %v, want 2 and 16", second.AnsweredCount, second.TotalScore)
	}
	if second.NextQuestion != "" {
		t.Errorf("next question after done = %q, want empty", second.NextQuestion)
	}

	// Done защёлкивается: новых ответов нет.
	if _, err := svc.SubmitAnswer(ctx, session.ID, 2, audioFile()); !errors.Is(err, ErrSessionDone) {
		t.Errorf("answer after done: err = %v, want ErrSessionDone", err)
	}
}

func TestSubmitAnswerIndexMismatch(t *testing.T) {
	evaluator := &fakeEvaluator{questions: []string{"q1", "q2", "q3"}, answerScore: 5}
	svc, _, _, _ := newInterviewFixture(t, evaluator)
	ctx := context.Background()

	session, err := svc.StartSession(ctx, 1, nil, reportFile())
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	// Вперёд забегать нельзя.
	if _, err := svc.SubmitAnswer(ctx, session.ID, 1, audioFile()); !errors.Is(err, ErrQuestionIndexMismatch) {
		t.Errorf("future index: err = %v, want ErrQuestionIndexMismatch", err)
	}

	if _, err := svc.SubmitAnswer(ctx, session.ID, 0, audioFile()); err != nil {
		t.Fatalf("answer q1: %v", err)
	}

	// Назад тоже нельзя: сессия уже на индексе 1.
	if _, err := svc.SubmitAnswer(ctx, session.ID, 0, audioFile()); !errors.Is(err, ErrQuestionIndexMismatch) {
		t.Errorf("past index: err = %v, want ErrQuestionIndexMismatch", err)
	}
}

func TestSubmitAnswerRetryReplacesTurn(t *testing.T) {
	evaluator := &fakeEvaluator{questions: []string{"q1", "q2"}, answerScore: 6}
	svc, sessionRepo, _, _ := newInterviewFixture(t, evaluator)
	ctx := context.Background()

	session, err := svc.StartSession(ctx, 1, nil, reportFile())
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	// Скоринг прошёл, но клиент не получил ответ и повторяет индекс 0.
	// Для этого откатываем прогресс, как если бы запись не продвинулась.
	if _, err := svc.SubmitAnswer(ctx, session.ID, 0, audioFile()); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	stored, err := sessionRepo.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	stored.CurrentIndex = 0
	stored.AnsweredCount = 0
	stored.TotalScore = 0
	if err := sessionRepo.UpdateProgress(ctx, stored); err != nil {
		t.Fatalf("rewind session: %v", err)
	}

	evaluator.answerScore = 9
	result, err := svc.SubmitAnswer(ctx, session.ID, 0, audioFile())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	// Повтор замещает прежний turn, очки не удваиваются.
	if result.AnsweredCount != 1 {
		t.Errorf("answered = %d, want 1", result.AnsweredCount)
	}
	if result.TotalScore != 9 {
		t.Errorf("total score = %v, want 9 (replaced, not summed)", result.TotalScore)
	}

	turns, err := sessionRepo.ListTurns(ctx, session.ID)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("turns = %d, want 1", len(turns))
	}
	if turns[0].Score != 9 {
		t.Errorf("turn score = %v, want 9", turns[0].Score)
	}
}

func TestFinishAttachesInterviewSummary(t *testing.T) {
	evaluator := &fakeEvaluator{questions: []string{"q1"}, answerScore: 7}
	svc, _, submissionRepo, teamRepo := newInterviewFixture(t, evaluator)
	ctx := context.Background()

	team := &models.Team{EventID: 1, Name: "Byte Bandits", LeaderID: 1}
	if err := teamRepo.Create(ctx, team); err != nil {
		t.Fatalf("create team: %v", err)
	}
	submission := &models.Submission{
		EventID: 1, TeamID: team.ID, RoundKind: models.RoundInterview,
		EvalStatus: models.EvaluationNone,
	}
	if err := submissionRepo.Create(ctx, submission); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	eventID := 1
	session, err := svc.StartSession(ctx, 1, &eventID, reportFile())
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if session.TeamID == nil || *session.TeamID != team.ID {
		t.Fatalf("session not bound to team: %+v", session)
	}

	result, err := svc.SubmitAnswer(ctx, session.ID, 0, audioFile())
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !result.Done {
		t.Fatal("session not done after the only question")
	}

	stored, err := submissionRepo.GetByTeamAndRound(ctx, team.ID, models.RoundInterview)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if stored.EvalStatus != models.EvaluationCompleted {
		t.Errorf("eval status = %q, want completed", stored.EvalStatus)
	}
	if stored.Evaluation == nil || stored.Evaluation.Viva == nil {
		t.Fatal("interview summary not attached")
	}
	if stored.Evaluation.Viva.TotalScore != 7 || stored.Evaluation.Viva.AnsweredCount != 1 {
		t.Errorf("summary = %+v, want score 7 answered 1", stored.Evaluation.Viva)
	}
	if score, ok := stored.Score(); !ok || score != 7 {
		t.Errorf("submission score = %v %v, want 7 true", score, ok)
	}
}

func TestSpeak(t *testing.T) {
	svc, _, _, _ := newInterviewFixture(t, &fakeEvaluator{})
	ctx := context.Background()

	if _, _, err := svc.Speak(ctx, ""); !errors.Is(err, ErrSpeechTextRequired) {
		t.Errorf("empty text: err = %v, want ErrSpeechTextRequired", err)
	}
	audio, contentType, err := svc.Speak(ctx, "hello")
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if len(audio) == 0 || contentType != "audio/mpeg" {
		t.Errorf("speak returned %d bytes %q", len(audio), contentType)
	}
}
