package ai

import (
	"context"
	"io"

	"github.com/evalx/evalx-backend/models"
)

// AnswerEvaluation - результат транскрипции и оценки одного аудио-ответа.
type AnswerEvaluation struct {
	Transcript string  `json:"transcript"`
	Feedback   string  `json:"feedback"`
	Score      float64 `json:"score"`
}

// Evaluator абстрагирует внешний AI-пайплайн оценивания. Вся «интересная»
// работа (анализ деков и репозиториев, транскрипция, скоринг ответов, TTS)
// выполняется удалённым сервисом; здесь только его HTTP-контракт.
type Evaluator interface {
	EvaluateDeck(ctx context.Context, deckURL string) (*models.DeckEvaluation, error)
	EvaluateRepo(ctx context.Context, repoURL, videoURL string) (*models.RepoEvaluation, error)

	// GenerateQuestions готовит упорядоченный список вопросов собеседования
	// по загруженному отчёту проекта.
	GenerateQuestions(ctx context.Context, reportURL string) ([]string, error)

	// ScoreAnswer транскрибирует и оценивает один аудио-ответ на вопрос.
	ScoreAnswer(ctx context.Context, question string, audio io.Reader, filename string) (*AnswerEvaluation, error)

	// DraftEvent генерирует черновик события по свободному описанию.
	DraftEvent(ctx context.Context, details string) (*models.EventDraft, error)

	// Synthesize возвращает озвучку текста и content type аудио.
	Synthesize(ctx context.Context, text string) ([]byte, string, error)
}
