package models

import "time"

// EvaluationStatus - состояние асинхронной AI-оценки сабмишена.
type EvaluationStatus string

const (
	EvaluationNone      EvaluationStatus = "none"    // раунд не оценивается в фоне (viva)
	EvaluationPending   EvaluationStatus = "pending" // ждёт обработки свипером
	EvaluationCompleted EvaluationStatus = "completed"
	EvaluationFailed    EvaluationStatus = "failed"
)

// Submission - артефакт команды за один раунд. Не более одного на пару
// (team, round); повторная отправка отклоняется, а не перезаписывается.
type Submission struct {
	ID          int       `json:"id" db:"id"`
	EventID     int       `json:"eventId" db:"event_id"`
	TeamID      int       `json:"teamId" db:"team_id"`
	RoundKind   RoundKind `json:"roundId" db:"round_kind"`
	SubmittedAt time.Time `json:"submittedAt" db:"submitted_at"`
	SubmittedBy int       `json:"submittedBy" db:"submitted_by"`

	// Полезная нагрузка зависит от вида раунда.
	FileKey   *string `json:"-" db:"file_key"`
	FileURL   *string `json:"fileUrl,omitempty" db:"-"`
	RepoURL   *string `json:"repo,omitempty" db:"repo_url"`
	VideoURL  *string `json:"video,omitempty" db:"video_url"`
	SessionID *string `json:"sessionId,omitempty" db:"session_id"`

	EvalStatus EvaluationStatus `json:"evaluationStatus" db:"eval_status"`
	Evaluation *Evaluation      `json:"aiResult,omitempty" db:"evaluation"`
}

// Evaluation - размеченное объединение AI-оценок по виду раунда.
// Все вложенные поля опциональны: частичный ответ бекенда - норма, не ошибка.
type Evaluation struct {
	Kind RoundKind         `json:"kind"`
	Deck *DeckEvaluation   `json:"deck,omitempty"`
	Repo *RepoEvaluation   `json:"repo,omitempty"`
	Viva *InterviewSummary `json:"viva,omitempty"`
}

type DeckEvaluation struct {
	Score         *DeckScore   `json:"score,omitempty"`
	DeckSummary   *DeckSummary `json:"deck_summary,omitempty"`
	MentorSummary string       `json:"mentor_summary,omitempty"`
}

type DeckScore struct {
	OverallScore *float64 `json:"overall_score,omitempty"`
}

type DeckSummary struct {
	Strengths        []string `json:"strengths,omitempty"`
	Weaknesses       []string `json:"weaknesses,omitempty"`
	RecommendedFixes []string `json:"recommended_fixes,omitempty"`
}

type RepoEvaluation struct {
	FinalScore                 *float64    `json:"final_score,omitempty"`
	Rubric                     *RepoRubric `json:"rubric,omitempty"`
	MentorSummaryMarkdown      string      `json:"mentor_summary_markdown,omitempty"`
	RewriteSuggestionsMarkdown string      `json:"rewrite_suggestions_markdown,omitempty"`
}

type RepoRubric struct {
	Grade   string `json:"grade,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// InterviewSummary - итог собеседования, подцепляемый к сабмишену viva-раунда.
type InterviewSummary struct {
	TotalScore     float64 `json:"totalScore"`
	AnsweredCount  int     `json:"answeredCount"`
	TotalQuestions int     `json:"totalQuestions"`
}

// Score возвращает числовую оценку сабмишена, если она уже доступна.
func (s *Submission) Score() (float64, bool) {
	if s.Evaluation == nil {
		return 0, false
	}
	switch {
	case s.Evaluation.Deck != nil && s.Evaluation.Deck.Score != nil && s.Evaluation.Deck.Score.OverallScore != nil:
		return *s.Evaluation.Deck.Score.OverallScore, true
	case s.Evaluation.Repo != nil && s.Evaluation.Repo.FinalScore != nil:
		return *s.Evaluation.Repo.FinalScore, true
	case s.Evaluation.Viva != nil:
		return s.Evaluation.Viva.TotalScore, true
	}
	return 0, false
}
