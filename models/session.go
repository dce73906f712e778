package models

import "time"

// InterviewSession - строго последовательный диалог вопрос-ответ.
// Сессия никогда не перематывается назад и не сбрасывается; после Done
// новые ответы не принимаются.
type InterviewSession struct {
	ID             string    `json:"sessionId" db:"id"`
	EventID        *int      `json:"eventId,omitempty" db:"event_id"`
	TeamID         *int      `json:"teamId,omitempty" db:"team_id"`
	TeamName       *string   `json:"teamName,omitempty" db:"team_name"`
	ReportKey      string    `json:"-" db:"report_key"`
	Questions      []string  `json:"-" db:"questions"`
	CurrentIndex   int       `json:"questionIndex" db:"current_index"`
	TotalQuestions int       `json:"totalQuestions" db:"total_questions"`
	TotalScore     float64   `json:"totalScore" db:"total_score"`
	AnsweredCount  int       `json:"answeredCount" db:"answered_count"`
	Done           bool      `json:"done" db:"done"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// CurrentQuestion возвращает текст текущего вопроса, пустую строку после Done.
func (s *InterviewSession) CurrentQuestion() string {
	if s.Done || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return ""
	}
	return s.Questions[s.CurrentIndex]
}

// InterviewTurn - один оценённый ответ. Повторная отправка того же индекса
// (retry после сетевого сбоя) замещает предыдущий turn этого индекса.
type InterviewTurn struct {
	ID            int       `json:"id" db:"id"`
	SessionID     string    `json:"sessionId" db:"session_id"`
	QuestionIndex int       `json:"questionIndex" db:"question_index"`
	Question      string    `json:"question" db:"question"`
	AudioKey      *string   `json:"-" db:"audio_key"`
	Transcript    string    `json:"transcript" db:"transcript"`
	Feedback      string    `json:"feedback" db:"feedback"`
	Score         float64   `json:"score" db:"score"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
