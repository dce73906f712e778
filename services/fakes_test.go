package services

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/evalx/evalx-backend/ai"
	"github.com/evalx/evalx-backend/models"
	"github.com/evalx/evalx-backend/repositories"
	"github.com/evalx/evalx-backend/storage"
)

// Рукописные in-memory репозитории для тестов сервисного слоя.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeEventRepo struct {
	mu     sync.Mutex
	nextID int
	events map[int]*models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{nextID: 1, events: make(map[int]*models.Event)}
}

func (r *fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.events {
		if existing.Name == event.Name {
			return repositories.ErrEventNameConflict
		}
	}
	event.ID = r.nextID
	r.nextID++
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id int) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *fakeEventRepo) ListByOrganizer(_ context.Context, organizerID int) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Event
	for _, event := range r.events {
		if event.OrganizerID == organizerID {
			copied := *event
			out = append(out, &copied)
		}
	}
	sortEventsByID(out)
	return out, nil
}

func (r *fakeEventRepo) ListPublished(_ context.Context) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Event
	for _, event := range r.events {
		if event.Status != models.StatusCanceled {
			copied := *event
			out = append(out, &copied)
		}
	}
	sortEventsByID(out)
	return out, nil
}

func (r *fakeEventRepo) ListUnfinished(_ context.Context) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Event
	for _, event := range r.events {
		if event.Status != models.StatusCompleted && event.Status != models.StatusCanceled {
			copied := *event
			out = append(out, &copied)
		}
	}
	sortEventsByID(out)
	return out, nil
}

func (r *fakeEventRepo) UpdateStatus(_ context.Context, id int, status models.EventStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	event.Status = status
	return nil
}

func sortEventsByID(events []*models.Event) {
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
}

type fakeTeamRepo struct {
	mu      sync.Mutex
	nextID  int
	teams   map[int]*models.Team
	members map[int][]models.TeamMember // team id -> members
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		nextID:  1,
		teams:   make(map[int]*models.Team),
		members: make(map[int][]models.TeamMember),
	}
}

func (r *fakeTeamRepo) Create(_ context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.teams {
		if existing.EventID != team.EventID {
			continue
		}
		if existing.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
		for _, member := range r.members[existing.ID] {
			if member.UserID == team.LeaderID {
				return repositories.ErrMembershipConflict
			}
		}
	}
	team.ID = r.nextID
	r.nextID++
	copied := *team
	r.teams[team.ID] = &copied
	r.members[team.ID] = []models.TeamMember{{UserID: team.LeaderID}}
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(id)
}

func (r *fakeTeamRepo) GetByEventAndUser(_ context.Context, eventID, userID int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, team := range r.teams {
		if team.EventID != eventID {
			continue
		}
		for _, member := range r.members[id] {
			if member.UserID == userID {
				return r.snapshot(id)
			}
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) ListByEvent(_ context.Context, eventID int) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int
	for id, team := range r.teams {
		if team.EventID == eventID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]*models.Team, 0, len(ids))
	for _, id := range ids {
		team, _ := r.snapshot(id)
		out = append(out, team)
	}
	return out, nil
}

func (r *fakeTeamRepo) CountByEvent(_ context.Context, eventID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, team := range r.teams {
		if team.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (r *fakeTeamRepo) AddMember(_ context.Context, teamID, eventID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, team := range r.teams {
		if team.EventID != eventID {
			continue
		}
		for _, member := range r.members[id] {
			if member.UserID == userID {
				return repositories.ErrMembershipConflict
			}
		}
	}
	if _, ok := r.teams[teamID]; !ok {
		return repositories.ErrTeamNotFound
	}
	r.members[teamID] = append(r.members[teamID], models.TeamMember{UserID: userID})
	return nil
}

func (r *fakeTeamRepo) RemoveMember(_ context.Context, teamID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.members[teamID]
	for i, member := range members {
		if member.UserID == userID {
			r.members[teamID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) CountMembers(_ context.Context, teamID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members[teamID]), nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	delete(r.members, id)
	return nil
}

func (r *fakeTeamRepo) snapshot(id int) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	copied.Members = append([]models.TeamMember(nil), r.members[id]...)
	return &copied, nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	nextID   int
	requests map[int]*models.JoinRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{nextID: 1, requests: make(map[int]*models.JoinRequest)}
}

func (r *fakeRequestRepo) Create(_ context.Context, request *models.JoinRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.requests {
		if existing.TeamID == request.TeamID && existing.UserID == request.UserID &&
			existing.Status == models.RequestPending {
			return repositories.ErrRequestConflict
		}
	}
	request.ID = r.nextID
	r.nextID++
	request.Status = models.RequestPending
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id int) (*models.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	copied := *request
	return &copied, nil
}

func (r *fakeRequestRepo) Resolve(_ context.Context, id int, status models.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return repositories.ErrRequestNotFound
	}
	if request.Status != models.RequestPending {
		return repositories.ErrRequestAlreadyResolved
	}
	request.Status = status
	return nil
}

func (r *fakeRequestRepo) HasPending(_ context.Context, teamID, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, request := range r.requests {
		if request.TeamID == teamID && request.UserID == userID &&
			request.Status == models.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	nextID      int
	submissions map[int]*models.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{nextID: 1, submissions: make(map[int]*models.Submission)}
}

func (r *fakeSubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.submissions {
		if existing.TeamID == submission.TeamID && existing.RoundKind == submission.RoundKind {
			return repositories.ErrSubmissionConflict
		}
	}
	submission.ID = r.nextID
	r.nextID++
	copied := *submission
	r.submissions[submission.ID] = &copied
	return nil
}

func (r *fakeSubmissionRepo) GetByTeamAndRound(_ context.Context, teamID int, kind models.RoundKind) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, submission := range r.submissions {
		if submission.TeamID == teamID && submission.RoundKind == kind {
			copied := *submission
			return &copied, nil
		}
	}
	return nil, repositories.ErrSubmissionNotFound
}

func (r *fakeSubmissionRepo) ListByTeam(_ context.Context, eventID, teamID int) ([]*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Submission
	for _, submission := range r.submissions {
		if submission.EventID == eventID && submission.TeamID == teamID {
			copied := *submission
			out = append(out, &copied)
		}
	}
	sortSubmissionsByID(out)
	return out, nil
}

func (r *fakeSubmissionRepo) ListByEvent(_ context.Context, eventID int) ([]*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Submission
	for _, submission := range r.submissions {
		if submission.EventID == eventID {
			copied := *submission
			out = append(out, &copied)
		}
	}
	sortSubmissionsByID(out)
	return out, nil
}

func (r *fakeSubmissionRepo) ListPendingEvaluation(_ context.Context, limit int) ([]*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Submission
	for _, submission := range r.submissions {
		if submission.EvalStatus == models.EvaluationPending {
			copied := *submission
			out = append(out, &copied)
		}
	}
	sortSubmissionsByID(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSubmissionRepo) SetEvaluation(_ context.Context, id int, status models.EvaluationStatus, evaluation *models.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	submission, ok := r.submissions[id]
	if !ok {
		return repositories.ErrSubmissionNotFound
	}
	submission.EvalStatus = status
	submission.Evaluation = evaluation
	return nil
}

func sortSubmissionsByID(submissions []*models.Submission) {
	sort.Slice(submissions, func(i, j int) bool { return submissions[i].ID < submissions[j].ID })
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.InterviewSession
	turns    map[string]map[int]*models.InterviewTurn // session id -> question index -> turn
	nextTurn int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[string]*models.InterviewSession),
		turns:    make(map[string]map[int]*models.InterviewTurn),
		nextTurn: 1,
	}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *models.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	copied.Questions = append([]string(nil), session.Questions...)
	r.sessions[session.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	copied := *session
	copied.Questions = append([]string(nil), session.Questions...)
	return &copied, nil
}

func (r *fakeSessionRepo) UpdateProgress(_ context.Context, session *models.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[session.ID]
	if !ok {
		return repositories.ErrSessionNotFound
	}
	stored.CurrentIndex = session.CurrentIndex
	stored.TotalScore = session.TotalScore
	stored.AnsweredCount = session.AnsweredCount
	stored.Done = session.Done
	return nil
}

func (r *fakeSessionRepo) UpsertTurn(_ context.Context, turn *models.InterviewTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byIndex, ok := r.turns[turn.SessionID]
	if !ok {
		byIndex = make(map[int]*models.InterviewTurn)
		r.turns[turn.SessionID] = byIndex
	}
	if existing, ok := byIndex[turn.QuestionIndex]; ok {
		turn.ID = existing.ID
	} else {
		turn.ID = r.nextTurn
		r.nextTurn++
	}
	copied := *turn
	byIndex[turn.QuestionIndex] = &copied
	return nil
}

func (r *fakeSessionRepo) ListTurns(_ context.Context, sessionID string) ([]*models.InterviewTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.InterviewTurn
	for _, turn := range r.turns[sessionID] {
		copied := *turn
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out, nil
}

// fakeUploader запоминает загруженные ключи вместо похода в хранилище.
type fakeUploader struct {
	mu      sync.Mutex
	uploads []string
	deletes []string
}

func (u *fakeUploader) Upload(_ context.Context, key string, _ string, reader io.Reader) (*storage.UploadResult, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads = append(u.uploads, key)
	return &storage.UploadResult{Key: key, Location: "https://files.test/" + key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deletes = append(u.deletes, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://files.test/" + key
}

func (u *fakeUploader) uploadCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.uploads)
}

// fakeEvaluator отдаёт детерминированные оценки без внешнего сервиса.
type fakeEvaluator struct {
	questions    []string
	answerScore  float64
	deckScore    float64
	repoScore    float64
	questionsErr error
	scoreErr     error
}

func (e *fakeEvaluator) EvaluateDeck(_ context.Context, _ string) (*models.DeckEvaluation, error) {
	score := e.deckScore
	return &models.DeckEvaluation{Score: &models.DeckScore{OverallScore: &score}}, nil
}

func (e *fakeEvaluator) EvaluateRepo(_ context.Context, _, _ string) (*models.RepoEvaluation, error) {
	score := e.repoScore
	return &models.RepoEvaluation{FinalScore: &score}, nil
}

func (e *fakeEvaluator) GenerateQuestions(_ context.Context, _ string) ([]string, error) {
	if e.questionsErr != nil {
		return nil, e.questionsErr
	}
	return e.questions, nil
}

func (e *fakeEvaluator) ScoreAnswer(_ context.Context, question string, audio io.Reader, _ string) (*ai.AnswerEvaluation, error) {
	if e.scoreErr != nil {
		return nil, e.scoreErr
	}
	if _, err := io.Copy(io.Discard, audio); err != nil {
		return nil, err
	}
	return &ai.AnswerEvaluation{
		Transcript: "transcript for " + question,
		Feedback:   "feedback for " + question,
		Score:      e.answerScore,
	}, nil
}

func (e *fakeEvaluator) DraftEvent(_ context.Context, details string) (*models.EventDraft, error) {
	return &models.EventDraft{Name: details, MaxTeams: 10, MinMembers: 2, MaxMembers: 4}, nil
}

func (e *fakeEvaluator) Synthesize(_ context.Context, text string) ([]byte, string, error) {
	return []byte(text), "audio/mpeg", nil
}
