package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/evalx/evalx-backend/models"
)

func newSubmissionFixture(t *testing.T) (SubmissionService, *fakeSubmissionRepo, *fakeUploader, int, *models.Team) {
	t.Helper()
	submissionRepo := newFakeSubmissionRepo()
	teamRepo := newFakeTeamRepo()
	eventRepo := newFakeEventRepo()
	uploader := &fakeUploader{}

	ctx := context.Background()
	event := &models.Event{
		Name:                 "Spring Hack",
		OrganizerID:          100,
		Date:                 time.Now().Add(24 * time.Hour),
		RegistrationDeadline: time.Now().Add(12 * time.Hour),
		MaxTeams:             10,
		MaxMembers:           4,
		Rounds: []models.Round{
			{Kind: models.RoundDeck},
			{Kind: models.RoundRepo},
			{Kind: models.RoundInterview},
		},
	}
	if err := eventRepo.Create(ctx, event); err != nil {
		t.Fatalf("create event: %v", err)
	}

	team := &models.Team{EventID: event.ID, Name: "Byte Bandits", LeaderID: 1}
	if err := teamRepo.Create(ctx, team); err != nil {
		t.Fatalf("create team: %v", err)
	}

	svc := NewSubmissionService(submissionRepo, teamRepo, eventRepo, uploader)
	return svc, submissionRepo, uploader, event.ID, team
}

func deckFile() *FileInput {
	return &FileInput{
		Reader:      strings.NewReader("pretend pptx bytes"),
		Filename:    "pitch.pptx",
		ContentType: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	}
}

func TestSubmitDeck(t *testing.T) {
	svc, _, uploader, eventID, team := newSubmissionFixture(t)
	ctx := context.Background()

	submission, err := svc.SubmitDeck(ctx, eventID, 1, deckFile())
	if err != nil {
		t.Fatalf("submit deck: %v", err)
	}
	if submission.TeamID != team.ID {
		t.Errorf("team id = %d, want %d", submission.TeamID, team.ID)
	}
	if submission.EvalStatus != models.EvaluationPending {
		t.Errorf("eval status = %q, want pending", submission.EvalStatus)
	}
	if submission.FileURL == nil {
		t.Error("file url not populated")
	}
	if uploader.uploadCount() != 1 {
		t.Errorf("uploads = %d, want 1", uploader.uploadCount())
	}
}

func TestSubmitDeckTwice(t *testing.T) {
	svc, _, uploader, eventID, _ := newSubmissionFixture(t)
	ctx := context.Background()

	if _, err := svc.SubmitDeck(ctx, eventID, 1, deckFile()); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.SubmitDeck(ctx, eventID, 1, deckFile()); !errors.Is(err, ErrSubmissionExists) {
		t.Fatalf("second submit: err = %v, want ErrSubmissionExists", err)
	}
	// Отклонённый повтор не должен грузить файл в хранилище.
	if uploader.uploadCount() != 1 {
		t.Errorf("uploads = %d, want 1", uploader.uploadCount())
	}
}

func TestSubmitDeckValidation(t *testing.T) {
	svc, _, _, eventID, _ := newSubmissionFixture(t)
	ctx := context.Background()

	if _, err := svc.SubmitDeck(ctx, eventID, 1, nil); !errors.Is(err, ErrDeckFileRequired) {
		t.Errorf("nil file: err = %v, want ErrDeckFileRequired", err)
	}
	// Пользователь без команды.
	if _, err := svc.SubmitDeck(ctx, eventID, 42, deckFile()); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("no team: err = %v, want ErrTeamNotFound", err)
	}
}

func TestSubmitRepo(t *testing.T) {
	svc, _, _, eventID, _ := newSubmissionFixture(t)
	ctx := context.Background()

	if _, err := svc.SubmitRepo(ctx, eventID, 1, "https://github.com/x/y", ""); !errors.Is(err, ErrRepoLinksRequired) {
		t.Errorf("missing video: err = %v, want ErrRepoLinksRequired", err)
	}
	if _, err := svc.SubmitRepo(ctx, eventID, 1, "", "https://youtu.be/demo"); !errors.Is(err, ErrRepoLinksRequired) {
		t.Errorf("missing repo: err = %v, want ErrRepoLinksRequired", err)
	}

	submission, err := svc.SubmitRepo(ctx, eventID, 1, "https://github.com/x/y", "https://youtu.be/demo")
	if err != nil {
		t.Fatalf("submit repo: %v", err)
	}
	if submission.EvalStatus != models.EvaluationPending {
		t.Errorf("eval status = %q, want pending", submission.EvalStatus)
	}
}

func TestSubmitRoundNotInEvent(t *testing.T) {
	submissionRepo := newFakeSubmissionRepo()
	teamRepo := newFakeTeamRepo()
	eventRepo := newFakeEventRepo()
	ctx := context.Background()

	event := &models.Event{
		Name:   "Deck Only",
		Date:   time.Now().Add(24 * time.Hour),
		Rounds: []models.Round{{Kind: models.RoundDeck}},
	}
	if err := eventRepo.Create(ctx, event); err != nil {
		t.Fatalf("create event: %v", err)
	}
	team := &models.Team{EventID: event.ID, Name: "Solo", LeaderID: 1}
	if err := teamRepo.Create(ctx, team); err != nil {
		t.Fatalf("create team: %v", err)
	}

	svc := NewSubmissionService(submissionRepo, teamRepo, eventRepo, &fakeUploader{})
	if _, err := svc.SubmitRepo(ctx, event.ID, 1, "https://github.com/x/y", "https://youtu.be/demo"); !errors.Is(err, ErrRoundNotFound) {
		t.Errorf("err = %v, want ErrRoundNotFound", err)
	}
}

func TestListMine(t *testing.T) {
	svc, _, _, eventID, team := newSubmissionFixture(t)
	ctx := context.Background()

	if _, err := svc.SubmitDeck(ctx, eventID, 1, deckFile()); err != nil {
		t.Fatalf("submit deck: %v", err)
	}
	if _, err := svc.SubmitRepo(ctx, eventID, 1, "https://github.com/x/y", "https://youtu.be/demo"); err != nil {
		t.Fatalf("submit repo: %v", err)
	}

	mine, err := svc.ListMine(ctx, eventID, 1)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if mine.TeamID != team.ID || mine.TeamName != "Byte Bandits" {
		t.Errorf("team = %d %q, want %d %q", mine.TeamID, mine.TeamName, team.ID, "Byte Bandits")
	}
	if len(mine.Submissions) != 2 {
		t.Fatalf("submissions = %d, want 2", len(mine.Submissions))
	}
	if _, ok := mine.Submissions[models.RoundDeck]; !ok {
		t.Error("deck submission missing from map")
	}
	if _, ok := mine.Submissions[models.RoundRepo]; !ok {
		t.Error("repo submission missing from map")
	}
}

func TestListByEventOrganizerOnly(t *testing.T) {
	svc, _, _, eventID, _ := newSubmissionFixture(t)
	ctx := context.Background()

	if _, err := svc.ListByEvent(ctx, eventID, 999); !errors.Is(err, ErrForbiddenOperation) {
		t.Errorf("foreign organizer: err = %v, want ErrForbiddenOperation", err)
	}
	if _, err := svc.ListByEvent(ctx, eventID, 100); err != nil {
		t.Errorf("owner: %v", err)
	}
}
