package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/evalx/evalx-backend/models"
)

func newEventFixture(t *testing.T) (EventService, *fakeEventRepo, *fakeUploader) {
	t.Helper()
	eventRepo := newFakeEventRepo()
	uploader := &fakeUploader{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewEventService(eventRepo, uploader, &fakeEvaluator{}, logger)
	return svc, eventRepo, uploader
}

func validEventInput() CreateEventInput {
	return CreateEventInput{
		Name:                 "Spring Hack",
		Summary:              "48 hours of building",
		Date:                 time.Now().Add(72 * time.Hour),
		RegistrationDeadline: time.Now().Add(48 * time.Hour),
		MaxTeams:             20,
		MinMembers:           2,
		MaxMembers:           4,
		Rounds: []RoundInput{
			{Kind: models.RoundDeck, Instructions: "Upload your pitch deck"},
			{Kind: models.RoundRepo},
			{Kind: models.RoundInterview},
		},
	}
}

func TestEventCreate(t *testing.T) {
	svc, _, _ := newEventFixture(t)

	event, err := svc.Create(context.Background(), 100, validEventInput())
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if event.OrganizerID != 100 {
		t.Errorf("organizer id = %d, want 100", event.OrganizerID)
	}
	if event.Status != models.StatusRegistration {
		t.Errorf("status = %q, want registration", event.Status)
	}
	if len(event.Rounds) != 3 {
		t.Errorf("rounds = %d, want 3", len(event.Rounds))
	}
}

func TestEventCreateNameConflict(t *testing.T) {
	svc, _, _ := newEventFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 100, validEventInput()); err != nil {
		t.Fatalf("create event: %v", err)
	}
	if _, err := svc.Create(ctx, 101, validEventInput()); !errors.Is(err, ErrEventNameConflict) {
		t.Errorf("duplicate name: err = %v, want ErrEventNameConflict", err)
	}
}

func TestEventCreateDeadlineAfterDate(t *testing.T) {
	svc, _, uploader := newEventFixture(t)

	input := validEventInput()
	input.Date = time.Now().Add(24 * time.Hour)
	input.RegistrationDeadline = time.Now().Add(48 * time.Hour)
	input.Banner = &FileInput{Reader: strings.NewReader("png"), Filename: "banner.png", ContentType: "image/png"}

	if _, err := svc.Create(context.Background(), 100, input); !errors.Is(err, ErrEventInvalidDeadline) {
		t.Fatalf("err = %v, want ErrEventInvalidDeadline", err)
	}
	// Проверка идёт до загрузки файлов.
	if uploader.uploadCount() != 0 {
		t.Errorf("uploads = %d, want 0", uploader.uploadCount())
	}
}

func TestEventCreateValidation(t *testing.T) {
	svc, _, _ := newEventFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateEventInput)
		want   error
	}{
		{"empty name", func(in *CreateEventInput) { in.Name = "" }, ErrEventNameRequired},
		{"zero date", func(in *CreateEventInput) { in.Date = time.Time{} }, ErrEventDatesRequired},
		{"no rounds", func(in *CreateEventInput) { in.Rounds = nil }, ErrEventRoundsRequired},
		{"bad round kind", func(in *CreateEventInput) {
			in.Rounds = []RoundInput{{Kind: "karaoke"}}
		}, ErrEventInvalidRoundKind},
		{"zero max teams", func(in *CreateEventInput) { in.MaxTeams = 0 }, ErrEventInvalidCapacity},
		{"inverted member range", func(in *CreateEventInput) {
			in.MinMembers = 5
			in.MaxMembers = 2
		}, ErrEventInvalidMemberRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validEventInput()
			tc.mutate(&input)
			if _, err := svc.Create(ctx, 100, input); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestEventCreateWithBanner(t *testing.T) {
	svc, _, uploader := newEventFixture(t)

	input := validEventInput()
	input.Banner = &FileInput{Reader: strings.NewReader("png"), Filename: "banner.png", ContentType: "image/png"}
	input.Logo = &FileInput{Reader: strings.NewReader("png"), Filename: "logo.png", ContentType: "image/png"}

	event, err := svc.Create(context.Background(), 100, input)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if event.BannerURL == nil || event.LogoURL == nil {
		t.Error("banner or logo url not populated")
	}
	if uploader.uploadCount() != 2 {
		t.Errorf("uploads = %d, want 2", uploader.uploadCount())
	}
}

func TestStatusForDates(t *testing.T) {
	now := time.Now()
	deadline := now.Add(24 * time.Hour)
	date := now.Add(48 * time.Hour)

	cases := []struct {
		name string
		at   time.Time
		want models.EventStatus
	}{
		{"before deadline", now, models.StatusRegistration},
		{"between deadline and date", now.Add(36 * time.Hour), models.StatusUpcoming},
		{"during event day", now.Add(60 * time.Hour), models.StatusLive},
		{"after event", now.Add(96 * time.Hour), models.StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusForDates(tc.at, deadline, date); got != tc.want {
				t.Errorf("statusForDates = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAutoUpdateEventStatuses(t *testing.T) {
	svc, eventRepo, _ := newEventFixture(t)
	ctx := context.Background()

	// Дедлайн и дата уже прошли, но статус застрял на registration.
	stale := &models.Event{
		Name:                 "Stale Hack",
		Date:                 time.Now().Add(-48 * time.Hour),
		RegistrationDeadline: time.Now().Add(-72 * time.Hour),
		Status:               models.StatusRegistration,
	}
	fresh := &models.Event{
		Name:                 "Fresh Hack",
		Date:                 time.Now().Add(72 * time.Hour),
		RegistrationDeadline: time.Now().Add(48 * time.Hour),
		Status:               models.StatusRegistration,
	}
	canceled := &models.Event{
		Name:                 "Canceled Hack",
		Date:                 time.Now().Add(-48 * time.Hour),
		RegistrationDeadline: time.Now().Add(-72 * time.Hour),
		Status:               models.StatusCanceled,
	}
	for _, event := range []*models.Event{stale, fresh, canceled} {
		if err := eventRepo.Create(ctx, event); err != nil {
			t.Fatalf("create event: %v", err)
		}
	}

	if err := svc.AutoUpdateEventStatusesByDates(ctx); err != nil {
		t.Fatalf("auto update: %v", err)
	}

	got, _ := eventRepo.GetByID(ctx, stale.ID)
	if got.Status != models.StatusCompleted {
		t.Errorf("stale event status = %q, want completed", got.Status)
	}
	got, _ = eventRepo.GetByID(ctx, fresh.ID)
	if got.Status != models.StatusRegistration {
		t.Errorf("fresh event status = %q, want registration", got.Status)
	}
	got, _ = eventRepo.GetByID(ctx, canceled.ID)
	if got.Status != models.StatusCanceled {
		t.Errorf("canceled event status = %q, want canceled", got.Status)
	}
}
