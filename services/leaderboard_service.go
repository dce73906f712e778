package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/evalx/evalx-backend/models"
	"github.com/evalx/evalx-backend/repositories"
)

type LeaderboardService interface {
	// Project строит таблицы лидеров события по уже завершённым оценкам.
	Project(ctx context.Context, eventID int) (*models.LeaderboardView, error)
}

type leaderboardService struct {
	submissionRepo repositories.SubmissionRepository
	teamRepo       repositories.TeamRepository
	eventRepo      repositories.EventRepository
}

func NewLeaderboardService(
	submissionRepo repositories.SubmissionRepository,
	teamRepo repositories.TeamRepository,
	eventRepo repositories.EventRepository,
) LeaderboardService {
	return &leaderboardService{
		submissionRepo: submissionRepo,
		teamRepo:       teamRepo,
		eventRepo:      eventRepo,
	}
}

func (s *leaderboardService) Project(ctx context.Context, eventID int) (*models.LeaderboardView, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}

	var (
		submissions []*models.Submission
		teams       []*models.Team
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		submissions, err = s.submissionRepo.ListByEvent(gctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to list submissions for event %d: %w", eventID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByEvent(gctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to list teams for event %d: %w", eventID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	teamNames := make(map[int]string, len(teams))
	for _, team := range teams {
		teamNames[team.ID] = team.Name
	}

	view := &models.LeaderboardView{
		PPT:     []models.LeaderboardEntry{},
		Repo:    []models.LeaderboardEntry{},
		Overall: []models.LeaderboardEntry{},
	}
	overall := make(map[int]float64)
	for _, submission := range submissions {
		score, ok := submission.Score()
		if !ok {
			continue
		}
		entry := models.LeaderboardEntry{
			TeamID:   submission.TeamID,
			TeamName: teamNames[submission.TeamID],
			Score:    score,
		}
		switch submission.RoundKind {
		case models.RoundDeck:
			view.PPT = append(view.PPT, entry)
		case models.RoundRepo:
			view.Repo = append(view.Repo, entry)
		}
		overall[submission.TeamID] += score
	}

	for teamID, score := range overall {
		view.Overall = append(view.Overall, models.LeaderboardEntry{
			TeamID:   teamID,
			TeamName: teamNames[teamID],
			Score:    score,
		})
	}
	// Итоговая таблица собирается из map, поэтому перед стабильной
	// сортировкой по очкам нужен детерминированный базовый порядок.
	sort.Slice(view.Overall, func(i, j int) bool {
		return view.Overall[i].TeamID < view.Overall[j].TeamID
	})

	sortDesc(view.PPT)
	sortDesc(view.Repo)
	sortDesc(view.Overall)
	return view, nil
}

// sortDesc сортирует по убыванию очков, сохраняя порядок при равенстве.
func sortDesc(entries []models.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}
