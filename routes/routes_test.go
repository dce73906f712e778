package routes

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/evalx/evalx-backend/handlers"
	"github.com/evalx/evalx-backend/live"
)

func TestSetupRoutesRegistersEndpoints(t *testing.T) {
	router := chi.NewRouter()
	SetupRoutes(
		router,
		handlers.NewAuthHandler(nil, "secret"),
		handlers.NewUserHandler(nil),
		handlers.NewEventHandler(nil),
		handlers.NewTeamHandler(nil),
		handlers.NewSubmissionHandler(nil),
		handlers.NewLeaderboardHandler(nil),
		handlers.NewInterviewHandler(nil),
		handlers.NewWebSocketHandler(live.NewHub()),
		"secret",
	)

	registered := make(map[string]bool)
	walkFn := func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		registered[method+" "+route] = true
		return nil
	}
	if err := chi.Walk(router, walkFn); err != nil {
		t.Fatalf("walk routes: %v", err)
	}

	want := []string{
		"POST /api/auth/signup",
		"POST /api/auth/login",
		"GET /api/team/get-user",
		"GET /api/connect/is-registered/{eventID}",
		"POST /api/team/events/{eventID}/teams/create",
		"GET /api/team/events/{eventID}/my-team",
		"POST /api/team/events/{eventID}/submit/ppt",
		"GET /api/team/events/{eventID}/leaderboard",
		"POST /api/org/create",
		"POST /api/interview/answer-audio",
		"GET /ws/events/{eventID}",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %q is not registered", route)
		}
	}
}
