package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/evalx/evalx-backend/handlers"
	"github.com/evalx/evalx-backend/middleware"
	"github.com/evalx/evalx-backend/models"
)

func SetupRoutes(
	router *chi.Mux,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	eventHandler *handlers.EventHandler,
	teamHandler *handlers.TeamHandler,
	submissionHandler *handlers.SubmissionHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	interviewHandler *handlers.InterviewHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.SignUp)
			r.Post("/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/team", func(r chi.Router) {
				r.Get("/get-user", userHandler.Profile)

				r.Route("/events/{eventID}", func(r chi.Router) {
					r.Get("/", eventHandler.GetByID)

					r.Post("/teams/create", teamHandler.Create)
					r.Get("/my-team", teamHandler.MyTeam)
					r.Get("/teams/open", teamHandler.ListOpen)
					r.Post("/teams/{teamID}/requests/send", teamHandler.SendJoinRequest)
					r.Post("/teams/{teamID}/requests/{requestID}/accept", teamHandler.AcceptRequest)
					r.Post("/teams/{teamID}/requests/{requestID}/reject", teamHandler.RejectRequest)
					r.Post("/teams/{teamID}/members/add", teamHandler.AddMember)
					r.Post("/teams/{teamID}/members/remove", teamHandler.RemoveMember)
					r.Post("/teams/{teamID}/invite", teamHandler.Invite)
					r.Delete("/teams/{teamID}", teamHandler.Delete)

					r.Post("/submit/ppt", submissionHandler.SubmitDeck)
					r.Post("/submit/repo", submissionHandler.SubmitRepo)
					r.Post("/submit/viva", submissionHandler.SubmitViva)
					r.Get("/my-submissions", submissionHandler.MySubmissions)
					r.Get("/submissions", submissionHandler.ListByEvent)

					r.Get("/leaderboard", leaderboardHandler.Get)
				})
			})

			r.Route("/org", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleOrganiser))

				r.Get("/profile", userHandler.Profile)
				r.Post("/create", eventHandler.Create)
				r.Get("/my-events", eventHandler.MyEvents)
				r.Get("/get-teams/{eventID}", teamHandler.ListByEvent)
				r.Delete("/delete-team/{teamID}", teamHandler.DeleteByOrganizer)
			})

			r.Route("/dev", func(r chi.Router) {
				r.Get("/my-events", eventHandler.ListPublished)
			})

			r.Route("/connect", func(r chi.Router) {
				r.Get("/is-registered/{eventID}", teamHandler.IsRegistered)
			})

			r.Route("/interview", func(r chi.Router) {
				r.Post("/interview-data", interviewHandler.StartSession)
				r.Post("/answer-audio", interviewHandler.SubmitAnswer)
				r.Post("/tts", interviewHandler.Speak)
			})

			r.Route("/ai-models", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleOrganiser))
				r.Post("/create-event-ai", eventHandler.GenerateDraft)
			})
		})
	})

	router.Get("/ws/events/{eventID}", webSocketHandler.ServeWs)
	router.Get("/swagger/*", httpSwagger.WrapHandler)
}
