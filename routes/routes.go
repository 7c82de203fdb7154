package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kabaddi-league/scorekeeper/handlers"
	"github.com/kabaddi-league/scorekeeper/middleware"
)

// SetupRoutes wires the full HTTP surface. Reads are public; every
// mutation sits behind authentication plus the admin gate.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	teamHandler *handlers.TeamHandler,
	playerHandler *handlers.PlayerHandler,
	matchHandler *handlers.MatchHandler,
	pointsHandler *handlers.PointsHandler,
	statsHandler *handlers.StatsHandler,
	galleryHandler *handlers.GalleryHandler,
	wsHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	admin := func(r chi.Router) chi.Router {
		return r.With(auth.Authenticate, auth.AdminOnly)
	}

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/matches", func(r chi.Router) {
		r.Get("/", matchHandler.List)
		r.Get("/upcoming", matchHandler.ListUpcoming)
		r.Get("/live", matchHandler.ListLive)
		r.Get("/completed", matchHandler.ListCompleted)
		r.Get("/pointstable", statsHandler.PointsTable)
		r.Get("/final", statsHandler.FinalResult)
		r.Get("/players/{matchId}", playerHandler.MatchRoster)
		r.Get("/{matchId}", matchHandler.Get)
		r.Get("/{matchId}/scores", statsHandler.MatchScores)
		r.Get("/{matchId}/stats", statsHandler.MatchStats)
		r.Get("/{matchId}/stats/live", statsHandler.MatchStatsByTeam)
		r.Get("/{matchId}/stats/total", statsHandler.MatchTotalPoints)
		r.Get("/{matchId}/fullstats", statsHandler.FullMatchStats)

		admin(r).Post("/", matchHandler.Create)
		admin(r).Patch("/{matchId}", matchHandler.Update)
		admin(r).Delete("/{matchId}", matchHandler.Delete)
		admin(r).Patch("/{matchId}/start", matchHandler.Start)
		admin(r).Patch("/{matchId}/complete", matchHandler.End)
		admin(r).Patch("/{matchId}/forcecomplete", matchHandler.ForceComplete)
		admin(r).Patch("/{matchId}/halftime", matchHandler.HalfTime)
		admin(r).Patch("/{matchId}/teammat", matchHandler.UpdateMats)
	})

	router.Route("/points", func(r chi.Router) {
		r.Use(auth.Authenticate, auth.AdminOnly)
		r.Patch("/player", pointsHandler.AddPlayerPoints)
		r.Patch("/team", pointsHandler.AddTeamPoints)
		r.Patch("/player/undo", pointsHandler.UndoPlayerPoints)
		r.Patch("/team/undo", pointsHandler.UndoTeamPoints)
	})

	router.Route("/stats", func(r chi.Router) {
		r.Get("/top-players", statsHandler.TopPlayers)
		r.Get("/top-teams", statsHandler.TopTeams)
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.List)
		r.Get("/{id}", teamHandler.Get)
		r.Get("/{id}/stats", teamHandler.Summary)

		admin(r).Post("/", teamHandler.Create)
		admin(r).Patch("/{id}", teamHandler.Update)
		admin(r).Delete("/{id}", teamHandler.Delete)
		admin(r).Post("/{id}/logo", teamHandler.UploadLogo)
	})

	router.Route("/players", func(r chi.Router) {
		r.Get("/", playerHandler.List)
		r.Get("/{id}", playerHandler.Get)
		r.Get("/team/{teamId}", playerHandler.ListByTeam)

		admin(r).Post("/", playerHandler.Create)
		admin(r).Post("/bulk", playerHandler.CreateBatch)
		admin(r).Patch("/{id}", playerHandler.Update)
		admin(r).Delete("/{id}", playerHandler.Delete)
		admin(r).Post("/{id}/photo", playerHandler.UploadPhoto)
	})

	router.Route("/gallery", func(r chi.Router) {
		r.Get("/", galleryHandler.List)

		admin(r).Post("/", galleryHandler.Upload)
		admin(r).Delete("/{id}", galleryHandler.Delete)
	})

	router.Get("/ws/matches/{matchId}", wsHandler.ServeMatch)
}
