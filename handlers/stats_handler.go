package handlers

import (
	"net/http"

	"github.com/kabaddi-league/scorekeeper/services"
)

// StatsHandler serves derived reads: match stat views, the points table,
// the final result and the leaderboards.
type StatsHandler struct {
	statsService       services.StatsService
	standingsService   services.StandingsService
	leaderboardService services.LeaderboardService
}

func NewStatsHandler(
	statsService services.StatsService,
	standingsService services.StandingsService,
	leaderboardService services.LeaderboardService,
) *StatsHandler {
	return &StatsHandler{
		statsService:       statsService,
		standingsService:   standingsService,
		leaderboardService: leaderboardService,
	}
}

func (h *StatsHandler) MatchScores(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchId")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	scores, err := h.statsService.GetMatchScores(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, scores, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StatsHandler) MatchStats(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchId")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.statsService.GetMatchStats(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StatsHandler) FullMatchStats(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchId")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.statsService.GetFullMatchStats(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MatchStatsByTeam serves one side's stat lists, selected by ?team=A|B.
func (h *StatsHandler) MatchStatsByTeam(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchId")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.statsService.GetMatchStatsByTeam(r.Context(), matchID, r.URL.Query().Get("team"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StatsHandler) MatchTotalPoints(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchId")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	totals, err := h.statsService.GetMatchTotalPoints(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, totals, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StatsHandler) PointsTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.standingsService.GetPointsTable(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"points_table": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StatsHandler) FinalResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.standingsService.GetFinalResult(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StatsHandler) TopPlayers(w http.ResponseWriter, r *http.Request) {
	boards, err := h.leaderboardService.GetTopPlayers(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, boards, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StatsHandler) TopTeams(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboardService.GetTopTeams(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
