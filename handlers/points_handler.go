package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kabaddi-league/scorekeeper/services"
)

// PointsHandler exposes the live scoring mutations: add and undo, for
// players and teams. Match, player and team ids travel in the body.
type PointsHandler struct {
	matchService services.MatchService
}

func NewPointsHandler(matchService services.MatchService) *PointsHandler {
	return &PointsHandler{matchService: matchService}
}

func (h *PointsHandler) AddPlayerPoints(w http.ResponseWriter, r *http.Request) {
	var input services.AddPlayerPointsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.MatchID < 1 || input.PlayerID < 1 {
		badRequestResponse(w, r, errors.New("matchId and playerId are required"))
		return
	}

	result, err := h.matchService.AddPlayerPoints(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PointsHandler) UndoPlayerPoints(w http.ResponseWriter, r *http.Request) {
	var input services.UndoPlayerPointsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.MatchID < 1 || input.PlayerID < 1 {
		badRequestResponse(w, r, errors.New("matchId and playerId are required"))
		return
	}

	removed, err := h.matchService.UndoPlayerPoints(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"removed": removed,
		"message": fmt.Sprintf("Removed %d point(s) from %s of player %d", removed, input.Type, input.PlayerID),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PointsHandler) AddTeamPoints(w http.ResponseWriter, r *http.Request) {
	h.teamPoints(w, r, false)
}

func (h *PointsHandler) UndoTeamPoints(w http.ResponseWriter, r *http.Request) {
	h.teamPoints(w, r, true)
}

func (h *PointsHandler) teamPoints(w http.ResponseWriter, r *http.Request, undo bool) {
	var input services.TeamPointsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.MatchID < 1 || input.TeamID < 1 {
		badRequestResponse(w, r, errors.New("matchId and teamId are required"))
		return
	}
	if input.Points < 1 {
		badRequestResponse(w, r, errors.New("points must be a positive number"))
		return
	}

	op := h.matchService.AddTeamPoints
	if undo {
		op = h.matchService.UndoTeamPoints
	}
	match, err := op(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"teamAScore": match.TeamAScore,
		"teamBScore": match.TeamBScore,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
