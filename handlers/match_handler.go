package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/kabaddi-league/scorekeeper/models"
	"github.com/kabaddi-league/scorekeeper/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TeamA < 1 || input.TeamB < 1 {
		badRequestResponse(w, r, errors.New("team_a and team_b are required"))
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchId")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List returns matches, optionally narrowed by ?status=Upcoming|Ongoing|Completed.
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.MatchStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := models.MatchStatus(raw)
		switch st {
		case models.MatchStatusUpcoming, models.MatchStatusOngoing, models.MatchStatusCompleted:
			status = &st
		default:
			badRequestResponse(w, r, errors.New("invalid status parameter"))
			return
		}
	}

	matches, err := h.matchService.ListMatches(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, models.MatchStatusUpcoming)
}

func (h *MatchHandler) ListLive(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, models.MatchStatusOngoing)
}

func (h *MatchHandler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, models.MatchStatusCompleted)
}

func (h *MatchHandler) listByStatus(w http.ResponseWriter, r *http.Request, status models.MatchStatus) {
	matches, err := h.matchService.ListMatches(r.Context(), &status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchId")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpdateMatch(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.matchService.StartMatch)
}

func (h *MatchHandler) End(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.matchService.EndMatch)
}

func (h *MatchHandler) ForceComplete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.matchService.ForceCompleteMatch)
}

func (h *MatchHandler) HalfTime(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.matchService.SetHalfTime)
}

func (h *MatchHandler) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, matchID int) (*models.Match, error)) {
	matchID, err := idParam(r, "matchId")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := op(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UpdateMats(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchId")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateTeamMatInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpdateTeamMat(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchId")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.DeleteMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
