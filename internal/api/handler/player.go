package handler

import (
	"net/http"

	"github.com/mcoot/clubhouse/internal/api/middleware"
	"github.com/mcoot/clubhouse/internal/api/request"
	"github.com/mcoot/clubhouse/internal/api/response"
	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/services/squad"
)

// PlayerHandler handles player endpoints
type PlayerHandler struct {
	squadService *squad.Service
	formLength   int
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(squadService *squad.Service, formLength int) *PlayerHandler {
	return &PlayerHandler{
		squadService: squadService,
		formLength:   formLength,
	}
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	playerID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	p, token, err := h.squadService.Player(r.Context(), user.ID, playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WithETag(w, http.StatusOK, token, response.PlayerFromModel(p))
}

// Update handles PUT /api/v1/players/{id}
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	playerID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	token, err := ifMatch(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.UpdatePlayerRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if _, err := h.squadService.Update(r.Context(), user.ID, playerID, token, squad.Attributes{
		Ability:     req.Ability,
		Wages:       req.Wages,
		MarketValue: req.MarketValue,
	}); err != nil {
		WriteError(w, err)
		return
	}

	h.Get(w, r)
}

// Release handles DELETE /api/v1/players/{id}
func (h *PlayerHandler) Release(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	playerID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.squadService.Release(r.Context(), user.ID, playerID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// RecordMatch handles POST /api/v1/players/{id}/matches
func (h *PlayerHandler) RecordMatch(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	playerID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.RecordMatchRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	perf, err := h.squadService.RecordMatch(r.Context(), user.ID, playerID, req.CompetitionID, model.MatchResult{
		Goals:         req.Goals,
		Assists:       req.Assists,
		CleanSheet:    req.CleanSheet,
		ManOfTheMatch: req.ManOfTheMatch,
		Rating:        req.Rating,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchPerformanceFromModel(perf))
}

// Form handles GET /api/v1/players/{id}/form?competition=&n=
func (h *PlayerHandler) Form(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	playerID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	n, err := formLength(r, h.formLength)
	if err != nil {
		WriteError(w, err)
		return
	}
	competition := r.URL.Query().Get("competition")

	ratings, err := h.squadService.Form(r.Context(), user.ID, playerID, competition, n)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Form{
		PlayerID:      playerID.String(),
		CompetitionID: competition,
		Ratings:       ratings,
	})
}
