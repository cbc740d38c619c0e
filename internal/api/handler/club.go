package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/clubhouse/internal/api/middleware"
	"github.com/mcoot/clubhouse/internal/api/request"
	"github.com/mcoot/clubhouse/internal/api/response"
	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/services/club"
	"github.com/mcoot/clubhouse/internal/services/squad"
)

// ClubHandler handles club endpoints
type ClubHandler struct {
	clubService  *club.Service
	squadService *squad.Service
	formLength   int
}

// NewClubHandler creates a new club handler
func NewClubHandler(clubService *club.Service, squadService *squad.Service, formLength int) *ClubHandler {
	return &ClubHandler{
		clubService:  clubService,
		squadService: squadService,
		formLength:   formLength,
	}
}

// List handles GET /api/v1/clubs
func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	clubs, err := h.clubService.List(r.Context(), user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ClubsFromModel(clubs))
}

// Create handles POST /api/v1/clubs
func (h *ClubHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.CreateClubRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	created, err := h.clubService.Create(r.Context(), user.ID, club.CreateParams{
		Name:           req.Name,
		CountryCode:    req.CountryCode,
		LogoURL:        req.LogoURL,
		ManagerFunds:   req.ManagerFunds,
		TransferBudget: req.TransferBudget,
		WageBudget:     req.WageBudget,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ClubFromModel(created))
}

// Get handles GET /api/v1/clubs/{id}
func (h *ClubHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	clubID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	c, token, err := h.clubService.Get(r.Context(), user.ID, clubID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WithETag(w, http.StatusOK, token, response.ClubFromModel(c))
}

// Update handles PUT /api/v1/clubs/{id}.
// The write is conditioned on the If-Match header.
func (h *ClubHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	clubID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	token, err := ifMatch(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.UpdateClubRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if _, err := h.clubService.Update(r.Context(), user.ID, clubID, token, club.Changes{
		Name:           req.Name,
		CountryCode:    req.CountryCode,
		LogoURL:        req.LogoURL,
		TransferBudget: req.TransferBudget,
		WageBudget:     req.WageBudget,
	}); err != nil {
		WriteError(w, err)
		return
	}

	h.Get(w, r)
}

// Delete handles DELETE /api/v1/clubs/{id}
func (h *ClubHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	clubID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.clubService.Delete(r.Context(), user.ID, clubID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// AdjustFunds handles POST /api/v1/clubs/{id}/funds
func (h *ClubHandler) AdjustFunds(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	clubID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.AdjustFundsRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	c, err := h.clubService.AdjustFunds(r.Context(), user.ID, clubID, req.Delta)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ClubFromModel(c))
}

// Squad handles GET /api/v1/clubs/{id}/squad?n=
func (h *ClubHandler) Squad(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	clubID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	n, err := formLength(r, h.formLength)
	if err != nil {
		WriteError(w, err)
		return
	}

	members, err := h.squadService.Summary(r.Context(), user.ID, clubID, n)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SquadFromModel(members))
}

// SignPlayer handles POST /api/v1/clubs/{id}/players
func (h *ClubHandler) SignPlayer(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	clubID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.SignPlayerRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.squadService.Sign(r.Context(), user.ID, clubID, squad.SignParams{
		Name:        req.Name,
		CountryCode: req.CountryCode,
		Position:    model.Position(req.Position),
		Ability:     req.Ability,
		Wages:       req.Wages,
		MarketValue: req.MarketValue,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PlayerFromModel(p))
}

// formLength reads the optional n query parameter
func formLength(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, NewInvalidRequestError("n must be a positive integer")
	}
	return n, nil
}
