package handler

import (
	"net/http"

	"github.com/mcoot/clubhouse/internal/api/middleware"
	"github.com/mcoot/clubhouse/internal/api/request"
	"github.com/mcoot/clubhouse/internal/api/response"
	"github.com/mcoot/clubhouse/internal/services/club"
)

// ObjectiveHandler handles board objective endpoints
type ObjectiveHandler struct {
	clubService *club.Service
}

// NewObjectiveHandler creates a new objective handler
func NewObjectiveHandler(clubService *club.Service) *ObjectiveHandler {
	return &ObjectiveHandler{clubService: clubService}
}

// List handles GET /api/v1/clubs/{id}/objectives
func (h *ObjectiveHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	clubID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	objectives, err := h.clubService.Objectives(r.Context(), user.ID, clubID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ObjectivesFromModel(objectives))
}

// Create handles POST /api/v1/clubs/{id}/objectives
func (h *ObjectiveHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	clubID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.CreateObjectiveRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Title == "" {
		WriteError(w, NewInvalidRequestError("title is required"))
		return
	}

	objective, err := h.clubService.AddObjective(r.Context(), user.ID, clubID, req.Title, req.Description)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ObjectiveFromModel(objective))
}

// Complete handles POST /api/v1/objectives/{id}/complete
func (h *ObjectiveHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	objectiveID, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	objective, err := h.clubService.CompleteObjective(r.Context(), user.ID, objectiveID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ObjectiveFromModel(objective))
}
