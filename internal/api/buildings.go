package api

import (
	"net/http"

	"github.com/hjiwane/apartment-society-backend/internal/models"
)

func (h *Handler) CreateBuilding(w http.ResponseWriter, r *http.Request) {
	var req CreateBuildingRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	b, err := h.svc.Registry.CreateBuilding(r.Context(), callerID(r), req.Name, req.Address)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) ListBuildings(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Registry.ListMyBuildings(r.Context(), callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetBuilding(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	b, err := h.svc.Registry.GetBuilding(r.Context(), callerID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) ListBuildingUsers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	users, err := h.svc.Registry.ListBuildingUsers(r.Context(), callerID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.svc.Registry.CreateUnit(r.Context(), callerID(r), req.BuildingID, req.UnitNumber, req.Floor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	bid, err := queryID(r, "building_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	units, err := h.svc.Registry.ListUnits(r.Context(), callerID(r), bid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, units)
}

func (h *Handler) GetUnit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.svc.Registry.GetUnit(r.Context(), callerID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, u)
}
