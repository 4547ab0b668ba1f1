package api

import (
	"net/http"

	"github.com/hjiwane/apartment-society-backend/internal/models"
)

func (h *Handler) CreateMembership(w http.ResponseWriter, r *http.Request) {
	var req CreateMembershipRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.svc.Memberships.Create(r.Context(), callerID(r), req.UserID, req.UnitID, req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) ListMemberships(w http.ResponseWriter, r *http.Request) {
	bid, err := queryID(r, "building_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.svc.Memberships.ListMine(r.Context(), callerID(r), bid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) UpdateMembership(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req UpdateMembershipRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := h.svc.Memberships.UpdateRole(r.Context(), callerID(r), id, req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) DeleteMembership(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Memberships.Delete(r.Context(), callerID(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
