package api

import (
	"net/http"

	"github.com/hjiwane/apartment-society-backend/internal/core"
	"github.com/hjiwane/apartment-society-backend/internal/models"
)

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateRequestRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	mr, err := h.svc.Requests.Create(r.Context(), callerID(r), core.NewRequest{
		BuildingID:  req.BuildingID,
		UnitID:      req.UnitID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, mr)
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	bid, err := queryID(r, "building_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.svc.Requests.List(r.Context(), callerID(r), bid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.svc.Requests.Get(r.Context(), callerID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req UpdateStatusRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	mr, err := h.svc.Requests.SetStatus(r.Context(), callerID(r), id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, mr)
}

// Vote: dir=1 добавляет голос, dir=0 снимает. Оба успеха отвечают 201.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	added, err := h.svc.Votes.Cast(r.Context(), callerID(r), req.RequestID, *req.Dir)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msg := "Successfully removed vote"
	if added {
		msg = "Successfully added vote"
	}
	models.WriteJSON(w, http.StatusCreated, MessageResponse{Message: msg})
}
