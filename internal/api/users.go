package api

import (
	"net/http"
	"strings"

	"github.com/hjiwane/apartment-society-backend/internal/apperr"
	"github.com/hjiwane/apartment-society-backend/internal/models"
)

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.svc.Accounts.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, u)
}

// Login принимает OAuth2-подобную форму (username/password) или JSON (email/password).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := h.decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.fail(w, r, &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid form", Err: err})
			return
		}
		req.Email, req.Password = r.PostForm.Get("username"), r.PostForm.Get("password")
		if err := h.validate.Struct(req); err != nil {
			h.fail(w, r, apperr.Validation("username and password are required"))
			return
		}
	}
	tok, err := h.svc.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, TokenResponse{AccessToken: tok, TokenType: "bearer"})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.svc.Accounts.GetUser(r.Context(), callerID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, v)
}
