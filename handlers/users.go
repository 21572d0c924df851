// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-poll/accounts"
	"github.com/danielhkuo/quickly-poll/middleware"
	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/polls"
)

type UserHandler struct {
	accounts *accounts.Service
	polls    *polls.Service
}

func NewUserHandler(acc *accounts.Service, svc *polls.Service) *UserHandler {
	return &UserHandler{accounts: acc, polls: svc}
}

// CurrentUser handles GET /api/user/me
func (h *UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())
	middleware.JSONResponse(w, http.StatusOK, models.UserSummary{
		ID:       p.ID,
		Username: p.Username,
		Name:     p.Name,
	})
}

// CheckUsernameAvailability handles GET /api/user/checkUsernameAvailability?username=
func (h *UserHandler) CheckUsernameAvailability(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}

	available, err := h.accounts.UsernameAvailable(r.Context(), username)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.UserIdentityAvailability{Available: available})
}

// CheckEmailAvailability handles GET /api/user/checkEmailAvailability?email=
func (h *UserHandler) CheckEmailAvailability(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email is required")
		return
	}

	available, err := h.accounts.EmailAvailable(r.Context(), email)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.UserIdentityAvailability{Available: available})
}

// Profile handles GET /api/users/{username}
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.accounts.Profile(r.Context(), r.PathValue("username"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, profile)
}

// PollsCreatedBy handles GET /api/users/{username}/polls
func (h *UserHandler) PollsCreatedBy(w http.ResponseWriter, r *http.Request) {
	page, size, ok := pageParams(w, r, h.polls.Pager())
	if !ok {
		return
	}

	resp, err := h.polls.ListPollsCreatedBy(r.Context(), r.PathValue("username"), middleware.PrincipalFrom(r.Context()), page, size)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// PollsVotedBy handles GET /api/users/{username}/votes
func (h *UserHandler) PollsVotedBy(w http.ResponseWriter, r *http.Request) {
	page, size, ok := pageParams(w, r, h.polls.Pager())
	if !ok {
		return
	}

	resp, err := h.polls.ListPollsVotedBy(r.Context(), r.PathValue("username"), middleware.PrincipalFrom(r.Context()), page, size)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
