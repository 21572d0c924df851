// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielhkuo/quickly-poll/middleware"
	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/polls"
)

type PollHandler struct {
	svc *polls.Service
}

func NewPollHandler(svc *polls.Service) *PollHandler {
	return &PollHandler{svc: svc}
}

// ListPolls handles GET /api/polls?page=&size=
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	page, size, ok := pageParams(w, r, h.svc.Pager())
	if !ok {
		return
	}

	resp, err := h.svc.ListPolls(r.Context(), middleware.PrincipalFrom(r.Context()), page, size)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// CreatePoll handles POST /api/polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.PollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.svc.CreatePoll(r.Context(), middleware.PrincipalFrom(r.Context()), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/polls/%d", poll.ID))
	middleware.JSONResponse(w, http.StatusCreated, models.ApiResponse{
		Success: true,
		Message: "Poll Created Successfully",
	})
}

// GetPoll handles GET /api/polls/{pollId}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r, "pollId")
	if !ok {
		return
	}

	resp, err := h.svc.GetPoll(r.Context(), pollID, middleware.PrincipalFrom(r.Context()))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// CastVote handles POST /api/polls/{pollId}/votes
func (h *PollHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r, "pollId")
	if !ok {
		return
	}

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ChoiceID == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "choiceId is required")
		return
	}

	resp, err := h.svc.CastVote(r.Context(), pollID, middleware.PrincipalFrom(r.Context()), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// pathID parses a numeric path value, answering 400 when it is not one
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, name+" must be a number")
		return 0, false
	}
	return id, true
}

// pageParams reads page and size, defaulting to page 0 and the pager's
// default size. Range checks are left to the service.
func pageParams(w http.ResponseWriter, r *http.Request, pager polls.Pager) (page, size int, ok bool) {
	q := r.URL.Query()
	page, size = 0, pager.DefaultSize

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "page must be a number")
			return 0, 0, false
		}
		page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "size must be a number")
			return 0, 0, false
		}
		size = n
	}
	return page, size, true
}
