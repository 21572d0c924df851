// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/danielhkuo/quickly-poll/accounts"
	"github.com/danielhkuo/quickly-poll/apperr"
	"github.com/danielhkuo/quickly-poll/middleware"
	"github.com/danielhkuo/quickly-poll/models"
)

type AuthHandler struct {
	accounts *accounts.Service
}

func NewAuthHandler(acc *accounts.Service) *AuthHandler {
	return &AuthHandler{accounts: acc}
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	token, err := h.accounts.SignIn(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.JwtAuthenticationResponse{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.accounts.SignUp(r.Context(), req)
	if err != nil {
		// Rejected sign-ups answer in the ApiResponse shape
		var ir *apperr.InvalidRequestError
		if errors.As(err, &ir) {
			middleware.JSONResponse(w, http.StatusBadRequest, models.ApiResponse{Success: false, Message: ir.Reason})
			return
		}
		middleware.WriteError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/users/"+user.Username)
	middleware.JSONResponse(w, http.StatusCreated, models.ApiResponse{
		Success: true,
		Message: "User registered successfully",
	})
}
