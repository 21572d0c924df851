// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (request_id, method, path, remote) and completion
(status, duration_ms). The request id comes from X-Request-ID when present,
otherwise a new UUID, and is echoed back in the response.

# Authentication

WithPrincipal resolves "Authorization: Bearer <jwt>" into a *models.Principal
on the request context. Requests without a valid token stay anonymous:

	handler := middleware.WithPrincipal(tokens, mux)

Routes that need a signed-in user wrap their handler with RequireUser, which
answers 401 for anonymous callers. Handlers read the caller with:

	principal := middleware.PrincipalFrom(r.Context())

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.WriteError(w, r, err) // status from apperr.HTTPStatus

Parse JSON request bodies:

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
*/
package middleware
