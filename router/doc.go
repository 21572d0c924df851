// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Poll API.

# Route Registration

NewRouter builds an http.ServeMux with all endpoints and wraps it so every
request carries the caller's principal when a valid bearer token is sent:

	handler := router.NewRouter(router.Deps{
		Polls:    pollService,
		Accounts: accountService,
		Tokens:   tokenProvider,
		Metrics:  prometheus.DefaultGatherer,
	})

# Endpoints

Operational:

	GET /health  - Liveness check
	GET /metrics - Prometheus exposition

Authentication:

	POST /api/auth/signin - Exchange credentials for a JWT
	POST /api/auth/signup - Register a user

Users:

	GET /api/user/me                        - Current user (auth)
	GET /api/user/checkUsernameAvailability - ?username=
	GET /api/user/checkEmailAvailability    - ?email=
	GET /api/users/{username}               - Public profile
	GET /api/users/{username}/polls         - Polls created, paged
	GET /api/users/{username}/votes         - Polls voted in, paged

Polls:

	GET  /api/polls                  - All polls, newest first, paged
	POST /api/polls                  - Create poll (auth)
	GET  /api/polls/{pollId}         - Single poll
	POST /api/polls/{pollId}/votes   - Cast vote (auth)

Paged routes take ?page= (from 0) and ?size= (up to MAX_PAGE_SIZE).
*/
package router
