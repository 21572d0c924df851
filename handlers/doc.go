// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Poll API.

# Handler Types

Each handler is a thin struct over the services it calls:

  - PollHandler: list, create, fetch and vote
  - UserHandler: current user, availability checks, profiles and user poll lists
  - AuthHandler: sign-up and sign-in

	pollHandler := handlers.NewPollHandler(pollService)

Handlers decode the request, read the caller with middleware.PrincipalFrom,
call the service and map its error with middleware.WriteError:

	Not found         → 404
	Invalid request   → 400 (expired poll, bad paging, validation)
	Duplicate vote    → 400
	Unauthorized      → 401
	Anything else     → 500 with a generic message

# Paging

List endpoints accept ?page= (default 0) and ?size= (default
DEFAULT_PAGE_SIZE). Non-numeric values are rejected here; range checks
happen in the service.

# Voting

	POST /api/polls/{pollId}/votes {"choiceId": 12}

Answers with the poll, its fresh counts and the caller's choice selected. A
second vote by the same user is rejected even when both race.
*/
package handlers
