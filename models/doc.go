// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - PollRequest: question, choices[].text, pollLength{days, hours}
  - VoteRequest: choiceId
  - SignUpRequest: name, username, email, password
  - LoginRequest: usernameOrEmail, password

# Response Types

Types for JSON responses:

  - PollResponse: poll with per-choice voteCount/votePercent, createdBy,
    isExpired, totalVotes and the caller's selectedChoice
  - PagedResponse[T]: content, page, size, totalElements, totalPages, last
  - ApiResponse: success, message
  - UserProfile, UserSummary, UserIdentityAvailability
  - ErrorResponse: error, message

# Domain Types

Rows reference each other by id only:

  - Poll: question, ordered choices, creator id, created/expiration times
  - Choice: text, owning poll id
  - Vote: one per (user, poll)
  - User, Role
  - Principal: the authenticated caller, nil when anonymous
*/
package models
