// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Poll API server.

Quickly Poll is a polling service: signed-in users create polls with two to
six choices and a lifetime of up to a week, every user gets one vote per
poll, and anyone can browse polls with live counts and percentages.

# Starting the Server

The server reads environment variables (optionally from a .env file) or CLI
flags:

	DATABASE_URL=postgres://... JWT_SECRET=... go run .

Or with flags:

	go run . -p 8080 -t sqlite -d "file:polls.db?_pragma=foreign_keys(1)" -jwt-secret dev

# Configuration

Required settings:

  - DATABASE_URL (-d): connection string, not needed for the memory store
  - JWT_SECRET (-jwt-secret): HMAC secret for access tokens

Optional settings:

  - PORT (-p): Server port (default: 8080)
  - DATABASE_TYPE (-t): postgres, sqlite or memory (default: postgres)
  - JWT_EXPIRY: token lifetime (default: 168h)
  - DEFAULT_PAGE_SIZE / MAX_PAGE_SIZE: paging (default: 30 / 50)
  - REDIS_URL (-redis): enables the Redis user cache
  - USER_CACHE_TTL: cache entry lifetime (default: 10m)
  - KAFKA_BROKERS (-kafka): comma separated, enables vote events
  - KAFKA_TOPIC: vote event topic (default: votes)

The server refuses to start when the ROLE_USER role is missing.

# Architecture

  - handlers: HTTP request handlers (polls, users, auth)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, request ids, bearer tokens, JSON helpers
  - polls: Vote casting, aggregation, paging and the poll service
  - accounts: Sign-up, sign-in and profiles
  - store: SQL, in-memory and Redis-cached persistence
  - events: Kafka vote events
  - metrics: Prometheus vote counters
  - models: Request/response and domain types
  - apperr: Error kinds and their HTTP status
  - auth: JWT issuing and bcrypt passwords
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
