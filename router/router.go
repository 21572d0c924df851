// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/quickly-poll/accounts"
	"github.com/danielhkuo/quickly-poll/handlers"
	"github.com/danielhkuo/quickly-poll/middleware"
	"github.com/danielhkuo/quickly-poll/polls"
)

// Deps are the services the routes dispatch to.
type Deps struct {
	Polls    *polls.Service
	Accounts *accounts.Service
	Tokens   middleware.TokenParser
	// Metrics backs GET /metrics; nil leaves the route out
	Metrics prometheus.Gatherer
}

// NewRouter registers every route and resolves bearer tokens for all of them.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(d.Polls)
	userHandler := handlers.NewUserHandler(d.Accounts, d.Polls)
	authHandler := handlers.NewAuthHandler(d.Accounts)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if d.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	// Authentication (public)
	mux.HandleFunc("POST /api/auth/signin", middleware.WithLogging(authHandler.SignIn))
	mux.HandleFunc("POST /api/auth/signup", middleware.WithLogging(authHandler.SignUp))

	// Users
	mux.HandleFunc("GET /api/user/me", middleware.WithLogging(middleware.RequireUser(userHandler.CurrentUser)))
	mux.HandleFunc("GET /api/user/checkUsernameAvailability", middleware.WithLogging(userHandler.CheckUsernameAvailability))
	mux.HandleFunc("GET /api/user/checkEmailAvailability", middleware.WithLogging(userHandler.CheckEmailAvailability))
	mux.HandleFunc("GET /api/users/{username}", middleware.WithLogging(userHandler.Profile))
	mux.HandleFunc("GET /api/users/{username}/polls", middleware.WithLogging(userHandler.PollsCreatedBy))
	mux.HandleFunc("GET /api/users/{username}/votes", middleware.WithLogging(userHandler.PollsVotedBy))

	// Polls (reads are public, writes need a signed-in user)
	mux.HandleFunc("GET /api/polls", middleware.WithLogging(pollHandler.ListPolls))
	mux.HandleFunc("POST /api/polls", middleware.WithLogging(middleware.RequireUser(pollHandler.CreatePoll)))
	mux.HandleFunc("GET /api/polls/{pollId}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("POST /api/polls/{pollId}/votes", middleware.WithLogging(middleware.RequireUser(pollHandler.CastVote)))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-poll API v1"))
	})

	return middleware.WithPrincipal(d.Tokens, mux)
}
