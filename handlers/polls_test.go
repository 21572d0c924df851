// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-poll/accounts"
	"github.com/danielhkuo/quickly-poll/auth"
	"github.com/danielhkuo/quickly-poll/middleware"
	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/polls"
	"github.com/danielhkuo/quickly-poll/store"
	"github.com/danielhkuo/quickly-poll/testutil"
)

type testEnv struct {
	store    store.Store
	polls    *polls.Service
	accounts *accounts.Service
	tokens   *auth.TokenProvider
}

func newTestEnv(t *testing.T, s store.Store) *testEnv {
	t.Helper()
	cfg := testutil.GetTestConfig()
	tokens := auth.NewTokenProvider(cfg.JWTSecret, cfg.JWTExpiry)
	return &testEnv{
		store:    s,
		polls:    polls.NewService(s, polls.Pager{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize}),
		accounts: accounts.NewService(s, tokens),
		tokens:   tokens,
	}
}

// asUser attaches u as the authenticated caller
func asUser(req *http.Request, u models.User) *http.Request {
	p := &models.Principal{ID: u.ID, Username: u.Username, Name: u.Name}
	return req.WithContext(middleware.WithPrincipalContext(req.Context(), p))
}

func pollPath(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestListPolls(t *testing.T) {
	env := newTestEnv(t, testutil.SetupTestStore(t))
	h := NewPollHandler(env.polls)

	alice := testutil.CreateTestUser(t, env.store, "alice")
	for i := 0; i < 3; i++ {
		testutil.CreateOpenPoll(t, env.store, alice.ID)
	}

	t.Run("defaults", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ListPolls(w, testutil.MakeRequest("GET", "/api/polls", nil, nil))

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.PagedResponse[models.PollResponse]
		testutil.AssertJSON(t, w, &resp)

		if resp.Size != 30 || resp.Page != 0 || resp.TotalElements != 3 || len(resp.Content) != 3 || !resp.Last {
			t.Errorf("unexpected envelope %+v", resp)
		}
	})

	t.Run("second page", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ListPolls(w, testutil.MakeRequest("GET", "/api/polls?page=1&size=2", nil, nil))

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.PagedResponse[models.PollResponse]
		testutil.AssertJSON(t, w, &resp)

		if len(resp.Content) != 1 || resp.TotalPages != 2 || !resp.Last {
			t.Errorf("unexpected second page %+v", resp)
		}
	})

	errorCases := []struct {
		name  string
		query string
	}{
		{"size above max", "?size=51"},
		{"negative page", "?page=-1"},
		{"non-numeric page", "?page=abc"},
		{"non-numeric size", "?size=ten"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ListPolls(w, testutil.MakeRequest("GET", "/api/polls"+tc.query, nil, nil))
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestCreatePoll(t *testing.T) {
	env := newTestEnv(t, testutil.SetupTestStore(t))
	h := NewPollHandler(env.polls)
	alice := testutil.CreateTestUser(t, env.store, "alice")

	t.Run("created", func(t *testing.T) {
		body := models.PollRequest{
			Question:   "Best editor?",
			Choices:    []models.ChoiceRequest{{Text: "vim"}, {Text: "emacs"}, {Text: "nano"}},
			PollLength: models.PollLength{Days: 1, Hours: 6},
		}
		w := httptest.NewRecorder()
		h.CreatePoll(w, asUser(testutil.MakeRequest("POST", "/api/polls", body, nil), alice))

		testutil.AssertStatus(t, w, http.StatusCreated)
		var resp models.ApiResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Success || resp.Message != "Poll Created Successfully" {
			t.Errorf("unexpected response %+v", resp)
		}

		location := w.Header().Get("Location")
		if !strings.HasPrefix(location, "/api/polls/") {
			t.Fatalf("expected Location header, got %q", location)
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(location, "/api/polls/"), 10, 64)
		if err != nil {
			t.Fatalf("bad Location %q: %v", location, err)
		}

		poll, err := env.store.PollByID(t.Context(), id)
		if err != nil {
			t.Fatalf("created poll not stored: %v", err)
		}
		if len(poll.Choices) != 3 {
			t.Errorf("expected 3 choices, got %d", len(poll.Choices))
		}
		if d := poll.ExpirationDateTime.Sub(poll.CreatedAt); d != 30*time.Hour {
			t.Errorf("expected 30h poll length, got %v", d)
		}
	})

	t.Run("too few choices", func(t *testing.T) {
		body := models.PollRequest{Question: "Q?", Choices: []models.ChoiceRequest{{Text: "only"}}}
		w := httptest.NewRecorder()
		h.CreatePoll(w, asUser(testutil.MakeRequest("POST", "/api/polls", body, nil), alice))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/polls", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		h.CreatePoll(w, asUser(req, alice))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestGetPoll(t *testing.T) {
	env := newTestEnv(t, testutil.SetupTestStore(t))
	h := NewPollHandler(env.polls)

	alice := testutil.CreateTestUser(t, env.store, "alice")
	bob := testutil.CreateTestUser(t, env.store, "bob")
	poll := testutil.CreateOpenPoll(t, env.store, alice.ID, "Cats", "Dogs")
	testutil.CastTestVote(t, env.store, poll.ID, bob.ID, poll.Choices[1].ID)

	t.Run("anonymous", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/api/polls/"+pollPath(poll.ID), nil, nil)
		req.SetPathValue("pollId", pollPath(poll.ID))
		w := httptest.NewRecorder()
		h.GetPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.PollResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.TotalVotes != 1 || resp.SelectedChoice != nil || resp.CreatedBy.Username != "alice" {
			t.Errorf("unexpected poll %+v", resp)
		}
		if resp.Choices[1].VotePercent != 100 {
			t.Errorf("expected 100%% for Dogs, got %v", resp.Choices[1].VotePercent)
		}
	})

	t.Run("voter sees selection", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/api/polls/"+pollPath(poll.ID), nil, nil)
		req.SetPathValue("pollId", pollPath(poll.ID))
		w := httptest.NewRecorder()
		h.GetPoll(w, asUser(req, bob))

		var resp models.PollResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.SelectedChoice == nil || *resp.SelectedChoice != poll.Choices[1].ID {
			t.Errorf("expected bob's selection, got %v", resp.SelectedChoice)
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/api/polls/99999", nil, nil)
		req.SetPathValue("pollId", "99999")
		w := httptest.NewRecorder()
		h.GetPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Message != "Poll not found with id : '99999'" {
			t.Errorf("unexpected message %q", resp.Message)
		}
	})

	t.Run("non-numeric id", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/api/polls/abc", nil, nil)
		req.SetPathValue("pollId", "abc")
		w := httptest.NewRecorder()
		h.GetPoll(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestCastVote(t *testing.T) {
	env := newTestEnv(t, testutil.SetupTestStore(t))
	h := NewPollHandler(env.polls)

	alice := testutil.CreateTestUser(t, env.store, "alice")
	bob := testutil.CreateTestUser(t, env.store, "bob")
	open := testutil.CreateOpenPoll(t, env.store, alice.ID, "Tea", "Coffee")
	past := time.Now().Add(-48 * time.Hour)
	expired := testutil.CreateTestPoll(t, env.store, alice.ID, past, past.Add(time.Hour))

	vote := func(u models.User, pollID, choiceID int64) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/api/polls/"+pollPath(pollID)+"/votes", models.VoteRequest{ChoiceID: choiceID}, nil)
		req.SetPathValue("pollId", pollPath(pollID))
		w := httptest.NewRecorder()
		h.CastVote(w, asUser(req, u))
		return w
	}

	w := vote(bob, open.ID, open.Choices[1].ID)
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.PollResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.TotalVotes != 1 || resp.SelectedChoice == nil || *resp.SelectedChoice != open.Choices[1].ID {
		t.Errorf("unexpected vote response %+v", resp)
	}

	t.Run("duplicate", func(t *testing.T) {
		w := vote(bob, open.ID, open.Choices[0].ID)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
		var errResp models.ErrorResponse
		testutil.AssertJSON(t, w, &errResp)
		if errResp.Code != "duplicate_vote" {
			t.Errorf("expected code duplicate_vote, got %q", errResp.Code)
		}
	})

	t.Run("expired", func(t *testing.T) {
		w := vote(bob, expired.ID, expired.Choices[0].ID)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
		var errResp models.ErrorResponse
		testutil.AssertJSON(t, w, &errResp)
		if errResp.Message != "Sorry! This poll has already expired." || errResp.Code != "invalid_request" {
			t.Errorf("unexpected error body %+v", errResp)
		}
	})

	t.Run("choice of another poll", func(t *testing.T) {
		w := vote(alice, open.ID, expired.Choices[0].ID)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("missing poll", func(t *testing.T) {
		w := vote(alice, 99999, open.Choices[0].ID)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("missing choiceId", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/polls/"+pollPath(open.ID)+"/votes", map[string]any{}, nil)
		req.SetPathValue("pollId", pollPath(open.ID))
		w := httptest.NewRecorder()
		h.CastVote(w, asUser(req, alice))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}
