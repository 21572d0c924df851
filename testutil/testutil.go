// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/quickly-poll/cliparse"
	"github.com/danielhkuo/quickly-poll/db"
	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/store"
)

// TestJWTSecret signs tokens in handler tests
const TestJWTSecret = "test-jwt-secret"

// TestPassword is the password of every user made by CreateTestUser
const TestPassword = "password123"

// testPasswordHash hashes TestPassword once at the minimum cost
var testPasswordHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
})

// SetupTestDB opens a fresh SQLite database in a temp dir with the full
// schema. Connections are capped at one so writers serialize the way they
// would behind Postgres row locks.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, db.DialectSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore wraps SetupTestDB in a SQLStore
func SetupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	return store.NewSQLStore(SetupTestDB(t))
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseType:    db.DialectSQLite,
		JWTSecret:       TestJWTSecret,
		JWTExpiry:       time.Hour,
		DefaultPageSize: 30,
		MaxPageSize:     50,
		KafkaTopic:      "votes",
	}
}

// CreateTestUser registers a user with ROLE_USER and TestPassword
func CreateTestUser(t *testing.T, s store.Store, username string) models.User {
	t.Helper()

	ctx := context.Background()
	role, err := s.RoleByName(ctx, models.RoleUser)
	if err != nil {
		t.Fatalf("Failed to load user role: %v", err)
	}

	user, err := s.CreateUser(ctx, models.User{
		Name:         "Test " + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: testPasswordHash(),
		CreatedAt:    time.Now().UTC(),
	}, role.ID)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateTestPoll stores a poll by creator with the given choices. createdAt
// orders polls in listings; expiresAt decides whether it accepts votes.
func CreateTestPoll(t *testing.T, s store.Store, creatorID int64, createdAt, expiresAt time.Time, choices ...string) models.Poll {
	t.Helper()

	if len(choices) == 0 {
		choices = []string{"Yes", "No"}
	}

	poll := models.Poll{
		Question:           "Test poll?",
		CreatedBy:          creatorID,
		CreatedAt:          createdAt.UTC(),
		ExpirationDateTime: expiresAt.UTC(),
	}
	for _, text := range choices {
		poll.Choices = append(poll.Choices, models.Choice{Text: text})
	}

	poll, err := s.CreatePoll(context.Background(), poll)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	return poll
}

// CreateOpenPoll is CreateTestPoll created now and open for a day
func CreateOpenPoll(t *testing.T, s store.Store, creatorID int64, choices ...string) models.Poll {
	t.Helper()
	now := time.Now()
	return CreateTestPoll(t, s, creatorID, now, now.Add(24*time.Hour), choices...)
}

// CastTestVote inserts a vote directly and fails the test on conflict
func CastTestVote(t *testing.T, s store.Store, pollID, userID, choiceID int64) models.Vote {
	t.Helper()

	vote, inserted, err := s.InsertVote(context.Background(), models.Vote{
		PollID:    pollID,
		UserID:    userID,
		ChoiceID:  choiceID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
	if !inserted {
		t.Fatalf("User %d already voted in poll %d", userID, pollID)
	}
	return vote
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// BearerHeader builds an Authorization header for MakeRequest
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
