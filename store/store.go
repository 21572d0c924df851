// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"

	"github.com/danielhkuo/quickly-poll/models"
)

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a user insert hits a unique username or email.
	ErrDuplicate = errors.New("record already exists")
)

// Store is the only component touching durable state. Page queries return
// the rows of the requested page plus the total number of matching rows.
type Store interface {
	// CreatePoll persists the poll and its choices atomically and returns
	// them with ids assigned.
	CreatePoll(ctx context.Context, poll models.Poll) (models.Poll, error)
	PollByID(ctx context.Context, id int64) (models.Poll, error)
	// PollsPage lists polls newest first.
	PollsPage(ctx context.Context, page, size int) ([]models.Poll, int64, error)
	PollsByCreatorPage(ctx context.Context, creatorID int64, page, size int) ([]models.Poll, int64, error)
	// VotedPollIDsPage lists ids of polls the user voted in, most recent vote first.
	VotedPollIDsPage(ctx context.Context, userID int64, page, size int) ([]int64, int64, error)
	// PollsByIDs returns the matching polls newest first.
	PollsByIDs(ctx context.Context, ids []int64) ([]models.Poll, error)

	// InsertVote records a vote in one atomic insert. It returns false with a
	// nil error when the (user, poll) pair already has a vote; no row is
	// written in that case.
	InsertVote(ctx context.Context, vote models.Vote) (models.Vote, bool, error)
	// CountVotesByChoice maps choice id to vote count for all votes in pollIDs.
	CountVotesByChoice(ctx context.Context, pollIDs []int64) (map[int64]int64, error)
	// UserVotes maps poll id to the choice id the user picked, restricted to pollIDs.
	UserVotes(ctx context.Context, userID int64, pollIDs []int64) (map[int64]int64, error)
	CountVotesByUser(ctx context.Context, userID int64) (int64, error)

	CreateUser(ctx context.Context, user models.User, roleID int64) (models.User, error)
	UserByUsername(ctx context.Context, username string) (models.User, error)
	UserByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (models.User, error)
	UsersByIDs(ctx context.Context, ids []int64) ([]models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CountPollsByCreator(ctx context.Context, userID int64) (int64, error)
	RoleByName(ctx context.Context, name string) (models.Role, error)
}

// pageOffset returns the first row of page, or false when the page starts at
// or past total. The multiplication only happens for pages that exist, so it
// cannot overflow.
func pageOffset(page, size int, total int64) (int64, bool) {
	if page < 0 || size <= 0 {
		return 0, false
	}
	pages := (total + int64(size) - 1) / int64(size)
	if int64(page) >= pages {
		return 0, false
	}
	return int64(page) * int64(size), true
}
