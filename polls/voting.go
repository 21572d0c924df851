// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/quickly-poll/apperr"
	"github.com/danielhkuo/quickly-poll/metrics"
	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/store"
)

// VoteCaster records a single vote. The one-vote-per-user rule is left to the
// Store's unique (user, poll) constraint; there is no read-then-write check.
type VoteCaster struct {
	store   store.Store
	metrics *metrics.VoteMetrics
	now     func() time.Time
}

func NewVoteCaster(s store.Store, m *metrics.VoteMetrics, now func() time.Time) *VoteCaster {
	if now == nil {
		now = time.Now
	}
	return &VoteCaster{store: s, metrics: m, now: now}
}

// CastVote records userID's vote for choiceID in pollID.
//
// Checks run in order: poll exists, poll not expired, choice belongs to the
// poll. A second vote by the same user fails with apperr.ErrDuplicateVote and
// is not retried.
func (v *VoteCaster) CastVote(ctx context.Context, pollID, userID, choiceID int64) (models.Vote, error) {
	vote, _, err := v.cast(ctx, pollID, userID, choiceID)
	return vote, err
}

// cast is CastVote that also hands back the poll it validated against.
func (v *VoteCaster) cast(ctx context.Context, pollID, userID, choiceID int64) (models.Vote, models.Poll, error) {
	start := time.Now()
	defer v.metrics.ObserveCast(start)

	poll, err := v.store.PollByID(ctx, pollID)
	if errors.Is(err, store.ErrNotFound) {
		v.metrics.Rejected(metrics.ReasonPollNotFound)
		return models.Vote{}, models.Poll{}, apperr.NotFound("Poll", "id", pollID)
	}
	if err != nil {
		return models.Vote{}, models.Poll{}, fmt.Errorf("failed to load poll: %w", err)
	}

	now := v.now().UTC()
	// A poll is closed from its expiration instant onward
	if !poll.ExpirationDateTime.After(now) {
		v.metrics.Rejected(metrics.ReasonPollExpired)
		return models.Vote{}, models.Poll{}, apperr.InvalidRequest("Sorry! This poll has already expired.")
	}

	if !poll.HasChoice(choiceID) {
		v.metrics.Rejected(metrics.ReasonChoiceNotFound)
		return models.Vote{}, models.Poll{}, apperr.NotFound("Choice", "id", choiceID)
	}

	vote, inserted, err := v.store.InsertVote(ctx, models.Vote{
		PollID:    pollID,
		UserID:    userID,
		ChoiceID:  choiceID,
		CreatedAt: now,
	})
	if err != nil {
		return models.Vote{}, models.Poll{}, fmt.Errorf("failed to record vote: %w", err)
	}
	if !inserted {
		v.metrics.Duplicate()
		slog.Info("user has already voted", "poll_id", pollID, "user_id", userID)
		return models.Vote{}, models.Poll{}, apperr.ErrDuplicateVote
	}

	v.metrics.Cast()
	slog.Info("vote recorded", "poll_id", pollID, "user_id", userID, "choice_id", choiceID, "vote_id", vote.ID)
	return vote, poll, nil
}
