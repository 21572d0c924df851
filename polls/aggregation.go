// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"fmt"

	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/store"
)

// Aggregator turns vote rows into per-choice counts and per-user selections
// for a whole page of polls. Each method issues at most one Store query.
type Aggregator struct {
	store store.Store
}

func NewAggregator(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// ChoiceVoteCounts maps choice id to vote count across all polls in pollIDs.
// Choices without votes are absent from the map.
func (a *Aggregator) ChoiceVoteCounts(ctx context.Context, pollIDs []int64) (map[int64]int64, error) {
	ids := distinct(pollIDs)
	if len(ids) == 0 {
		return map[int64]int64{}, nil
	}

	counts, err := a.store.CountVotesByChoice(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count choice votes: %w", err)
	}
	return counts, nil
}

// PollChoiceVoteCounts is ChoiceVoteCounts for a single poll.
func (a *Aggregator) PollChoiceVoteCounts(ctx context.Context, pollID int64) (map[int64]int64, error) {
	return a.ChoiceVoteCounts(ctx, []int64{pollID})
}

// UserSelections maps poll id to the choice the principal voted for. An
// anonymous caller gets an empty map without touching the Store.
func (a *Aggregator) UserSelections(ctx context.Context, principal *models.Principal, pollIDs []int64) (map[int64]int64, error) {
	ids := distinct(pollIDs)
	if principal == nil || len(ids) == 0 {
		return map[int64]int64{}, nil
	}

	selections, err := a.store.UserVotes(ctx, principal.ID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load user votes: %w", err)
	}
	return selections, nil
}

// CreatorsOf loads the distinct creators of polls in one lookup.
func (a *Aggregator) CreatorsOf(ctx context.Context, polls []models.Poll) (map[int64]models.User, error) {
	creatorIDs := make([]int64, len(polls))
	for i, p := range polls {
		creatorIDs[i] = p.CreatedBy
	}
	ids := distinct(creatorIDs)
	if len(ids) == 0 {
		return map[int64]models.User{}, nil
	}

	users, err := a.store.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load poll creators: %w", err)
	}

	creators := make(map[int64]models.User, len(users))
	for _, u := range users {
		creators[u.ID] = u
	}
	return creators, nil
}

// distinct keeps the first occurrence of each id, preserving order
func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
