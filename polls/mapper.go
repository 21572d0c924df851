// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"math"
	"time"

	"github.com/danielhkuo/quickly-poll/models"
)

// ToPollResponse builds the client view of a poll from aggregated counts.
// counts may hold choices of other polls; only this poll's choices are read.
// selected is the caller's choice, nil when the caller has not voted.
func ToPollResponse(poll models.Poll, counts map[int64]int64, creator models.User, selected *int64, now time.Time) models.PollResponse {
	var total int64
	for _, c := range poll.Choices {
		total += counts[c.ID]
	}

	choices := make([]models.ChoiceResponse, len(poll.Choices))
	for i, c := range poll.Choices {
		choices[i] = models.ChoiceResponse{
			ID:          c.ID,
			Text:        c.Text,
			VoteCount:   counts[c.ID],
			VotePercent: votePercent(counts[c.ID], total),
		}
	}

	return models.PollResponse{
		ID:                 poll.ID,
		Question:           poll.Question,
		Choices:            choices,
		CreatedBy:          ToUserSummary(creator),
		CreatedAt:          poll.CreatedAt,
		ExpirationDateTime: poll.ExpirationDateTime,
		IsExpired:          !poll.ExpirationDateTime.After(now),
		TotalVotes:         total,
		SelectedChoice:     selected,
	}
}

func ToUserSummary(u models.User) models.UserSummary {
	return models.UserSummary{ID: u.ID, Username: u.Username, Name: u.Name}
}

// votePercent is rounded to two decimals; a poll with no votes reports 0.
func votePercent(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)*100*100/float64(total)) / 100
}
