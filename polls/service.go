// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quickly-poll/apperr"
	"github.com/danielhkuo/quickly-poll/events"
	"github.com/danielhkuo/quickly-poll/metrics"
	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/store"
)

// Service serves every poll read and write path. List paths run the same
// pipeline: validate paging, fetch one page, then one batch of counts, one
// batch of the caller's selections and one batch of creators for the page.
type Service struct {
	store   store.Store
	agg     *Aggregator
	caster  *VoteCaster
	pager   Pager
	events  events.Publisher
	metrics *metrics.VoteMetrics
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.VoteMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPublisher sets where VoteCast events go. The default drops them.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func NewService(st store.Store, pager Pager, opts ...Option) *Service {
	s := &Service{
		store:  st,
		pager:  pager,
		events: events.NopPublisher{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.agg = NewAggregator(st)
	s.caster = NewVoteCaster(st, s.metrics, s.now)
	return s
}

// Pager exposes the paging policy so handlers can apply its default size.
func (s *Service) Pager() Pager {
	return s.pager
}

// ListPolls returns one page of all polls, newest first.
func (s *Service) ListPolls(ctx context.Context, principal *models.Principal, page, size int) (models.PagedResponse[models.PollResponse], error) {
	if err := s.pager.Validate(page, size); err != nil {
		return models.PagedResponse[models.PollResponse]{}, err
	}

	polls, total, err := s.store.PollsPage(ctx, page, size)
	if err != nil {
		return models.PagedResponse[models.PollResponse]{}, fmt.Errorf("failed to list polls: %w", err)
	}
	return s.respond(ctx, principal, polls, s.pager.Meta(page, size, total))
}

// ListPollsCreatedBy returns one page of the polls username created.
func (s *Service) ListPollsCreatedBy(ctx context.Context, username string, principal *models.Principal, page, size int) (models.PagedResponse[models.PollResponse], error) {
	if err := s.pager.Validate(page, size); err != nil {
		return models.PagedResponse[models.PollResponse]{}, err
	}

	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.PagedResponse[models.PollResponse]{}, err
	}

	polls, total, err := s.store.PollsByCreatorPage(ctx, user.ID, page, size)
	if err != nil {
		return models.PagedResponse[models.PollResponse]{}, fmt.Errorf("failed to list polls by creator: %w", err)
	}
	return s.respond(ctx, principal, polls, s.pager.Meta(page, size, total))
}

// ListPollsVotedBy returns one page of the polls username voted in, ordered
// by the time of the vote, most recent first.
func (s *Service) ListPollsVotedBy(ctx context.Context, username string, principal *models.Principal, page, size int) (models.PagedResponse[models.PollResponse], error) {
	if err := s.pager.Validate(page, size); err != nil {
		return models.PagedResponse[models.PollResponse]{}, err
	}

	user, err := s.userByUsername(ctx, username)
	if err != nil {
		return models.PagedResponse[models.PollResponse]{}, err
	}

	ids, total, err := s.store.VotedPollIDsPage(ctx, user.ID, page, size)
	if err != nil {
		return models.PagedResponse[models.PollResponse]{}, fmt.Errorf("failed to list voted polls: %w", err)
	}
	meta := s.pager.Meta(page, size, total)
	if len(ids) == 0 {
		return pageOf([]models.PollResponse{}, meta), nil
	}

	polls, err := s.store.PollsByIDs(ctx, ids)
	if err != nil {
		return models.PagedResponse[models.PollResponse]{}, fmt.Errorf("failed to load voted polls: %w", err)
	}
	return s.respond(ctx, principal, polls, meta)
}

// respond aggregates a fetched page and maps it to the response envelope.
// An empty page short-circuits without touching the Store again.
func (s *Service) respond(ctx context.Context, principal *models.Principal, polls []models.Poll, meta PageMeta) (models.PagedResponse[models.PollResponse], error) {
	if len(polls) == 0 {
		return pageOf([]models.PollResponse{}, meta), nil
	}

	ids := make([]int64, len(polls))
	for i, p := range polls {
		ids[i] = p.ID
	}

	counts, err := s.agg.ChoiceVoteCounts(ctx, ids)
	if err != nil {
		return models.PagedResponse[models.PollResponse]{}, err
	}
	selections, err := s.agg.UserSelections(ctx, principal, ids)
	if err != nil {
		return models.PagedResponse[models.PollResponse]{}, err
	}
	creators, err := s.agg.CreatorsOf(ctx, polls)
	if err != nil {
		return models.PagedResponse[models.PollResponse]{}, err
	}

	now := s.now().UTC()
	content := make([]models.PollResponse, 0, len(polls))
	for _, p := range polls {
		creator, ok := creators[p.CreatedBy]
		if !ok {
			return models.PagedResponse[models.PollResponse]{}, apperr.NotFound("User", "id", p.CreatedBy)
		}
		content = append(content, ToPollResponse(p, counts, creator, selectionFor(selections, p.ID), now))
	}
	return pageOf(content, meta), nil
}

// GetPoll returns a single poll with the caller's selection, if any.
func (s *Service) GetPoll(ctx context.Context, pollID int64, principal *models.Principal) (models.PollResponse, error) {
	poll, err := s.store.PollByID(ctx, pollID)
	if errors.Is(err, store.ErrNotFound) {
		return models.PollResponse{}, apperr.NotFound("Poll", "id", pollID)
	}
	if err != nil {
		return models.PollResponse{}, fmt.Errorf("failed to load poll: %w", err)
	}

	selections, err := s.agg.UserSelections(ctx, principal, []int64{poll.ID})
	if err != nil {
		return models.PollResponse{}, err
	}
	return s.single(ctx, poll, selectionFor(selections, poll.ID))
}

// CastVote records the principal's vote and returns the poll with fresh counts
// and the new vote marked as selected.
func (s *Service) CastVote(ctx context.Context, pollID int64, principal *models.Principal, req models.VoteRequest) (models.PollResponse, error) {
	if principal == nil {
		return models.PollResponse{}, apperr.ErrUnauthorized
	}

	vote, poll, err := s.caster.cast(ctx, pollID, principal.ID, req.ChoiceID)
	if err != nil {
		return models.PollResponse{}, err
	}

	// The vote is committed; a lost event is logged, not surfaced
	err = s.events.PublishVote(ctx, events.VoteCast{
		VoteID:    vote.ID,
		PollID:    vote.PollID,
		UserID:    vote.UserID,
		ChoiceID:  vote.ChoiceID,
		Timestamp: vote.CreatedAt,
	})
	if err != nil {
		slog.Warn("failed to publish vote event", "error", err, "poll_id", pollID, "vote_id", vote.ID)
	}

	selected := vote.ChoiceID
	return s.single(ctx, poll, &selected)
}

// single aggregates one poll and fails if its creator no longer exists.
func (s *Service) single(ctx context.Context, poll models.Poll, selected *int64) (models.PollResponse, error) {
	counts, err := s.agg.PollChoiceVoteCounts(ctx, poll.ID)
	if err != nil {
		return models.PollResponse{}, err
	}
	creators, err := s.agg.CreatorsOf(ctx, []models.Poll{poll})
	if err != nil {
		return models.PollResponse{}, err
	}
	creator, ok := creators[poll.CreatedBy]
	if !ok {
		return models.PollResponse{}, apperr.NotFound("User", "id", poll.CreatedBy)
	}
	return ToPollResponse(poll, counts, creator, selected, s.now().UTC()), nil
}

// CreatePoll stores a new poll owned by principal. The expiration is the
// creation instant plus the requested days and hours.
func (s *Service) CreatePoll(ctx context.Context, principal *models.Principal, req models.PollRequest) (models.Poll, error) {
	if principal == nil {
		return models.Poll{}, apperr.ErrUnauthorized
	}
	if err := ValidatePollRequest(req); err != nil {
		return models.Poll{}, err
	}

	now := s.now().UTC()
	poll := models.Poll{
		Question:  strings.TrimSpace(req.Question),
		CreatedBy: principal.ID,
		CreatedAt: now,
		ExpirationDateTime: now.Add(time.Duration(req.PollLength.Days)*24*time.Hour +
			time.Duration(req.PollLength.Hours)*time.Hour),
	}
	for _, c := range req.Choices {
		poll.Choices = append(poll.Choices, models.Choice{Text: strings.TrimSpace(c.Text)})
	}

	poll, err := s.store.CreatePoll(ctx, poll)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to create poll: %w", err)
	}
	s.metrics.PollCreated()

	slog.Info("poll created",
		"poll_id", poll.ID,
		"created_by", principal.ID,
		"choices", len(poll.Choices),
		"expires", humanize.RelTime(poll.ExpirationDateTime, now, "ago", "from now"))

	return poll, nil
}

// ValidatePollRequest enforces the question, choice and duration limits.
func ValidatePollRequest(req models.PollRequest) error {
	q := strings.TrimSpace(req.Question)
	if q == "" {
		return apperr.InvalidRequest("question is required")
	}
	if utf8.RuneCountInString(q) > models.MaxQuestionLength {
		return apperr.InvalidRequest("question must be at most %d characters", models.MaxQuestionLength)
	}

	if len(req.Choices) < models.MinChoices || len(req.Choices) > models.MaxChoices {
		return apperr.InvalidRequest("a poll needs between %d and %d choices", models.MinChoices, models.MaxChoices)
	}
	for i, c := range req.Choices {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			return apperr.InvalidRequest("choice %d text is required", i+1)
		}
		if utf8.RuneCountInString(text) > models.MaxChoiceTextLength {
			return apperr.InvalidRequest("choice %d text must be at most %d characters", i+1, models.MaxChoiceTextLength)
		}
	}

	d := req.PollLength
	if d.Days < 0 || d.Days > models.MaxPollDays {
		return apperr.InvalidRequest("pollLength.days must be between 0 and %d", models.MaxPollDays)
	}
	if d.Hours < 0 || d.Hours > models.MaxPollHours {
		return apperr.InvalidRequest("pollLength.hours must be between 0 and %d", models.MaxPollHours)
	}
	return nil
}

func (s *Service) userByUsername(ctx context.Context, username string) (models.User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apperr.NotFound("User", "username", username)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func selectionFor(selections map[int64]int64, pollID int64) *int64 {
	choiceID, ok := selections[pollID]
	if !ok {
		return nil
	}
	return &choiceID
}
