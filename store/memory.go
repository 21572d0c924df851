// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/danielhkuo/quickly-poll/models"
)

type userPoll struct {
	userID, pollID int64
}

// MemoryStore keeps everything in process memory. Vote uniqueness is decided
// under the same lock as the insert, so it holds for concurrent callers of
// one process only; multi-instance deployments need SQLStore.
type MemoryStore struct {
	mu sync.RWMutex

	nextID    int64
	polls     map[int64]models.Poll
	votes     []models.Vote
	voteIndex map[userPoll]int64
	users     map[int64]models.User
	userRoles map[int64][]int64
	roles     map[string]models.Role
}

// NewMemoryStore initializes storage with the default roles
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		polls:     make(map[int64]models.Poll),
		voteIndex: make(map[userPoll]int64),
		users:     make(map[int64]models.User),
		userRoles: make(map[int64][]int64),
		roles:     make(map[string]models.Role),
	}
	for _, name := range []string{models.RoleUser, models.RoleAdmin} {
		s.nextID++
		s.roles[name] = models.Role{ID: s.nextID, Name: name}
	}
	return s
}

// id must be called with mu held for writing
func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) CreatePoll(ctx context.Context, poll models.Poll) (models.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll.ID = s.id()
	choices := make([]models.Choice, len(poll.Choices))
	for i, c := range poll.Choices {
		choices[i] = models.Choice{ID: s.id(), PollID: poll.ID, Text: c.Text}
	}
	poll.Choices = choices
	s.polls[poll.ID] = poll
	return copyPoll(poll), nil
}

func (s *MemoryStore) PollByID(ctx context.Context, id int64) (models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.polls[id]
	if !ok {
		return models.Poll{}, ErrNotFound
	}
	return copyPoll(p), nil
}

func (s *MemoryStore) PollsPage(ctx context.Context, page, size int) ([]models.Poll, int64, error) {
	return s.pollsWhere(func(models.Poll) bool { return true }, page, size), s.countPolls(func(models.Poll) bool { return true }), nil
}

func (s *MemoryStore) PollsByCreatorPage(ctx context.Context, creatorID int64, page, size int) ([]models.Poll, int64, error) {
	match := func(p models.Poll) bool { return p.CreatedBy == creatorID }
	return s.pollsWhere(match, page, size), s.countPolls(match), nil
}

func (s *MemoryStore) countPolls(match func(models.Poll) bool) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.polls {
		if match(p) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) pollsWhere(match func(models.Poll) bool, page, size int) []models.Poll {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := []models.Poll{}
	for _, p := range s.polls {
		if match(p) {
			all = append(all, copyPoll(p))
		}
	}
	sortNewestFirst(all)
	return window(all, page, size)
}

func (s *MemoryStore) VotedPollIDsPage(ctx context.Context, userID int64, page, size int) ([]int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mine := []models.Vote{}
	for _, v := range s.votes {
		if v.UserID == userID {
			mine = append(mine, v)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		if !mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].CreatedAt.After(mine[j].CreatedAt)
		}
		return mine[i].ID > mine[j].ID
	})

	ids := []int64{}
	for _, v := range window(mine, page, size) {
		ids = append(ids, v.PollID)
	}
	return ids, int64(len(mine)), nil
}

func (s *MemoryStore) PollsByIDs(ctx context.Context, ids []int64) ([]models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	polls := []models.Poll{}
	for _, id := range ids {
		if p, ok := s.polls[id]; ok {
			polls = append(polls, copyPoll(p))
		}
	}
	sortNewestFirst(polls)
	return polls, nil
}

func (s *MemoryStore) InsertVote(ctx context.Context, vote models.Vote) (models.Vote, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userPoll{userID: vote.UserID, pollID: vote.PollID}
	if _, exists := s.voteIndex[key]; exists {
		return models.Vote{}, false, nil
	}

	vote.ID = s.id()
	s.votes = append(s.votes, vote)
	s.voteIndex[key] = vote.ID
	return vote, true, nil
}

func (s *MemoryStore) CountVotesByChoice(ctx context.Context, pollIDs []int64) (map[int64]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := idSet(pollIDs)
	counts := make(map[int64]int64)
	for _, v := range s.votes {
		if wanted[v.PollID] {
			counts[v.ChoiceID]++
		}
	}
	return counts, nil
}

func (s *MemoryStore) UserVotes(ctx context.Context, userID int64, pollIDs []int64) (map[int64]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := idSet(pollIDs)
	selections := make(map[int64]int64)
	for _, v := range s.votes {
		if v.UserID == userID && wanted[v.PollID] {
			selections[v.PollID] = v.ChoiceID
		}
	}
	return selections, nil
}

func (s *MemoryStore) CountVotesByUser(ctx context.Context, userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, v := range s.votes {
		if v.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user models.User, roleID int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return models.User{}, ErrDuplicate
		}
	}

	user.ID = s.id()
	s.users[user.ID] = user
	s.userRoles[user.ID] = append(s.userRoles[user.ID], roleID)
	return user, nil
}

func (s *MemoryStore) findUser(match func(models.User) bool) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *MemoryStore) UserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

func (s *MemoryStore) UserByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (models.User, error) {
	return s.findUser(func(u models.User) bool {
		return u.Username == usernameOrEmail || strings.EqualFold(u.Email, usernameOrEmail)
	})
}

func (s *MemoryStore) UsersByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []models.User{}
	for id := range idSet(ids) {
		if u, ok := s.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (s *MemoryStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := s.UserByUsername(ctx, username)
	return err == nil, nil
}

func (s *MemoryStore) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.findUser(func(u models.User) bool { return u.Email == email })
	return err == nil, nil
}

func (s *MemoryStore) CountPollsByCreator(ctx context.Context, userID int64) (int64, error) {
	return s.countPolls(func(p models.Poll) bool { return p.CreatedBy == userID }), nil
}

func (s *MemoryStore) RoleByName(ctx context.Context, name string) (models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roles[name]
	if !ok {
		return models.Role{}, ErrNotFound
	}
	return r, nil
}

// DeleteRole removes a role record.
func (s *MemoryStore) DeleteRole(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, name)
}

func copyPoll(p models.Poll) models.Poll {
	p.Choices = append([]models.Choice{}, p.Choices...)
	return p
}

func sortNewestFirst(polls []models.Poll) {
	sort.Slice(polls, func(i, j int) bool {
		if !polls[i].CreatedAt.Equal(polls[j].CreatedAt) {
			return polls[i].CreatedAt.After(polls[j].CreatedAt)
		}
		return polls[i].ID > polls[j].ID
	})
}

func window[T any](items []T, page, size int) []T {
	offset, ok := pageOffset(page, size, int64(len(items)))
	if !ok {
		return []T{}
	}
	start := int(offset)
	end := min(start+size, len(items))
	return items[start:end]
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

var _ Store = (*MemoryStore)(nil)
