// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/store"
	"github.com/danielhkuo/quickly-poll/testutil"
)

// backends runs fn against every Store implementation
func backends(t *testing.T, fn func(t *testing.T, s store.Store)) {
	t.Run("sql", func(t *testing.T) { fn(t, testutil.SetupTestStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, store.NewMemoryStore()) })
}

func TestCreatePollAndPollByID(t *testing.T) {
	backends(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		alice := testutil.CreateTestUser(t, s, "alice")
		created := testutil.CreateOpenPoll(t, s, alice.ID, "Red", "Green", "Blue")

		if created.ID == 0 {
			t.Fatal("expected poll id to be assigned")
		}
		for _, c := range created.Choices {
			if c.ID == 0 || c.PollID != created.ID {
				t.Errorf("choice not linked to poll: %+v", c)
			}
		}

		got, err := s.PollByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("PollByID() error = %v", err)
		}
		if got.Question != created.Question || got.CreatedBy != alice.ID {
			t.Errorf("unexpected poll %+v", got)
		}
		if len(got.Choices) != 3 || got.Choices[0].Text != "Red" || got.Choices[2].Text != "Blue" {
			t.Errorf("choices not returned in insert order: %+v", got.Choices)
		}

		if _, err := s.PollByID(ctx, created.ID+1000); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestInsertVote_OnePerUserPerPoll(t *testing.T) {
	backends(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		alice := testutil.CreateTestUser(t, s, "alice")
		bob := testutil.CreateTestUser(t, s, "bob")
		poll := testutil.CreateOpenPoll(t, s, alice.ID)
		other := testutil.CreateOpenPoll(t, s, alice.ID)

		vote := models.Vote{PollID: poll.ID, UserID: bob.ID, ChoiceID: poll.Choices[0].ID, CreatedAt: time.Now()}
		first, inserted, err := s.InsertVote(ctx, vote)
		if err != nil || !inserted {
			t.Fatalf("first InsertVote() = %v, %v", inserted, err)
		}
		if first.ID == 0 {
			t.Error("expected vote id to be assigned")
		}

		// Different choice, same poll: still a duplicate
		vote.ChoiceID = poll.Choices[1].ID
		_, inserted, err = s.InsertVote(ctx, vote)
		if err != nil {
			t.Fatalf("duplicate InsertVote() error = %v", err)
		}
		if inserted {
			t.Error("second vote in the same poll was inserted")
		}

		// Same user, another poll is fine
		_, inserted, err = s.InsertVote(ctx, models.Vote{PollID: other.ID, UserID: bob.ID, ChoiceID: other.Choices[0].ID, CreatedAt: time.Now()})
		if err != nil || !inserted {
			t.Errorf("vote in another poll = %v, %v", inserted, err)
		}

		counts, err := s.CountVotesByChoice(ctx, []int64{poll.ID})
		if err != nil {
			t.Fatal(err)
		}
		if counts[poll.Choices[0].ID] != 1 || counts[poll.Choices[1].ID] != 0 {
			t.Errorf("unexpected counts after duplicate: %v", counts)
		}
	})
}

func TestInsertVote_Concurrent(t *testing.T) {
	backends(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		alice := testutil.CreateTestUser(t, s, "alice")
		poll := testutil.CreateOpenPoll(t, s, alice.ID)

		const attempts = 10
		var wg sync.WaitGroup
		var mu sync.Mutex
		inserted := 0
		errs := []error{}

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, ok, err := s.InsertVote(ctx, models.Vote{
					PollID:    poll.ID,
					UserID:    alice.ID,
					ChoiceID:  poll.Choices[i%2].ID,
					CreatedAt: time.Now(),
				})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
				}
				if ok {
					inserted++
				}
			}(i)
		}
		wg.Wait()

		if len(errs) > 0 {
			t.Fatalf("concurrent inserts failed: %v", errs)
		}
		if inserted != 1 {
			t.Errorf("expected exactly 1 inserted vote, got %d", inserted)
		}

		total, err := s.CountVotesByUser(ctx, alice.ID)
		if err != nil {
			t.Fatal(err)
		}
		if total != 1 {
			t.Errorf("expected 1 stored vote, got %d", total)
		}
	})
}

func TestCountVotesByChoiceAndUserVotes(t *testing.T) {
	backends(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		alice := testutil.CreateTestUser(t, s, "alice")
		bob := testutil.CreateTestUser(t, s, "bob")
		carol := testutil.CreateTestUser(t, s, "carol")

		p1 := testutil.CreateOpenPoll(t, s, alice.ID, "A", "B")
		p2 := testutil.CreateOpenPoll(t, s, alice.ID, "C", "D")
		p3 := testutil.CreateOpenPoll(t, s, alice.ID, "E", "F")

		testutil.CastTestVote(t, s, p1.ID, alice.ID, p1.Choices[0].ID)
		testutil.CastTestVote(t, s, p1.ID, bob.ID, p1.Choices[0].ID)
		testutil.CastTestVote(t, s, p1.ID, carol.ID, p1.Choices[1].ID)
		testutil.CastTestVote(t, s, p2.ID, bob.ID, p2.Choices[1].ID)
		testutil.CastTestVote(t, s, p3.ID, bob.ID, p3.Choices[0].ID)

		counts, err := s.CountVotesByChoice(ctx, []int64{p1.ID, p2.ID})
		if err != nil {
			t.Fatalf("CountVotesByChoice() error = %v", err)
		}
		want := map[int64]int64{
			p1.Choices[0].ID: 2,
			p1.Choices[1].ID: 1,
			p2.Choices[1].ID: 1,
		}
		if len(counts) != len(want) {
			t.Errorf("expected %d counted choices, got %v", len(want), counts)
		}
		for id, n := range want {
			if counts[id] != n {
				t.Errorf("choice %d: expected %d votes, got %d", id, n, counts[id])
			}
		}

		selections, err := s.UserVotes(ctx, bob.ID, []int64{p1.ID, p2.ID})
		if err != nil {
			t.Fatalf("UserVotes() error = %v", err)
		}
		if len(selections) != 2 || selections[p1.ID] != p1.Choices[0].ID || selections[p2.ID] != p2.Choices[1].ID {
			t.Errorf("unexpected selections %v", selections)
		}

		empty, err := s.CountVotesByChoice(ctx, nil)
		if err != nil || len(empty) != 0 {
			t.Errorf("expected empty counts for no polls, got %v, %v", empty, err)
		}
	})
}

func TestPollsPage_NewestFirst(t *testing.T) {
	backends(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		alice := testutil.CreateTestUser(t, s, "alice")
		bob := testutil.CreateTestUser(t, s, "bob")

		base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		var ids []int64
		for i := 0; i < 5; i++ {
			creator := alice.ID
			if i%2 == 1 {
				creator = bob.ID
			}
			created := base.Add(time.Duration(i) * time.Hour)
			p := testutil.CreateTestPoll(t, s, creator, created, created.Add(48*time.Hour))
			ids = append(ids, p.ID)
		}

		page0, total, err := s.PollsPage(ctx, 0, 2)
		if err != nil {
			t.Fatalf("PollsPage() error = %v", err)
		}
		if total != 5 {
			t.Errorf("expected total 5, got %d", total)
		}
		if len(page0) != 2 || page0[0].ID != ids[4] || page0[1].ID != ids[3] {
			t.Errorf("page 0 not newest first: %+v", page0)
		}
		if len(page0[0].Choices) != 2 {
			t.Errorf("expected choices on listed polls, got %+v", page0[0].Choices)
		}

		page2, _, err := s.PollsPage(ctx, 2, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(page2) != 1 || page2[0].ID != ids[0] {
			t.Errorf("unexpected last page %+v", page2)
		}

		beyond, total, err := s.PollsPage(ctx, 5, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(beyond) != 0 || total != 5 {
			t.Errorf("expected empty page with total 5, got %d polls, total %d", len(beyond), total)
		}

		byBob, total, err := s.PollsByCreatorPage(ctx, bob.ID, 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if total != 2 || len(byBob) != 2 || byBob[0].ID != ids[3] || byBob[1].ID != ids[1] {
			t.Errorf("unexpected polls by creator: total %d, %+v", total, byBob)
		}
	})
}

func TestPages_HugePageIndex(t *testing.T) {
	backends(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		alice := testutil.CreateTestUser(t, s, "alice")
		bob := testutil.CreateTestUser(t, s, "bob")
		for i := 0; i < 3; i++ {
			p := testutil.CreateOpenPoll(t, s, alice.ID)
			testutil.CastTestVote(t, s, p.ID, bob.ID, p.Choices[0].ID)
		}

		// page*size overflows int for both of these
		for _, tc := range []struct{ page, size int }{{(1 << 62) + 1, 2}, {1 << 62, 4}} {
			polls, total, err := s.PollsPage(ctx, tc.page, tc.size)
			if err != nil || len(polls) != 0 || total != 3 {
				t.Errorf("PollsPage(%d, %d) = %d polls, total %d, %v", tc.page, tc.size, len(polls), total, err)
			}
			polls, total, err = s.PollsByCreatorPage(ctx, alice.ID, tc.page, tc.size)
			if err != nil || len(polls) != 0 || total != 3 {
				t.Errorf("PollsByCreatorPage(%d, %d) = %d polls, total %d, %v", tc.page, tc.size, len(polls), total, err)
			}
			ids, total, err := s.VotedPollIDsPage(ctx, bob.ID, tc.page, tc.size)
			if err != nil || len(ids) != 0 || total != 3 {
				t.Errorf("VotedPollIDsPage(%d, %d) = %v, total %d, %v", tc.page, tc.size, ids, total, err)
			}
		}
	})
}

func TestVotedPollIDsPageAndPollsByIDs(t *testing.T) {
	backends(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		alice := testutil.CreateTestUser(t, s, "alice")
		bob := testutil.CreateTestUser(t, s, "bob")

		base := time.Now().UTC().Add(-time.Hour)
		p1 := testutil.CreateTestPoll(t, s, alice.ID, base, base.Add(48*time.Hour))
		p2 := testutil.CreateTestPoll(t, s, alice.ID, base.Add(time.Minute), base.Add(48*time.Hour))
		p3 := testutil.CreateTestPoll(t, s, alice.ID, base.Add(2*time.Minute), base.Add(48*time.Hour))

		for i, p := range []models.Poll{p2, p1, p3} {
			_, ok, err := s.InsertVote(ctx, models.Vote{
				PollID:    p.ID,
				UserID:    bob.ID,
				ChoiceID:  p.Choices[0].ID,
				CreatedAt: base.Add(time.Duration(10+i) * time.Minute),
			})
			if err != nil || !ok {
				t.Fatalf("InsertVote() = %v, %v", ok, err)
			}
		}

		ids, total, err := s.VotedPollIDsPage(ctx, bob.ID, 0, 2)
		if err != nil {
			t.Fatalf("VotedPollIDsPage() error = %v", err)
		}
		if total != 3 {
			t.Errorf("expected 3 voted polls, got %d", total)
		}
		// Most recent vote first
		if len(ids) != 2 || ids[0] != p3.ID || ids[1] != p1.ID {
			t.Errorf("unexpected voted poll ids %v", ids)
		}

		polls, err := s.PollsByIDs(ctx, []int64{p1.ID, p3.ID})
		if err != nil {
			t.Fatalf("PollsByIDs() error = %v", err)
		}
		if len(polls) != 2 || polls[0].ID != p3.ID || polls[1].ID != p1.ID {
			t.Errorf("PollsByIDs not newest first: %+v", polls)
		}

		none, total, err := s.VotedPollIDsPage(ctx, alice.ID, 0, 10)
		if err != nil || len(none) != 0 || total != 0 {
			t.Errorf("expected no voted polls for alice, got %v, %d, %v", none, total, err)
		}
	})
}

func TestUsers(t *testing.T) {
	backends(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		alice := testutil.CreateTestUser(t, s, "alice")
		bob := testutil.CreateTestUser(t, s, "bob")

		got, err := s.UserByUsernameOrEmail(ctx, "alice@example.com")
		if err != nil || got.ID != alice.ID {
			t.Errorf("lookup by email = %+v, %v", got, err)
		}
		got, err = s.UserByUsernameOrEmail(ctx, "bob")
		if err != nil || got.ID != bob.ID {
			t.Errorf("lookup by username = %+v, %v", got, err)
		}
		if got.PasswordHash == "" {
			t.Error("expected password hash to be loaded")
		}

		if _, err := s.UserByUsername(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		users, err := s.UsersByIDs(ctx, []int64{alice.ID, bob.ID, alice.ID})
		if err != nil {
			t.Fatal(err)
		}
		if len(users) != 2 {
			t.Errorf("expected 2 users, got %d", len(users))
		}

		taken, err := s.UsernameExists(ctx, "alice")
		if err != nil || !taken {
			t.Errorf("UsernameExists(alice) = %v, %v", taken, err)
		}
		taken, err = s.EmailExists(ctx, "carol@example.com")
		if err != nil || taken {
			t.Errorf("EmailExists(carol) = %v, %v", taken, err)
		}

		role, _ := s.RoleByName(ctx, models.RoleUser)
		_, err = s.CreateUser(ctx, models.User{Name: "Alice Two", Username: "alice", Email: "other@example.com", PasswordHash: "x"}, role.ID)
		if !errors.Is(err, store.ErrDuplicate) {
			t.Errorf("expected ErrDuplicate for taken username, got %v", err)
		}

		if _, err := s.RoleByName(ctx, "ROLE_NOPE"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown role, got %v", err)
		}
	})
}

func TestCountsByUser(t *testing.T) {
	backends(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		alice := testutil.CreateTestUser(t, s, "alice")
		bob := testutil.CreateTestUser(t, s, "bob")

		p1 := testutil.CreateOpenPoll(t, s, alice.ID)
		p2 := testutil.CreateOpenPoll(t, s, alice.ID)
		testutil.CastTestVote(t, s, p1.ID, bob.ID, p1.Choices[0].ID)
		testutil.CastTestVote(t, s, p2.ID, bob.ID, p2.Choices[1].ID)

		polls, err := s.CountPollsByCreator(ctx, alice.ID)
		if err != nil || polls != 2 {
			t.Errorf("CountPollsByCreator(alice) = %d, %v", polls, err)
		}
		votes, err := s.CountVotesByUser(ctx, bob.ID)
		if err != nil || votes != 2 {
			t.Errorf("CountVotesByUser(bob) = %d, %v", votes, err)
		}
	})
}
