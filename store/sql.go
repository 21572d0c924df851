// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/quickly-poll/models"
)

// SQLStore implements Store over PostgreSQL or SQLite. Queries use $N
// placeholders, which both drivers accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const pollColumns = `id, question, created_by, created_at, expiration_date_time`

// CreatePoll inserts the poll and its choices in one transaction
func (s *SQLStore) CreatePoll(ctx context.Context, poll models.Poll) (models.Poll, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	poll.CreatedAt = poll.CreatedAt.UTC()
	poll.ExpirationDateTime = poll.ExpirationDateTime.UTC()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO polls (question, created_by, created_at, expiration_date_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, poll.Question, poll.CreatedBy, poll.CreatedAt, poll.ExpirationDateTime).Scan(&poll.ID)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to insert poll: %w", err)
	}

	choices := make([]models.Choice, 0, len(poll.Choices))
	for _, c := range poll.Choices {
		c.PollID = poll.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO choices (poll_id, text)
			VALUES ($1, $2)
			RETURNING id
		`, c.PollID, c.Text).Scan(&c.ID)
		if err != nil {
			return models.Poll{}, fmt.Errorf("failed to insert choice: %w", err)
		}
		choices = append(choices, c)
	}
	poll.Choices = choices

	if err := tx.Commit(); err != nil {
		return models.Poll{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return poll, nil
}

func (s *SQLStore) PollByID(ctx context.Context, id int64) (models.Poll, error) {
	var p models.Poll
	err := s.db.QueryRowContext(ctx, `
		SELECT `+pollColumns+`
		FROM polls
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Question, &p.CreatedBy, &p.CreatedAt, &p.ExpirationDateTime)
	if err == sql.ErrNoRows {
		return models.Poll{}, ErrNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query poll: %w", err)
	}

	polls, err := s.attachChoices(ctx, []models.Poll{p})
	if err != nil {
		return models.Poll{}, err
	}
	return polls[0], nil
}

func (s *SQLStore) PollsPage(ctx context.Context, page, size int) ([]models.Poll, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM polls`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count polls: %w", err)
	}
	offset, ok := pageOffset(page, size, total)
	if !ok {
		return []models.Poll{}, total, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pollColumns+`
		FROM polls
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query polls: %w", err)
	}

	polls, err := s.scanPolls(ctx, rows)
	return polls, total, err
}

func (s *SQLStore) PollsByCreatorPage(ctx context.Context, creatorID int64, page, size int) ([]models.Poll, int64, error) {
	total, err := s.CountPollsByCreator(ctx, creatorID)
	if err != nil {
		return nil, 0, err
	}
	offset, ok := pageOffset(page, size, total)
	if !ok {
		return []models.Poll{}, total, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pollColumns+`
		FROM polls
		WHERE created_by = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, creatorID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query polls by creator: %w", err)
	}

	polls, err := s.scanPolls(ctx, rows)
	return polls, total, err
}

func (s *SQLStore) VotedPollIDsPage(ctx context.Context, userID int64, page, size int) ([]int64, int64, error) {
	total, err := s.CountVotesByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	offset, ok := pageOffset(page, size, total)
	if !ok {
		return []int64{}, total, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT poll_id
		FROM votes
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query voted polls: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, 0, fmt.Errorf("failed to scan poll id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate voted polls: %w", err)
	}

	return ids, total, nil
}

func (s *SQLStore) PollsByIDs(ctx context.Context, ids []int64) ([]models.Poll, error) {
	if len(ids) == 0 {
		return []models.Poll{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pollColumns+`
		FROM polls
		WHERE id IN (`+placeholders(1, len(ids))+`)
		ORDER BY created_at DESC, id DESC
	`, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls by id: %w", err)
	}

	return s.scanPolls(ctx, rows)
}

// scanPolls drains rows and attaches choices with a single extra query.
func (s *SQLStore) scanPolls(ctx context.Context, rows *sql.Rows) ([]models.Poll, error) {
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		var p models.Poll
		if err := rows.Scan(&p.ID, &p.Question, &p.CreatedBy, &p.CreatedAt, &p.ExpirationDateTime); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate polls: %w", err)
	}
	// Release the connection before the choices query
	rows.Close()

	return s.attachChoices(ctx, polls)
}

func (s *SQLStore) attachChoices(ctx context.Context, polls []models.Poll) ([]models.Poll, error) {
	if len(polls) == 0 {
		return polls, nil
	}

	ids := make([]int64, len(polls))
	for i, p := range polls {
		ids[i] = p.ID
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, poll_id, text
		FROM choices
		WHERE poll_id IN (`+placeholders(1, len(ids))+`)
		ORDER BY id
	`, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query choices: %w", err)
	}
	defer rows.Close()

	byPoll := make(map[int64][]models.Choice, len(polls))
	for rows.Next() {
		var c models.Choice
		if err := rows.Scan(&c.ID, &c.PollID, &c.Text); err != nil {
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		byPoll[c.PollID] = append(byPoll[c.PollID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate choices: %w", err)
	}

	for i := range polls {
		polls[i].Choices = byPoll[polls[i].ID]
		if polls[i].Choices == nil {
			polls[i].Choices = []models.Choice{}
		}
	}
	return polls, nil
}

// InsertVote relies on uq_votes_user_poll to reject a second vote, including
// one racing with this insert.
func (s *SQLStore) InsertVote(ctx context.Context, vote models.Vote) (models.Vote, bool, error) {
	vote.CreatedAt = vote.CreatedAt.UTC()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO votes (poll_id, user_id, choice_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, vote.PollID, vote.UserID, vote.ChoiceID, vote.CreatedAt).Scan(&vote.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Vote{}, false, nil
		}
		return models.Vote{}, false, fmt.Errorf("failed to insert vote: %w", err)
	}
	return vote, true, nil
}

func (s *SQLStore) CountVotesByChoice(ctx context.Context, pollIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64)
	if len(pollIDs) == 0 {
		return counts, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT choice_id, COUNT(id)
		FROM votes
		WHERE poll_id IN (`+placeholders(1, len(pollIDs))+`)
		GROUP BY choice_id
	`, int64Args(pollIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var choiceID, count int64
		if err := rows.Scan(&choiceID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts[choiceID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vote counts: %w", err)
	}
	return counts, nil
}

func (s *SQLStore) UserVotes(ctx context.Context, userID int64, pollIDs []int64) (map[int64]int64, error) {
	selections := make(map[int64]int64)
	if len(pollIDs) == 0 {
		return selections, nil
	}

	args := append([]any{userID}, int64Args(pollIDs)...)
	rows, err := s.db.QueryContext(ctx, `
		SELECT poll_id, choice_id
		FROM votes
		WHERE user_id = $1 AND poll_id IN (`+placeholders(2, len(pollIDs))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pollID, choiceID int64
		if err := rows.Scan(&pollID, &choiceID); err != nil {
			return nil, fmt.Errorf("failed to scan user vote: %w", err)
		}
		selections[pollID] = choiceID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user votes: %w", err)
	}
	return selections, nil
}

func (s *SQLStore) CountVotesByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes by user: %w", err)
	}
	return count, nil
}

// CreateUser inserts the user and links it to roleID in one transaction
func (s *SQLStore) CreateUser(ctx context.Context, user models.User, roleID int64) (models.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user.CreatedAt = user.CreatedAt.UTC()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (name, username, email, password, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, user.Name, user.Username, user.Email, user.PasswordHash, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
	`, user.ID, roleID)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to link user role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

const userColumns = `id, name, username, email, password, created_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func (s *SQLStore) userBy(ctx context.Context, where string, arg any) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (s *SQLStore) UserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.userBy(ctx, `username = $1`, username)
}

func (s *SQLStore) UserByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (models.User, error) {
	return s.userBy(ctx, `username = $1 OR email = $1`, usernameOrEmail)
}

func (s *SQLStore) UsersByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id IN (`+placeholders(1, len(ids))+`)
	`, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func (s *SQLStore) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists, nil
}

func (s *SQLStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
}

func (s *SQLStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (s *SQLStore) CountPollsByCreator(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM polls WHERE created_by = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count polls by creator: %w", err)
	}
	return count, nil
}

func (s *SQLStore) RoleByName(ctx context.Context, name string) (models.Role, error) {
	var r models.Role
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE name = $1`, name).Scan(&r.ID, &r.Name)
	if err == sql.ErrNoRows {
		return models.Role{}, ErrNotFound
	}
	if err != nil {
		return models.Role{}, fmt.Errorf("failed to query role: %w", err)
	}
	return r, nil
}

// placeholders renders "$start, $start+1, ..." for n arguments.
func placeholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(start + i))
	}
	return b.String()
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// isUniqueViolation recognizes unique-constraint failures from both drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}

var _ Store = (*SQLStore)(nil)
