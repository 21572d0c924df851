// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Role names
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// Poll request limits
const (
	MaxQuestionLength   = 140
	MaxChoiceTextLength = 40
	MinChoices          = 2
	MaxChoices          = 6
	MaxPollDays         = 7
	MaxPollHours        = 23
)

// Request types

type ChoiceRequest struct {
	Text string `json:"text"`
}

type PollLength struct {
	Days  int `json:"days"`
	Hours int `json:"hours"`
}

type PollRequest struct {
	Question   string          `json:"question"`
	Choices    []ChoiceRequest `json:"choices"`
	PollLength PollLength      `json:"pollLength"`
}

type VoteRequest struct {
	ChoiceID int64 `json:"choiceId"`
}

type SignUpRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// Response types

type ChoiceResponse struct {
	ID          int64   `json:"id"`
	Text        string  `json:"text"`
	VoteCount   int64   `json:"voteCount"`
	VotePercent float64 `json:"votePercent"`
}

type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type PollResponse struct {
	ID                 int64            `json:"id"`
	Question           string           `json:"question"`
	Choices            []ChoiceResponse `json:"choices"`
	CreatedBy          UserSummary      `json:"createdBy"`
	CreatedAt          time.Time        `json:"createdAt"`
	ExpirationDateTime time.Time        `json:"expirationDateTime"`
	IsExpired          bool             `json:"isExpired"`
	TotalVotes         int64            `json:"totalVotes"`
	SelectedChoice     *int64           `json:"selectedChoice,omitempty"`
}

// PagedResponse is one page of items plus paging metadata.
type PagedResponse[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Last          bool  `json:"last"`
}

type ApiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type JwtAuthenticationResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

type UserIdentityAvailability struct {
	Available bool `json:"available"`
}

type UserProfile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	JoinedAt  time.Time `json:"joinedAt"`
	PollCount int64     `json:"pollCount"`
	VoteCount int64     `json:"voteCount"`
}

// Domain types

// Poll never carries vote counts; they are recomputed from votes on read.
type Poll struct {
	ID                 int64     `json:"id"`
	Question           string    `json:"question"`
	Choices            []Choice  `json:"choices"`
	CreatedBy          int64     `json:"created_by"`
	CreatedAt          time.Time `json:"created_at"`
	ExpirationDateTime time.Time `json:"expiration_date_time"`
}

// HasChoice reports whether choiceID belongs to this poll.
func (p Poll) HasChoice(choiceID int64) bool {
	for _, c := range p.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

type Choice struct {
	ID     int64  `json:"id"`
	PollID int64  `json:"poll_id"`
	Text   string `json:"text"`
}

type Vote struct {
	ID        int64     `json:"id"`
	PollID    int64     `json:"poll_id"`
	UserID    int64     `json:"user_id"`
	ChoiceID  int64     `json:"choice_id"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"-"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
}

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Principal is the already-authenticated caller. A nil *Principal means anonymous.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
