// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package accounts handles registration, sign-in and public user profiles.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/quickly-poll/apperr"
	"github.com/danielhkuo/quickly-poll/auth"
	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/store"
)

// Field limits for sign-up
const (
	MinNameLength     = 4
	MaxNameLength     = 40
	MinUsernameLength = 3
	MaxUsernameLength = 15
	MaxEmailLength    = 40
	MinPasswordLength = 6
	MaxPasswordLength = 20
)

type Service struct {
	store  store.Store
	tokens *auth.TokenProvider
	now    func() time.Time
}

func NewService(s store.Store, tokens *auth.TokenProvider) *Service {
	return &Service{store: s, tokens: tokens, now: time.Now}
}

// RequireRoles fails with a *apperr.ConfigurationError if any named role is
// missing from the store. Call it before serving traffic.
func (s *Service) RequireRoles(ctx context.Context, names ...string) error {
	for _, name := range names {
		if _, err := s.role(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) role(ctx context.Context, name string) (models.Role, error) {
	role, err := s.store.RoleByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return models.Role{}, &apperr.ConfigurationError{Missing: name}
	}
	if err != nil {
		return models.Role{}, fmt.Errorf("failed to load role %s: %w", name, err)
	}
	return role, nil
}

// SignUp registers a user with the default role.
func (s *Service) SignUp(ctx context.Context, req models.SignUpRequest) (models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateSignUp(req); err != nil {
		return models.User{}, err
	}

	taken, err := s.store.UsernameExists(ctx, req.Username)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return models.User{}, apperr.InvalidRequest("Username is already taken!")
	}
	taken, err = s.store.EmailExists(ctx, req.Email)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return models.User{}, apperr.InvalidRequest("Email Address already in use!")
	}

	role, err := s.role(ctx, models.RoleUser)
	if err != nil {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.store.CreateUser(ctx, models.User{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}, role.ID)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent sign-up
		return models.User{}, apperr.InvalidRequest("Username is already taken!")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// SignIn checks credentials and returns a bearer token.
func (s *Service) SignIn(ctx context.Context, req models.LoginRequest) (string, error) {
	if strings.TrimSpace(req.UsernameOrEmail) == "" || req.Password == "" {
		return "", apperr.InvalidRequest("usernameOrEmail and password are required")
	}

	user, err := s.store.UserByUsernameOrEmail(ctx, strings.TrimSpace(req.UsernameOrEmail))
	if errors.Is(err, store.ErrNotFound) {
		return "", apperr.ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return "", apperr.ErrUnauthorized
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Profile is the public view of username plus activity counts.
func (s *Service) Profile(ctx context.Context, username string) (models.UserProfile, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return models.UserProfile{}, apperr.NotFound("User", "username", username)
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to load user: %w", err)
	}

	pollCount, err := s.store.CountPollsByCreator(ctx, user.ID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to count polls: %w", err)
	}
	voteCount, err := s.store.CountVotesByUser(ctx, user.ID)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to count votes: %w", err)
	}

	return models.UserProfile{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		JoinedAt:  user.CreatedAt,
		PollCount: pollCount,
		VoteCount: voteCount,
	}, nil
}

func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return !taken, nil
}

func (s *Service) EmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return !taken, nil
}

// ValidateSignUp checks field lengths and the email format.
func ValidateSignUp(req models.SignUpRequest) error {
	if n := utf8.RuneCountInString(req.Name); n < MinNameLength || n > MaxNameLength {
		return apperr.InvalidRequest("name must be %d-%d characters", MinNameLength, MaxNameLength)
	}
	if n := utf8.RuneCountInString(req.Username); n < MinUsernameLength || n > MaxUsernameLength {
		return apperr.InvalidRequest("username must be %d-%d characters", MinUsernameLength, MaxUsernameLength)
	}
	if req.Email == "" || len(req.Email) > MaxEmailLength {
		return apperr.InvalidRequest("email must be 1-%d characters", MaxEmailLength)
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return apperr.InvalidRequest("email is not a valid address")
	}
	if n := utf8.RuneCountInString(req.Password); n < MinPasswordLength || n > MaxPasswordLength {
		return apperr.InvalidRequest("password must be %d-%d characters", MinPasswordLength, MaxPasswordLength)
	}
	return nil
}
