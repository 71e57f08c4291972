// Package account handles signup, login, moderation and dataset reset.
package account

import (
	"context"
	"errors"
	"regexp"
	"time"

	"listen80/core/apperr"
	"listen80/core/auth"
	"listen80/logger"
	"listen80/model"
	"listen80/repository"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var credentialPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// SignupInput is the payload of a signup.
type SignupInput struct {
	Account     string
	Password    string
	DisplayName string
}

// Validate checks each field and reports the first bad one.
func (in SignupInput) Validate() error {
	if err := validateCredentials(in.Account, in.Password); err != nil {
		return err
	}
	if err := validation.Validate(in.DisplayName, validation.Required, validation.RuneLength(2, 24)); err != nil {
		return apperr.Validation("bad display_name")
	}
	return nil
}

func validateCredentials(account, password string) error {
	if err := validation.Validate(account,
		validation.Required,
		validation.RuneLength(4, 191),
		validation.Match(credentialPattern),
	); err != nil {
		return apperr.Validation("bad user_account")
	}
	if err := validation.Validate(password,
		validation.Required,
		validation.RuneLength(8, 64),
		validation.Match(credentialPattern),
	); err != nil {
		return apperr.Validation("bad password")
	}
	return nil
}

// Service manages user accounts.
type Service struct {
	store repository.Store
	now   func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store repository.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Signup creates a user and returns it.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "failed to signup")
	}
	now := s.now()
	user := &model.User{
		Account:        in.Account,
		DisplayName:    in.DisplayName,
		PasswordHash:   hash,
		IsBan:          false,
		CreatedAt:      now,
		LastLoggedInAt: now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperr.Conflict("account already exist")
		}
		return nil, apperr.Internal(err, "failed to signup")
	}

	logger.Info("[Account] signed up", logger.Account(user.Account))
	return user, nil
}

// Login checks credentials and records the login time. Missing and banned
// users are rejected alike.
func (s *Service) Login(ctx context.Context, account, password string) (*model.User, error) {
	if err := validateCredentials(account, password); err != nil {
		return nil, err
	}

	user, err := s.store.UserByAccount(ctx, account)
	if err != nil {
		return nil, apperr.Internal(err, "failed to login (server error)")
	}
	if user == nil || user.IsBan {
		logger.Warn("[Login] no such user or banned", logger.Account(account))
		return nil, apperr.Unauthorized("failed to login (no such user)")
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("[Login] wrong password", logger.Account(account))
		return nil, apperr.Unauthorized("failed to login (wrong password)")
	}

	now := s.now()
	if err := s.store.TouchLastLogin(ctx, account, now); err != nil {
		return nil, apperr.Internal(err, "failed to login (server error)")
	}
	user.LastLoggedInAt = now
	return user, nil
}

// SetBan sets the ban flag and returns the updated user.
func (s *Service) SetBan(ctx context.Context, account string, isBan bool) (*model.User, error) {
	if err := s.store.SetBan(ctx, account, isBan); err != nil {
		return nil, apperr.Internal(err, "failed to update user")
	}
	user, err := s.store.UserByAccount(ctx, account)
	if err != nil {
		return nil, apperr.Internal(err, "failed to get user")
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	logger.Info("[Account] ban flag updated", logger.Account(account), logger.Bool("is_ban", isBan))
	return user, nil
}

// Reset removes everything created after cutoff together with the rows it
// leaves orphaned. Running it twice is harmless.
func (s *Service) Reset(ctx context.Context, cutoff time.Time) error {
	if err := s.store.Reset(ctx, cutoff); err != nil {
		return apperr.Internal(err, "failed to initialize")
	}
	logger.Info("[Account] dataset reset", logger.String("cutoff", cutoff.Format(time.RFC3339)))
	return nil
}
