// Package playlist composes playlist views and coordinates playlist
// mutations on top of the entity store.
package playlist

import (
	"errors"
	"time"

	"listen80/core/apperr"
	"listen80/repository"
)

// Service is the entry point for playlist views, the popular ranking and mutations.
type Service struct {
	store    repository.Store
	composer ViewComposer
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, used for created_at/updated_at and ulid timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithComposer replaces the point-query composer.
func WithComposer(c ViewComposer) Option {
	return func(s *Service) {
		s.composer = c
	}
}

// NewService creates a Service backed by store.
func NewService(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		composer: NewPointQueryComposer(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// internal keeps application errors as they are and marks everything else
// as an internal failure.
func internal(err error, msg string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(err, msg)
}
