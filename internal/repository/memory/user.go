package memory

import (
	"context"

	"github.com/utafrali/TiaaDeals/internal/domain"
	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
)

// UserRepository implements repository.UserRepository in memory.
type UserRepository struct {
	s *Store
}

// Create stores a new user; emails are unique.
func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.emails[u.Email]; ok {
		return apperrors.AlreadyExists("user", "email", u.Email)
	}
	r.s.users[u.ID] = *u
	r.s.emails[u.Email] = u.ID
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return &u, nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[email]
	if !ok {
		return nil, apperrors.NotFound("user", email)
	}
	u := r.s.users[id]
	return &u, nil
}
