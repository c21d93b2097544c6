package repository

import (
	"context"
	"fintrack/internal/common"
	"fintrack/internal/domain/model"
	"sync"
)

type memoryUserRepository struct {
	mu         sync.Mutex
	byID       map[string]*model.User
	byUsername map[string]string
}

// NewMemoryUserRepository returns a process-local UserRepository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:       make(map[string]*model.User),
		byUsername: make(map[string]string),
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(user)
}

func (r *memoryUserRepository) CreateFirst(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.byID) > 0 {
		return errUsersExist
	}
	return r.insertLocked(user)
}

func (r *memoryUserRepository) insertLocked(user *model.User) error {
	if _, taken := r.byUsername[user.Username]; taken {
		return errUsernameTaken
	}
	stored := cloneUser(user)
	r.byID[stored.ID] = stored
	r.byUsername[stored.Username] = stored.ID
	return nil
}

func (r *memoryUserRepository) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUsername[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *memoryUserRepository) UpdateCredentials(_ context.Context, username string, fn CredentialUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUsername[username]
	if !ok {
		return common.ErrNotFound
	}

	working := cloneUser(r.byID[id])
	persist, err := fn(working)
	if persist {
		r.byID[id] = working
	}
	return err
}

func cloneUser(u *model.User) *model.User {
	c := *u
	if u.ResetCodeHash != nil {
		h := *u.ResetCodeHash
		c.ResetCodeHash = &h
	}
	if u.ResetCodeExpiresAt != nil {
		e := *u.ResetCodeExpiresAt
		c.ResetCodeExpiresAt = &e
	}
	return &c
}
