package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/identity-service/internal/domain"
)

// MemoryUserRepository keeps users in process memory. It enforces the same
// email/phone uniqueness as the Postgres schema, atomically under one lock.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
	byPhone map[string]string
	now     func() time.Time
}

// NewMemoryUserRepository builds an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return ErrEmailTaken
	}
	if user.Phone != "" {
		if _, exists := r.byPhone[user.Phone]; exists {
			return ErrPhoneTaken
		}
	}

	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	if user.Phone != "" {
		r.byPhone[user.Phone] = user.ID
	}
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[user.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, exists := r.byEmail[user.Email]; exists && owner != user.ID {
		return ErrEmailTaken
	}
	if user.Phone != "" {
		if owner, exists := r.byPhone[user.Phone]; exists && owner != user.ID {
			return ErrPhoneTaken
		}
	}

	delete(r.byEmail, current.Email)
	if current.Phone != "" {
		delete(r.byPhone, current.Phone)
	}

	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = r.now()
	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	if user.Phone != "" {
		r.byPhone[user.Phone] = user.ID
	}
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, user.Email)
	if user.Phone != "" {
		delete(r.byPhone, user.Phone)
	}
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookup(r.byEmail, email)
}

func (r *MemoryUserRepository) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookup(r.byPhone, phone)
}

func (r *MemoryUserRepository) List(_ context.Context, filter UserFilter) ([]domain.User, error) {
	filter = filter.Normalize()

	r.mu.RLock()
	matched := make([]domain.User, 0, len(r.byID))
	for _, user := range r.byID {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(user.Name), strings.ToLower(filter.Name)) {
			continue
		}
		matched = append(matched, user)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset >= len(matched) {
		return []domain.User{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], nil
}

func (r *MemoryUserRepository) lookup(index map[string]string, key string) (*domain.User, error) {
	id, ok := index[key]
	if !ok || key == "" {
		return nil, ErrNotFound
	}
	user := r.byID[id]
	return &user, nil
}
