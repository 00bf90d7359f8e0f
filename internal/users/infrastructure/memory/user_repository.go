package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	users "github.com/dshinde1318/Milk-Management-System-backend/internal/users/domain"
)

// UserRepository is an in-memory directory store for tests.
type UserRepository struct {
	mu   sync.RWMutex
	data map[string]users.User
}

// NewUserRepository constructs a repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{data: make(map[string]users.User)}
}

// GetByID loads a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	copy := user
	return &copy, nil
}

// GetByMobile loads a user by mobile number.
func (r *UserRepository) GetByMobile(ctx context.Context, mobile string) (*users.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.data {
		if user.Mobile == mobile {
			copy := user
			return &copy, nil
		}
	}
	return nil, nil
}

// Insert persists a new user, enforcing mobile uniqueness.
func (r *UserRepository) Insert(ctx context.Context, user *users.User) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.Mobile == user.Mobile {
			return users.ErrMobileConflict
		}
	}
	r.data[user.ID] = *user
	return nil
}

// Update persists field changes, enforcing mobile uniqueness.
func (r *UserRepository) Update(ctx context.Context, user *users.User) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[user.ID]; !ok {
		return users.ErrNotFound
	}
	for _, existing := range r.data {
		if existing.ID != user.ID && existing.Mobile == user.Mobile {
			return users.ErrMobileConflict
		}
	}
	r.data[user.ID] = *user
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return users.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// List returns users newest first, mirroring the SQL ordering.
func (r *UserRepository) List(ctx context.Context, filter users.ListFilter) ([]users.User, error) {
	_ = ctx
	r.mu.RLock()
	var result []users.User
	for _, user := range r.data {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if filter.Search != "" && !matchesSearch(user, filter.Search) {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		result = append(result, user)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Page > 0 || filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		limit := filter.Limit
		if limit < 1 {
			limit = 50
		}
		offset := (page - 1) * limit
		if offset >= len(result) {
			return nil, nil
		}
		end := offset + limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, nil
}

func matchesSearch(user users.User, search string) bool {
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(user.Name), needle) ||
		strings.Contains(user.Mobile, needle) ||
		strings.Contains(strings.ToLower(user.Email), needle)
}
