package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"walletfy-api/internal/entities"
)

type memoryUserRepository struct {
	mu    sync.RWMutex
	users []*entities.User
}

// NewMemoryUserRepository creates a process-local user repository, used for DB_DRIVER=memory and tests
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{}
}

func (r *memoryUserRepository) Create(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prepareNewUser(user, time.Now().UTC())
	if err := r.checkUnique(user); err != nil {
		return err
	}
	user.ID = uuid.NewString()

	stored := *user
	r.users = append(r.users, &stored)
	return nil
}

// checkUnique mirrors the unique indexes on email and external ids, which cover deactivated users too
func (r *memoryUserRepository) checkUnique(user *entities.User) error {
	for _, existing := range r.users {
		if existing.ID == user.ID {
			continue
		}
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
		if user.GoogleID != "" && existing.GoogleID == user.GoogleID {
			return ErrDuplicateExternalID
		}
		if user.FacebookID != "" && existing.FacebookID == user.FacebookID {
			return ErrDuplicateExternalID
		}
	}
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*entities.User, error) {
	return r.findOne(func(u *entities.User) bool { return u.ID == id })
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	email = entities.NormalizeEmail(email)
	return r.findOne(func(u *entities.User) bool { return u.Email == email })
}

func (r *memoryUserRepository) FindByExternalID(_ context.Context, provider entities.Provider, externalID string) (*entities.User, error) {
	if externalID == "" {
		return nil, ErrUserNotFound
	}
	return r.findOne(func(u *entities.User) bool { return u.ExternalID(provider) == externalID })
}

func (r *memoryUserRepository) findOne(match func(*entities.User) bool) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Active && match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepository) Update(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = entities.NormalizeEmail(user.Email)
	for i, existing := range r.users {
		if existing.ID != user.ID {
			continue
		}
		if err := r.checkUnique(user); err != nil {
			return err
		}
		user.CreatedAt = existing.CreatedAt
		user.UpdatedAt = time.Now().UTC()
		stored := *user
		r.users[i] = &stored
		return nil
	}
	return ErrUserNotFound
}

func (r *memoryUserRepository) ListActive(_ context.Context) ([]*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []*entities.User{}
	for i := len(r.users) - 1; i >= 0; i-- {
		if r.users[i].Active {
			u := *r.users[i]
			users = append(users, &u)
		}
	}
	return users, nil
}

type memoryEventRepository struct {
	mu     sync.RWMutex
	events []*entities.Event
}

// NewMemoryEventRepository creates a process-local event repository
func NewMemoryEventRepository() EventRepository {
	return &memoryEventRepository{}
}

func (r *memoryEventRepository) Create(_ context.Context, event *entities.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	event.ID = uuid.NewString()
	event.CreatedAt = now
	event.UpdatedAt = now

	stored := *event
	r.events = append(r.events, &stored)
	return nil
}

func (r *memoryEventRepository) FindByID(_ context.Context, userID, id string) (*entities.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e := r.find(userID, id); e != nil {
		found := *e
		return &found, nil
	}
	return nil, ErrEventNotFound
}

func (r *memoryEventRepository) FindOwner(_ context.Context, id string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.events {
		if e.ID == id {
			return e.UserID, nil
		}
	}
	return "", ErrEventNotFound
}

func (r *memoryEventRepository) find(userID, id string) *entities.Event {
	for _, e := range r.events {
		if e.ID == id && e.UserID == userID {
			return e
		}
	}
	return nil
}

func (r *memoryEventRepository) List(_ context.Context, filter EventFilter, order SortOrder) ([]*entities.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := []*entities.Event{}
	for _, e := range r.events {
		if e.UserID != filter.UserID {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.From != nil && e.Date < *filter.From {
			continue
		}
		if filter.To != nil && e.Date > *filter.To {
			continue
		}
		found := *e
		events = append(events, &found)
	}
	sortEvents(events, order)
	return events, nil
}

func (r *memoryEventRepository) Update(_ context.Context, userID, id string, patch EventPatch) (*entities.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.find(userID, id)
	if e == nil {
		return nil, ErrEventNotFound
	}
	patch.Apply(e)
	e.UpdatedAt = time.Now().UTC()

	updated := *e
	return &updated, nil
}

func (r *memoryEventRepository) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.events {
		if e.ID == id && e.UserID == userID {
			r.events = append(r.events[:i], r.events[i+1:]...)
			return nil
		}
	}
	return ErrEventNotFound
}
