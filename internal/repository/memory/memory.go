// Package memory provides in-process implementations of the repository
// interfaces. Both repositories share one lock so that email uniqueness,
// owner existence and cascading deletes are checked and applied atomically.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/conectapg/occurrence-service/internal/domain"
	"github.com/conectapg/occurrence-service/internal/repository"
)

type occurrenceRecord struct {
	occurrence domain.Occurrence
	seq        int64
}

// DB holds users and occurrences.
type DB struct {
	mu          sync.RWMutex
	users       map[string]domain.User
	userOrder   []string
	occurrences map[string]occurrenceRecord
	seq         int64
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		users:       make(map[string]domain.User),
		occurrences: make(map[string]occurrenceRecord),
	}
}

// Users returns a UserRepository backed by db.
func (db *DB) Users() repository.UserRepository {
	return &userRepository{db: db}
}

// Occurrences returns an OccurrenceRepository backed by db.
func (db *DB) Occurrences() repository.OccurrenceRepository {
	return &occurrenceRepository{db: db}
}

type userRepository struct {
	db *DB
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.emailOwnerLocked(user.Email) != "" {
		return repository.ErrEmailTaken
	}
	user.ID = uuid.NewString()
	r.db.users[user.ID] = *user
	r.db.userOrder = append(r.db.userOrder, user.ID)
	return nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if owner := r.db.emailOwnerLocked(user.Email); owner != "" && owner != user.ID {
		return repository.ErrEmailTaken
	}
	updated := *user
	updated.CreatedAt = existing.CreatedAt
	r.db.users[user.ID] = updated
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	user, ok := r.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id := r.db.emailOwnerLocked(email)
	if id == "" {
		return nil, repository.ErrNotFound
	}
	user := r.db.users[id]
	return &user, nil
}

func (r *userRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.db.emailOwnerLocked(email) != "", nil
}

func (r *userRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	result := []domain.User{}
	for _, id := range r.db.userOrder {
		user := r.db.users[id]
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		result = append(result, user)
	}
	return result, nil
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return repository.ErrNotFound
	}
	for occurrenceID, record := range r.db.occurrences {
		if record.occurrence.OwnerID == id {
			delete(r.db.occurrences, occurrenceID)
		}
	}
	delete(r.db.users, id)
	for i, candidate := range r.db.userOrder {
		if candidate == id {
			r.db.userOrder = append(r.db.userOrder[:i], r.db.userOrder[i+1:]...)
			break
		}
	}
	return nil
}

type occurrenceRepository struct {
	db *DB
}

func (r *occurrenceRepository) Create(_ context.Context, occurrence *domain.Occurrence) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[occurrence.OwnerID]; !ok {
		return repository.ErrOwnerNotFound
	}
	occurrence.ID = uuid.NewString()
	r.db.seq++
	stored := *occurrence
	stored.Owner = nil
	r.db.occurrences[occurrence.ID] = occurrenceRecord{occurrence: stored, seq: r.db.seq}
	return nil
}

func (r *occurrenceRepository) Update(_ context.Context, occurrence *domain.Occurrence) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	record, ok := r.db.occurrences[occurrence.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current := record.occurrence
	current.Title = occurrence.Title
	current.Description = occurrence.Description
	current.Location = occurrence.Location
	current.Type = occurrence.Type
	current.Status = occurrence.Status
	current.UpdatedAt = occurrence.UpdatedAt
	record.occurrence = current
	r.db.occurrences[occurrence.ID] = record
	return nil
}

func (r *occurrenceRepository) GetByID(_ context.Context, id string) (*domain.Occurrence, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	record, ok := r.db.occurrences[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	occurrence := r.db.withOwnerLocked(record.occurrence)
	return &occurrence, nil
}

func (r *occurrenceRepository) List(_ context.Context, filter repository.OccurrenceFilter) ([]domain.Occurrence, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	matched := make([]occurrenceRecord, 0, len(r.db.occurrences))
	for _, record := range r.db.occurrences {
		o := record.occurrence
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.OwnerID != nil && o.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.LocationContains != nil && !strings.Contains(o.Location, *filter.LocationContains) {
			continue
		}
		matched = append(matched, record)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.occurrence.CreatedAt.Equal(b.occurrence.CreatedAt) {
			return a.occurrence.CreatedAt.After(b.occurrence.CreatedAt)
		}
		return a.seq > b.seq
	})

	result := make([]domain.Occurrence, 0, len(matched))
	for _, record := range matched {
		result = append(result, r.db.withOwnerLocked(record.occurrence))
	}
	return result, nil
}

func (r *occurrenceRepository) CountByOwners(_ context.Context, ownerIDs []string) (map[string]int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := make(map[string]int, len(ownerIDs))
	wanted := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		wanted[id] = struct{}{}
	}
	for _, record := range r.db.occurrences {
		if _, ok := wanted[record.occurrence.OwnerID]; ok {
			counts[record.occurrence.OwnerID]++
		}
	}
	return counts, nil
}

func (r *occurrenceRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.occurrences[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.occurrences, id)
	return nil
}

// emailOwnerLocked returns the id of the user holding email, or "".
func (db *DB) emailOwnerLocked(email string) string {
	for id, user := range db.users {
		if user.Email == email {
			return id
		}
	}
	return ""
}

func (db *DB) withOwnerLocked(occurrence domain.Occurrence) domain.Occurrence {
	if owner, ok := db.users[occurrence.OwnerID]; ok {
		occurrence.Owner = &owner
	}
	return occurrence
}
