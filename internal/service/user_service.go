package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/conectapg/occurrence-service/internal/domain"
	"github.com/conectapg/occurrence-service/internal/events"
	"github.com/conectapg/occurrence-service/internal/repository"
	apperrors "github.com/conectapg/occurrence-service/pkg/util"
)

// UserService manages user accounts.
type UserService struct {
	users       repository.UserRepository
	occurrences repository.OccurrenceRepository
	hasher      PasswordHasher
	events      publisher
	metrics     Recorder
	logger      *zap.Logger
	now         Clock
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo       repository.UserRepository
	OccurrenceRepo repository.OccurrenceRepository
	Hasher         PasswordHasher
	Dispatcher     events.Dispatcher
	Metrics        Recorder
	Logger         *zap.Logger
	Clock          Clock
}

// UserCreateInput describes a new account. Role defaults to citizen and
// Active to true.
type UserCreateInput struct {
	Name   string
	Email  string
	Secret string
	Role   Optional[domain.Role]
	Active Optional[bool]
}

// UserUpdateInput describes an account update. Name and Email are always
// written; the optional fields only when set. A set but blank Secret keeps
// the stored hash.
type UserUpdateInput struct {
	Name   string
	Email  string
	Secret Optional[string]
	Role   Optional[domain.Role]
	Active Optional[bool]
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := orNop(deps.Logger)
	return &UserService{
		users:       deps.UserRepo,
		occurrences: deps.OccurrenceRepo,
		hasher:      deps.Hasher,
		events:      publisher{dispatcher: deps.Dispatcher, logger: logger},
		metrics:     orNopRecorder(deps.Metrics),
		logger:      logger,
		now:         orSystemClock(deps.Clock),
	}
}

// List returns every user in store order.
func (s *UserService) List(ctx context.Context) ([]UserView, error) {
	return s.list(ctx, repository.UserFilter{})
}

// ListByRole returns users holding role.
func (s *UserService) ListByRole(ctx context.Context, role domain.Role) ([]UserView, error) {
	if err := check(rule{field: "role", value: role, tag: "required,enum"}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.UserFilter{Role: &role})
}

// ListActive returns users whose account is active.
func (s *UserService) ListActive(ctx context.Context) ([]UserView, error) {
	active := true
	return s.list(ctx, repository.UserFilter{Active: &active})
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (*UserView, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, user)
}

// GetByEmail returns the user registered with exactly email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*UserView, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return s.view(ctx, user)
}

// Create registers a new user.
func (s *UserService) Create(ctx context.Context, input UserCreateInput) (*UserView, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	role := domain.RoleCitizen
	if r, ok := input.Role.Get(); ok {
		role = r
	}
	active := true
	if a, ok := input.Active.Get(); ok {
		active = a
	}

	if err := check(
		nameRule(name),
		emailRule(email),
		rule{field: "secret", value: input.Secret, tag: "required,notblank,min=6"},
		rule{field: "role", value: role, tag: "required,enum"},
	); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if exists {
		return nil, emailConflict(email)
	}

	hash, err := s.hasher.Hash(input.Secret)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       active,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, emailConflict(email)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.metrics.UserCreated(user.Role)
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	view := newUserView(*user, 0)
	return &view, nil
}

// Update rewrites a user's profile.
func (s *UserService) Update(ctx context.Context, id string, input UserUpdateInput) (*UserView, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	rules := []rule{nameRule(name), emailRule(email)}
	secret, rehash := input.Secret.Get()
	if rehash && strings.TrimSpace(secret) == "" {
		rehash = false
	}
	if rehash {
		rules = append(rules, rule{field: "secret", value: secret, tag: "min=6"})
	}
	if role, ok := input.Role.Get(); ok {
		rules = append(rules, rule{field: "role", value: role, tag: "required,enum"})
	}
	if err := check(rules...); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if email != user.Email {
		holder, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil && holder.ID != user.ID:
			return nil, emailConflict(email)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewInternalError(err)
		}
	}

	user.Name = name
	user.Email = email
	if rehash {
		hash, err := s.hasher.Hash(secret)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}
	if role, ok := input.Role.Get(); ok {
		user.Role = role
	}
	if active, ok := input.Active.Get(); ok {
		user.Active = active
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return s.view(ctx, user)
}

// SetActive flips the account's active flag.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) (*UserView, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Active = active
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return s.view(ctx, user)
}

// Delete removes a user and every occurrence it owns.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return userNotFound(id)
		}
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	s.events.publish(ctx, events.Event{
		Type:      events.EventUserDeleted,
		UserID:    id,
		Timestamp: s.now(),
	})
	return nil
}

func (s *UserService) load(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, userNotFound(id)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *UserService) save(ctx context.Context, user *domain.User) error {
	err := s.users.Update(ctx, user)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return userNotFound(user.ID)
	case errors.Is(err, repository.ErrEmailTaken):
		return emailConflict(user.Email)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (s *UserService) list(ctx context.Context, filter repository.UserFilter) ([]UserView, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	counts, err := s.countOccurrences(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u, counts[u.ID]))
	}
	return views, nil
}

func (s *UserService) view(ctx context.Context, user *domain.User) (*UserView, error) {
	counts, err := s.countOccurrences(ctx, []string{user.ID})
	if err != nil {
		return nil, err
	}
	view := newUserView(*user, counts[user.ID])
	return &view, nil
}

func (s *UserService) countOccurrences(ctx context.Context, ids []string) (map[string]int, error) {
	if s.occurrences == nil || len(ids) == 0 {
		return map[string]int{}, nil
	}
	counts, err := s.occurrences.CountByOwners(ctx, ids)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return counts, nil
}

func nameRule(name string) rule {
	return rule{field: "name", value: name, tag: "required,notblank,min=3,max=255"}
}

func emailRule(email string) rule {
	return rule{field: "email", value: email, tag: "required,email,max=320"}
}

func userNotFound(id string) error {
	return apperrors.NewNotFound("user", map[string]any{"user_id": id})
}

func emailConflict(email string) error {
	return apperrors.NewConflict("email already registered", map[string]any{"email": email})
}
