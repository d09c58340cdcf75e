package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/conectapg/occurrence-service/internal/auth"
	"github.com/conectapg/occurrence-service/internal/domain"
	"github.com/conectapg/occurrence-service/internal/events"
	"github.com/conectapg/occurrence-service/internal/repository"
	"github.com/conectapg/occurrence-service/internal/repository/memory"
	"github.com/conectapg/occurrence-service/internal/service/mocks"
	apperrors "github.com/conectapg/occurrence-service/pkg/util"
)

type UserServiceSuite struct {
	suite.Suite
	ctx         context.Context
	db          *memory.DB
	dispatcher  *events.AsyncDispatcher
	recorder    *countingRecorder
	users       *UserService
	occurrences *OccurrenceService
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = memory.New()
	s.dispatcher = events.NewAsyncDispatcher(64)
	s.recorder = newCountingRecorder()
	clock := newStepClock()
	logger := zaptest.NewLogger(s.T())

	s.users = NewUserService(UserDependencies{
		UserRepo:       s.db.Users(),
		OccurrenceRepo: s.db.Occurrences(),
		Hasher:         auth.NewBcryptHasher(4),
		Dispatcher:     s.dispatcher,
		Metrics:        s.recorder,
		Logger:         logger,
		Clock:          clock.Now,
	})
	s.occurrences = NewOccurrenceService(OccurrenceDependencies{
		OccurrenceRepo: s.db.Occurrences(),
		UserRepo:       s.db.Users(),
		Dispatcher:     s.dispatcher,
		Logger:         logger,
		Clock:          clock.Now,
	})
}

func (s *UserServiceSuite) createUser(name, email string) *UserView {
	view, err := s.users.Create(s.ctx, UserCreateInput{Name: name, Email: email, Secret: "segredo1"})
	s.Require().NoError(err)
	return view
}

func (s *UserServiceSuite) storedHash(id string) string {
	user, err := s.db.Users().GetByID(s.ctx, id)
	s.Require().NoError(err)
	return user.PasswordHash
}

func (s *UserServiceSuite) reportOccurrence(ownerID, location string) *OccurrenceView {
	view, err := s.occurrences.Create(s.ctx, OccurrenceCreateInput{
		Title:       "Poste apagado",
		Description: "Lâmpada queimada",
		Location:    location,
		Type:        domain.TypeLighting,
		OwnerID:     ownerID,
	})
	s.Require().NoError(err)
	return view
}

func (s *UserServiceSuite) TestCreateAppliesDefaults() {
	view := s.createUser("Ana Souza", "ana@example.com")

	s.NotEmpty(view.ID)
	s.Equal(domain.RoleCitizen, view.Role)
	s.True(view.Active)
	s.False(view.CreatedAt.IsZero())
	s.Zero(view.OccurrenceCount)

	hash := s.storedHash(view.ID)
	s.NotEmpty(hash)
	s.NotEqual("segredo1", hash)
	s.NoError(auth.NewBcryptHasher(4).Compare(hash, "segredo1"))
	s.Equal(1, s.recorder.users[domain.RoleCitizen])
}

func (s *UserServiceSuite) TestCreateHonoursExplicitRoleAndActive() {
	view, err := s.users.Create(s.ctx, UserCreateInput{
		Name:   "Carlos Lima",
		Email:  "carlos@prefeitura.example",
		Secret: "segredo1",
		Role:   Some(domain.RoleStaff),
		Active: Some(false),
	})
	s.Require().NoError(err)
	s.Equal(domain.RoleStaff, view.Role)
	s.False(view.Active)
}

func (s *UserServiceSuite) TestCreateValidation() {
	cases := []struct {
		name  string
		input UserCreateInput
		field string
	}{
		{"short name", UserCreateInput{Name: "Al", Email: "al@example.com", Secret: "segredo1"}, "name"},
		{"blank name", UserCreateInput{Name: "     ", Email: "al@example.com", Secret: "segredo1"}, "name"},
		{"bad email", UserCreateInput{Name: "Alberto", Email: "not-an-email", Secret: "segredo1"}, "email"},
		{"short secret", UserCreateInput{Name: "Alberto", Email: "al@example.com", Secret: "12345"}, "secret"},
		{"missing secret", UserCreateInput{Name: "Alberto", Email: "al@example.com"}, "secret"},
		{"unknown role", UserCreateInput{Name: "Alberto", Email: "al@example.com", Secret: "segredo1", Role: Some(domain.Role("mayor"))}, "role"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.users.Create(s.ctx, tc.input)
			de := assertCode(s.T(), err, apperrors.CodeValidation)
			s.Contains(de.Details, tc.field)
		})
	}

	all, err := s.users.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *UserServiceSuite) TestCreateReportsEveryInvalidField() {
	_, err := s.users.Create(s.ctx, UserCreateInput{Name: "A", Email: "x", Secret: "1"})
	de := assertCode(s.T(), err, apperrors.CodeValidation)
	s.Len(de.Details, 3)
}

func (s *UserServiceSuite) TestCreateDuplicateEmailConflicts() {
	s.createUser("Ana Souza", "ana@example.com")

	_, err := s.users.Create(s.ctx, UserCreateInput{Name: "Ana Clara", Email: "ana@example.com", Secret: "outrasenha"})
	assertCode(s.T(), err, apperrors.CodeConflict)

	all, err := s.users.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *UserServiceSuite) TestCreateHasherFailureIsInternal() {
	ctrl := gomock.NewController(s.T())
	hasher := mocks.NewMockPasswordHasher(ctrl)
	hasher.EXPECT().Hash("segredo1").Return("", errors.New("entropy exhausted"))

	svc := NewUserService(UserDependencies{UserRepo: s.db.Users(), OccurrenceRepo: s.db.Occurrences(), Hasher: hasher})
	_, err := svc.Create(s.ctx, UserCreateInput{Name: "Ana Souza", Email: "ana@example.com", Secret: "segredo1"})
	assertCode(s.T(), err, apperrors.CodeInternal)

	exists, err := s.db.Users().ExistsByEmail(s.ctx, "ana@example.com")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *UserServiceSuite) TestCreateNeverHashesInvalidInput() {
	ctrl := gomock.NewController(s.T())
	hasher := mocks.NewMockPasswordHasher(ctrl)

	svc := NewUserService(UserDependencies{UserRepo: s.db.Users(), Hasher: hasher})
	_, err := svc.Create(s.ctx, UserCreateInput{Name: "Ana Souza", Email: "ana@example.com", Secret: "123"})
	assertCode(s.T(), err, apperrors.CodeValidation)
}

func (s *UserServiceSuite) TestLookups() {
	ana := s.createUser("Ana Souza", "ana@example.com")
	staff, err := s.users.Create(s.ctx, UserCreateInput{Name: "Bruno Reis", Email: "bruno@example.com", Secret: "segredo1", Role: Some(domain.RoleStaff)})
	s.Require().NoError(err)
	_, err = s.users.SetActive(s.ctx, staff.ID, false)
	s.Require().NoError(err)

	s.Run("get", func() {
		got, err := s.users.Get(s.ctx, ana.ID)
		s.Require().NoError(err)
		s.Equal("ana@example.com", got.Email)
	})

	s.Run("get by email is exact", func() {
		got, err := s.users.GetByEmail(s.ctx, "ana@example.com")
		s.Require().NoError(err)
		s.Equal(ana.ID, got.ID)

		_, err = s.users.GetByEmail(s.ctx, "ANA@example.com")
		assertCode(s.T(), err, apperrors.CodeNotFound)
	})

	s.Run("missing id", func() {
		_, err := s.users.Get(s.ctx, "missing")
		assertCode(s.T(), err, apperrors.CodeNotFound)
	})

	s.Run("list keeps store order", func() {
		all, err := s.users.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(all, 2)
		s.Equal(ana.ID, all[0].ID)
		s.Equal(staff.ID, all[1].ID)
	})

	s.Run("by role", func() {
		list, err := s.users.ListByRole(s.ctx, domain.RoleStaff)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(staff.ID, list[0].ID)

		list, err = s.users.ListByRole(s.ctx, domain.RoleAdmin)
		s.Require().NoError(err)
		s.Empty(list)

		_, err = s.users.ListByRole(s.ctx, domain.Role("mayor"))
		assertCode(s.T(), err, apperrors.CodeValidation)
	})

	s.Run("active only", func() {
		list, err := s.users.ListActive(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(ana.ID, list[0].ID)
	})
}

func (s *UserServiceSuite) TestViewCountsOccurrences() {
	ana := s.createUser("Ana Souza", "ana@example.com")
	s.reportOccurrence(ana.ID, "Rua A, 10")
	s.reportOccurrence(ana.ID, "Rua B, 20")

	got, err := s.users.Get(s.ctx, ana.ID)
	s.Require().NoError(err)
	s.Equal(2, got.OccurrenceCount)

	all, err := s.users.List(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, all[0].OccurrenceCount)
}

func (s *UserServiceSuite) TestUpdateSecretHandling() {
	ana := s.createUser("Ana Souza", "ana@example.com")
	original := s.storedHash(ana.ID)

	s.Run("omitted secret keeps hash", func() {
		_, err := s.users.Update(s.ctx, ana.ID, UserUpdateInput{Name: "Ana S. Souza", Email: "ana@example.com"})
		s.Require().NoError(err)
		s.Equal(original, s.storedHash(ana.ID))
	})

	s.Run("blank secret keeps hash", func() {
		_, err := s.users.Update(s.ctx, ana.ID, UserUpdateInput{Name: "Ana Souza", Email: "ana@example.com", Secret: Some("   ")})
		s.Require().NoError(err)
		s.Equal(original, s.storedHash(ana.ID))
	})

	s.Run("short secret is rejected", func() {
		_, err := s.users.Update(s.ctx, ana.ID, UserUpdateInput{Name: "Ana Souza", Email: "ana@example.com", Secret: Some("123")})
		assertCode(s.T(), err, apperrors.CodeValidation)
		s.Equal(original, s.storedHash(ana.ID))
	})

	s.Run("new secret is re-hashed", func() {
		_, err := s.users.Update(s.ctx, ana.ID, UserUpdateInput{Name: "Ana Souza", Email: "ana@example.com", Secret: Some("novasenha")})
		s.Require().NoError(err)
		updated := s.storedHash(ana.ID)
		s.NotEqual(original, updated)
		s.NoError(auth.NewBcryptHasher(4).Compare(updated, "novasenha"))
	})
}

func (s *UserServiceSuite) TestUpdatePartialFields() {
	created, err := s.users.Create(s.ctx, UserCreateInput{
		Name:   "Bruno Reis",
		Email:  "bruno@example.com",
		Secret: "segredo1",
		Role:   Some(domain.RoleStaff),
		Active: Some(false),
	})
	s.Require().NoError(err)

	view, err := s.users.Update(s.ctx, created.ID, UserUpdateInput{Name: "Bruno R.", Email: "bruno.reis@example.com"})
	s.Require().NoError(err)
	s.Equal("Bruno R.", view.Name)
	s.Equal("bruno.reis@example.com", view.Email)
	s.Equal(domain.RoleStaff, view.Role)
	s.False(view.Active)
	s.Equal(created.CreatedAt, view.CreatedAt)

	view, err = s.users.Update(s.ctx, created.ID, UserUpdateInput{
		Name:   "Bruno R.",
		Email:  "bruno.reis@example.com",
		Role:   Some(domain.RoleAdmin),
		Active: Some(true),
	})
	s.Require().NoError(err)
	s.Equal(domain.RoleAdmin, view.Role)
	s.True(view.Active)
}

func (s *UserServiceSuite) TestUpdateEmailUniqueness() {
	ana := s.createUser("Ana Souza", "ana@example.com")
	bruno := s.createUser("Bruno Reis", "bruno@example.com")

	_, err := s.users.Update(s.ctx, bruno.ID, UserUpdateInput{Name: "Bruno Reis", Email: "ana@example.com"})
	assertCode(s.T(), err, apperrors.CodeConflict)

	_, err = s.users.Update(s.ctx, ana.ID, UserUpdateInput{Name: "Ana Souza", Email: "ana@example.com"})
	s.NoError(err)

	_, err = s.users.Update(s.ctx, "missing", UserUpdateInput{Name: "Ghost User", Email: "ghost@example.com"})
	assertCode(s.T(), err, apperrors.CodeNotFound)
}

func (s *UserServiceSuite) TestSetActive() {
	ana := s.createUser("Ana Souza", "ana@example.com")

	view, err := s.users.SetActive(s.ctx, ana.ID, false)
	s.Require().NoError(err)
	s.False(view.Active)

	_, err = s.users.SetActive(s.ctx, "missing", true)
	assertCode(s.T(), err, apperrors.CodeNotFound)
}

func (s *UserServiceSuite) TestDeleteCascadesOccurrences() {
	ana := s.createUser("Ana Souza", "ana@example.com")
	bruno := s.createUser("Bruno Reis", "bruno@example.com")
	for i := 0; i < 3; i++ {
		s.reportOccurrence(ana.ID, "Rua A, 10")
	}
	kept := s.reportOccurrence(bruno.ID, "Rua B, 20")
	drain(s.dispatcher)

	s.Require().NoError(s.users.Delete(s.ctx, ana.ID))

	owned, err := s.occurrences.ListByOwner(s.ctx, ana.ID)
	s.Require().NoError(err)
	s.Empty(owned)

	all, err := s.occurrences.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal(kept.ID, all[0].ID)

	queued := drain(s.dispatcher)
	s.Require().Len(queued, 1)
	s.Equal(events.EventUserDeleted, queued[0].Type)
	s.Equal(ana.ID, queued[0].UserID)

	err = s.users.Delete(s.ctx, ana.ID)
	assertCode(s.T(), err, apperrors.CodeNotFound)
}

type failingUsers struct {
	repository.UserRepository
}

func (failingUsers) List(context.Context, repository.UserFilter) ([]domain.User, error) {
	return nil, errors.New("connection reset")
}

func (s *UserServiceSuite) TestStoreFailureIsInternal() {
	svc := NewUserService(UserDependencies{UserRepo: failingUsers{s.db.Users()}, Clock: func() time.Time { return time.Time{} }})
	_, err := svc.List(s.ctx)
	de := assertCode(s.T(), err, apperrors.CodeInternal)
	s.Equal("internal server error", de.Message)
}
