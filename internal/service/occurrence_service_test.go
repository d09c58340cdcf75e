package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/conectapg/occurrence-service/internal/auth"
	"github.com/conectapg/occurrence-service/internal/domain"
	"github.com/conectapg/occurrence-service/internal/events"
	"github.com/conectapg/occurrence-service/internal/repository"
	"github.com/conectapg/occurrence-service/internal/repository/memory"
	apperrors "github.com/conectapg/occurrence-service/pkg/util"
)

type OccurrenceServiceSuite struct {
	suite.Suite
	ctx         context.Context
	db          *memory.DB
	dispatcher  *events.AsyncDispatcher
	recorder    *countingRecorder
	users       *UserService
	occurrences *OccurrenceService
	owner       *UserView
}

func TestOccurrenceServiceSuite(t *testing.T) {
	suite.Run(t, new(OccurrenceServiceSuite))
}

func (s *OccurrenceServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = memory.New()
	s.dispatcher = events.NewAsyncDispatcher(64)
	s.recorder = newCountingRecorder()
	clock := newStepClock()

	s.users = NewUserService(UserDependencies{
		UserRepo:       s.db.Users(),
		OccurrenceRepo: s.db.Occurrences(),
		Hasher:         auth.NewBcryptHasher(4),
		Clock:          clock.Now,
	})
	s.occurrences = NewOccurrenceService(OccurrenceDependencies{
		OccurrenceRepo: s.db.Occurrences(),
		UserRepo:       s.db.Users(),
		Dispatcher:     s.dispatcher,
		Metrics:        s.recorder,
		Clock:          clock.Now,
	})

	owner, err := s.users.Create(s.ctx, UserCreateInput{Name: "Ana Souza", Email: "ana@example.com", Secret: "segredo1"})
	s.Require().NoError(err)
	s.owner = owner
}

func (s *OccurrenceServiceSuite) report(location string, status Optional[domain.OccurrenceStatus]) *OccurrenceView {
	view, err := s.occurrences.Create(s.ctx, OccurrenceCreateInput{
		Title:       "Buraco na rua",
		Description: "Buraco grande perto da escola",
		Location:    location,
		Type:        domain.TypePothole,
		Status:      status,
		OwnerID:     s.owner.ID,
	})
	s.Require().NoError(err)
	return view
}

func (s *OccurrenceServiceSuite) TestReportAndTrackScenario() {
	byEmail, err := s.users.GetByEmail(s.ctx, "ana@example.com")
	s.Require().NoError(err)
	s.Equal(s.owner.ID, byEmail.ID)

	created, err := s.occurrences.Create(s.ctx, OccurrenceCreateInput{
		Title:       "Buraco na rua",
		Description: "Buraco grande",
		Location:    "Rua A, 10",
		Type:        domain.TypePothole,
		OwnerID:     s.owner.ID,
	})
	s.Require().NoError(err)
	s.Equal("ana@example.com", created.Owner.Email)
	s.Equal("Ana Souza", created.Owner.Name)
	s.Equal(domain.StatusOpen, created.Status)
	s.Equal(created.CreatedAt, created.UpdatedAt)

	_, err = s.occurrences.SetStatus(s.ctx, created.ID, domain.StatusInProgress)
	s.Require().NoError(err)

	got, err := s.occurrences.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusInProgress, got.Status)
	s.True(got.UpdatedAt.After(got.CreatedAt))
	s.Equal(created.CreatedAt, got.CreatedAt)
}

func (s *OccurrenceServiceSuite) TestCreateWithUnknownOwner() {
	_, err := s.occurrences.Create(s.ctx, OccurrenceCreateInput{
		Title:       "Lixo acumulado",
		Description: "Sacos na calçada",
		Location:    "Rua B",
		Type:        domain.TypeLitter,
		OwnerID:     "00000000-0000-0000-0000-000000000000",
	})
	de := assertCode(s.T(), err, apperrors.CodeNotFound)
	s.Equal("owner not found", de.Message)

	all, err := s.occurrences.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
	s.Empty(drain(s.dispatcher))
}

func (s *OccurrenceServiceSuite) TestCreateValidation() {
	cases := []struct {
		name  string
		input OccurrenceCreateInput
		field string
	}{
		{"blank title", OccurrenceCreateInput{Title: "  ", Description: "d", Location: "l", Type: domain.TypeOther, OwnerID: "x"}, "title"},
		{"blank description", OccurrenceCreateInput{Title: "t", Location: "l", Type: domain.TypeOther, OwnerID: "x"}, "description"},
		{"blank location", OccurrenceCreateInput{Title: "t", Description: "d", Type: domain.TypeOther, OwnerID: "x"}, "location"},
		{"missing type", OccurrenceCreateInput{Title: "t", Description: "d", Location: "l", OwnerID: "x"}, "type"},
		{"unknown type", OccurrenceCreateInput{Title: "t", Description: "d", Location: "l", Type: "flood", OwnerID: "x"}, "type"},
		{"unknown status", OccurrenceCreateInput{Title: "t", Description: "d", Location: "l", Type: domain.TypeOther, Status: Some(domain.OccurrenceStatus("lost")), OwnerID: "x"}, "status"},
		{"missing owner", OccurrenceCreateInput{Title: "t", Description: "d", Location: "l", Type: domain.TypeOther}, "owner_id"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.occurrences.Create(s.ctx, tc.input)
			de := assertCode(s.T(), err, apperrors.CodeValidation)
			s.Contains(de.Details, tc.field)
		})
	}
}

func (s *OccurrenceServiceSuite) TestCreateWithExplicitStatus() {
	view := s.report("Rua A", Some(domain.StatusResolved))
	s.Equal(domain.StatusResolved, view.Status)
	s.Equal(1, s.recorder.occurrences[domain.TypePothole])

	queued := drain(s.dispatcher)
	s.Require().Len(queued, 1)
	s.Equal(events.EventOccurrenceCreated, queued[0].Type)
	s.Equal(view.ID, queued[0].OccurrenceID)
	payload, ok := queued[0].Payload.(events.OccurrenceCreatedPayload)
	s.Require().True(ok)
	s.Equal(domain.StatusResolved, payload.Status)
}

func (s *OccurrenceServiceSuite) TestSetStatusAcceptsAnyTransition() {
	view := s.report("Rua A", None[domain.OccurrenceStatus]())
	drain(s.dispatcher)

	for _, status := range []domain.OccurrenceStatus{domain.StatusClosed, domain.StatusOpen, domain.StatusResolved, domain.StatusInProgress, domain.StatusInProgress} {
		_, err := s.occurrences.SetStatus(s.ctx, view.ID, status)
		s.Require().NoError(err)
	}

	closed, err := s.occurrences.ListByStatus(s.ctx, domain.StatusClosed)
	s.Require().NoError(err)
	s.Empty(closed)

	inProgress, err := s.occurrences.ListByStatus(s.ctx, domain.StatusInProgress)
	s.Require().NoError(err)
	s.Require().Len(inProgress, 1)
	s.Equal(view.ID, inProgress[0].ID)

	s.Len(drain(s.dispatcher), 5)
	s.Equal(2, s.recorder.statusChanges[domain.StatusInProgress])

	_, err = s.occurrences.SetStatus(s.ctx, view.ID, domain.OccurrenceStatus("lost"))
	assertCode(s.T(), err, apperrors.CodeValidation)

	_, err = s.occurrences.SetStatus(s.ctx, "missing", domain.StatusClosed)
	assertCode(s.T(), err, apperrors.CodeNotFound)
}

func (s *OccurrenceServiceSuite) TestOpenToClosedDirectly() {
	view := s.report("Rua A", None[domain.OccurrenceStatus]())

	_, err := s.occurrences.SetStatus(s.ctx, view.ID, domain.StatusClosed)
	s.Require().NoError(err)

	open, err := s.occurrences.ListByStatus(s.ctx, domain.StatusOpen)
	s.Require().NoError(err)
	s.Empty(open)

	closed, err := s.occurrences.ListByStatus(s.ctx, domain.StatusClosed)
	s.Require().NoError(err)
	s.Len(closed, 1)
}

func (s *OccurrenceServiceSuite) TestUpdate() {
	view := s.report("Rua A", Some(domain.StatusInProgress))
	drain(s.dispatcher)

	s.Run("without status keeps it", func() {
		updated, err := s.occurrences.Update(s.ctx, view.ID, OccurrenceUpdateInput{
			Title:       "Cratera na rua",
			Description: "Cresceu",
			Location:    "Rua A, 12",
			Type:        domain.TypeOther,
		})
		s.Require().NoError(err)
		s.Equal("Cratera na rua", updated.Title)
		s.Equal(domain.TypeOther, updated.Type)
		s.Equal(domain.StatusInProgress, updated.Status)
		s.Equal(s.owner.ID, updated.Owner.ID)
		s.True(updated.UpdatedAt.After(view.UpdatedAt))
		s.Equal(view.CreatedAt, updated.CreatedAt)
		s.Equal([]events.EventType{events.EventOccurrenceUpdated}, eventTypes(drain(s.dispatcher)))
	})

	s.Run("with status changes it", func() {
		updated, err := s.occurrences.Update(s.ctx, view.ID, OccurrenceUpdateInput{
			Title:       "Cratera na rua",
			Description: "Tapada",
			Location:    "Rua A, 12",
			Type:        domain.TypePothole,
			Status:      Some(domain.StatusResolved),
		})
		s.Require().NoError(err)
		s.Equal(domain.StatusResolved, updated.Status)
		s.Equal(
			[]events.EventType{events.EventOccurrenceUpdated, events.EventOccurrenceStatusChanged},
			eventTypes(drain(s.dispatcher)),
		)
	})

	s.Run("missing", func() {
		_, err := s.occurrences.Update(s.ctx, "missing", OccurrenceUpdateInput{Title: "t", Description: "d", Location: "l", Type: domain.TypeOther})
		assertCode(s.T(), err, apperrors.CodeNotFound)
	})

	s.Run("blank fields", func() {
		_, err := s.occurrences.Update(s.ctx, view.ID, OccurrenceUpdateInput{Type: domain.TypeOther})
		de := assertCode(s.T(), err, apperrors.CodeValidation)
		s.Len(de.Details, 3)
	})
}

func (s *OccurrenceServiceSuite) TestListingsAndOrdering() {
	first := s.report("Rua A, 10", None[domain.OccurrenceStatus]())
	second := s.report("Avenida Brasil, 200", None[domain.OccurrenceStatus]())
	third := s.report("rua a, 30", None[domain.OccurrenceStatus]())

	all, err := s.occurrences.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
	s.Equal("ana@example.com", all[0].Owner.Email)

	byLocation, err := s.occurrences.ListByLocation(s.ctx, "Rua A")
	s.Require().NoError(err)
	s.Require().Len(byLocation, 1)
	s.Equal(first.ID, byLocation[0].ID)

	none, err := s.occurrences.ListByLocation(s.ctx, "Praça")
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)

	byOwner, err := s.occurrences.ListByOwner(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Len(byOwner, 3)

	nobody, err := s.occurrences.ListByOwner(s.ctx, "missing")
	s.Require().NoError(err)
	s.Empty(nobody)

	_, err = s.occurrences.ListByStatus(s.ctx, domain.OccurrenceStatus(""))
	assertCode(s.T(), err, apperrors.CodeValidation)
}

func (s *OccurrenceServiceSuite) TestDelete() {
	view := s.report("Rua A", None[domain.OccurrenceStatus]())
	drain(s.dispatcher)

	s.Require().NoError(s.occurrences.Delete(s.ctx, view.ID))
	s.Equal([]events.EventType{events.EventOccurrenceDeleted}, eventTypes(drain(s.dispatcher)))

	_, err := s.occurrences.Get(s.ctx, view.ID)
	assertCode(s.T(), err, apperrors.CodeNotFound)

	err = s.occurrences.Delete(s.ctx, view.ID)
	assertCode(s.T(), err, apperrors.CodeNotFound)

	_, err = s.db.Occurrences().GetByID(s.ctx, view.ID)
	s.ErrorIs(err, repository.ErrNotFound)
}
