package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/conectapg/occurrence-service/internal/domain"
	"github.com/conectapg/occurrence-service/internal/events"
	"github.com/conectapg/occurrence-service/internal/repository"
	apperrors "github.com/conectapg/occurrence-service/pkg/util"
)

// OccurrenceService coordinates the occurrence lifecycle.
type OccurrenceService struct {
	occurrences repository.OccurrenceRepository
	users       repository.UserRepository
	events      publisher
	metrics     Recorder
	logger      *zap.Logger
	now         Clock
}

// OccurrenceDependencies bundles collaborators for the occurrence service.
type OccurrenceDependencies struct {
	OccurrenceRepo repository.OccurrenceRepository
	UserRepo       repository.UserRepository
	Dispatcher     events.Dispatcher
	Metrics        Recorder
	Logger         *zap.Logger
	Clock          Clock
}

// OccurrenceCreateInput describes a new report. Status defaults to open.
type OccurrenceCreateInput struct {
	Title       string
	Description string
	Location    string
	Type        domain.OccurrenceType
	Status      Optional[domain.OccurrenceStatus]
	OwnerID     string
}

// OccurrenceUpdateInput rewrites the descriptive fields of a report. The
// owner cannot change; status changes only when set.
type OccurrenceUpdateInput struct {
	Title       string
	Description string
	Location    string
	Type        domain.OccurrenceType
	Status      Optional[domain.OccurrenceStatus]
}

// NewOccurrenceService constructs the service.
func NewOccurrenceService(deps OccurrenceDependencies) *OccurrenceService {
	logger := orNop(deps.Logger)
	return &OccurrenceService{
		occurrences: deps.OccurrenceRepo,
		users:       deps.UserRepo,
		events:      publisher{dispatcher: deps.Dispatcher, logger: logger},
		metrics:     orNopRecorder(deps.Metrics),
		logger:      logger,
		now:         orSystemClock(deps.Clock),
	}
}

// List returns every occurrence, newest first.
func (s *OccurrenceService) List(ctx context.Context) ([]OccurrenceView, error) {
	return s.list(ctx, repository.OccurrenceFilter{})
}

// ListByStatus returns occurrences currently in status.
func (s *OccurrenceService) ListByStatus(ctx context.Context, status domain.OccurrenceStatus) ([]OccurrenceView, error) {
	if err := check(rule{field: "status", value: status, tag: "required,enum"}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.OccurrenceFilter{Status: &status})
}

// ListByOwner returns occurrences reported by ownerID.
func (s *OccurrenceService) ListByOwner(ctx context.Context, ownerID string) ([]OccurrenceView, error) {
	return s.list(ctx, repository.OccurrenceFilter{OwnerID: &ownerID})
}

// ListByLocation returns occurrences whose location contains fragment.
// Matching is case-sensitive.
func (s *OccurrenceService) ListByLocation(ctx context.Context, fragment string) ([]OccurrenceView, error) {
	return s.list(ctx, repository.OccurrenceFilter{LocationContains: &fragment})
}

// Get returns a single occurrence.
func (s *OccurrenceService) Get(ctx context.Context, id string) (*OccurrenceView, error) {
	occurrence, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := newOccurrenceView(*occurrence)
	return &view, nil
}

// Create records a new occurrence for an existing owner.
func (s *OccurrenceService) Create(ctx context.Context, input OccurrenceCreateInput) (*OccurrenceView, error) {
	occurrence := &domain.Occurrence{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		Type:        input.Type,
		Status:      domain.StatusOpen,
		OwnerID:     input.OwnerID,
	}
	if status, ok := input.Status.Get(); ok {
		occurrence.Status = status
	}

	rules := append(contentRules(occurrence),
		rule{field: "status", value: occurrence.Status, tag: "required,enum"},
		rule{field: "owner_id", value: occurrence.OwnerID, tag: "required,notblank"},
	)
	if err := check(rules...); err != nil {
		return nil, err
	}

	owner, err := s.users.GetByID(ctx, occurrence.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ownerNotFound(occurrence.OwnerID)
		}
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	occurrence.CreatedAt = now
	occurrence.UpdatedAt = now
	if err := s.occurrences.Create(ctx, occurrence); err != nil {
		if errors.Is(err, repository.ErrOwnerNotFound) {
			return nil, ownerNotFound(occurrence.OwnerID)
		}
		return nil, apperrors.NewInternalError(err)
	}
	occurrence.Owner = owner

	s.metrics.OccurrenceCreated(occurrence.Type)
	s.events.publish(ctx, events.Event{
		Type:         events.EventOccurrenceCreated,
		OccurrenceID: occurrence.ID,
		UserID:       occurrence.OwnerID,
		Timestamp:    now,
		Payload: events.OccurrenceCreatedPayload{
			Title:    occurrence.Title,
			Type:     occurrence.Type,
			Status:   occurrence.Status,
			Location: occurrence.Location,
		},
	})

	view := newOccurrenceView(*occurrence)
	return &view, nil
}

// Update rewrites an occurrence's descriptive fields.
func (s *OccurrenceService) Update(ctx context.Context, id string, input OccurrenceUpdateInput) (*OccurrenceView, error) {
	changes := domain.Occurrence{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		Type:        input.Type,
	}
	rules := contentRules(&changes)
	status, statusSet := input.Status.Get()
	if statusSet {
		rules = append(rules, rule{field: "status", value: status, tag: "required,enum"})
	}
	if err := check(rules...); err != nil {
		return nil, err
	}

	occurrence, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := occurrence.Status

	occurrence.Title = changes.Title
	occurrence.Description = changes.Description
	occurrence.Location = changes.Location
	occurrence.Type = changes.Type
	if statusSet {
		occurrence.Status = status
	}
	occurrence.UpdatedAt = s.touch(occurrence.UpdatedAt)

	if err := s.save(ctx, occurrence); err != nil {
		return nil, err
	}

	s.events.publish(ctx, events.Event{
		Type:         events.EventOccurrenceUpdated,
		OccurrenceID: occurrence.ID,
		UserID:       occurrence.OwnerID,
		Timestamp:    occurrence.UpdatedAt,
	})
	if occurrence.Status != previous {
		s.statusChanged(ctx, occurrence, previous)
	}

	view := newOccurrenceView(*occurrence)
	return &view, nil
}

// SetStatus moves an occurrence to status. Every transition is allowed.
func (s *OccurrenceService) SetStatus(ctx context.Context, id string, status domain.OccurrenceStatus) (*OccurrenceView, error) {
	if err := check(rule{field: "status", value: status, tag: "required,enum"}); err != nil {
		return nil, err
	}

	occurrence, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := occurrence.Status
	occurrence.Status = status
	occurrence.UpdatedAt = s.touch(occurrence.UpdatedAt)

	if err := s.save(ctx, occurrence); err != nil {
		return nil, err
	}
	s.statusChanged(ctx, occurrence, previous)

	view := newOccurrenceView(*occurrence)
	return &view, nil
}

// Delete removes an occurrence.
func (s *OccurrenceService) Delete(ctx context.Context, id string) error {
	if err := s.occurrences.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return occurrenceNotFound(id)
		}
		return apperrors.NewInternalError(err)
	}
	s.events.publish(ctx, events.Event{
		Type:         events.EventOccurrenceDeleted,
		OccurrenceID: id,
		Timestamp:    s.now(),
	})
	return nil
}

func (s *OccurrenceService) list(ctx context.Context, filter repository.OccurrenceFilter) ([]OccurrenceView, error) {
	list, err := s.occurrences.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return newOccurrenceViews(list), nil
}

func (s *OccurrenceService) load(ctx context.Context, id string) (*domain.Occurrence, error) {
	occurrence, err := s.occurrences.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, occurrenceNotFound(id)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return occurrence, nil
}

func (s *OccurrenceService) save(ctx context.Context, occurrence *domain.Occurrence) error {
	if err := s.occurrences.Update(ctx, occurrence); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return occurrenceNotFound(occurrence.ID)
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

// touch returns the next updated_at, always strictly after previous.
func (s *OccurrenceService) touch(previous time.Time) time.Time {
	now := s.now()
	if !now.After(previous) {
		now = previous.Add(time.Microsecond)
	}
	return now
}

func (s *OccurrenceService) statusChanged(ctx context.Context, occurrence *domain.Occurrence, previous domain.OccurrenceStatus) {
	s.metrics.OccurrenceStatusChanged(occurrence.Status)
	s.logger.Info("occurrence status changed",
		zap.String("occurrence_id", occurrence.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(occurrence.Status)))
	s.events.publish(ctx, events.Event{
		Type:         events.EventOccurrenceStatusChanged,
		OccurrenceID: occurrence.ID,
		UserID:       occurrence.OwnerID,
		Timestamp:    occurrence.UpdatedAt,
		Payload: events.OccurrenceStatusChangedPayload{
			OldStatus: previous,
			NewStatus: occurrence.Status,
		},
	})
}

func contentRules(o *domain.Occurrence) []rule {
	return []rule{
		{field: "title", value: o.Title, tag: "required,notblank"},
		{field: "description", value: o.Description, tag: "required,notblank"},
		{field: "location", value: o.Location, tag: "required,notblank"},
		{field: "type", value: o.Type, tag: "required,enum"},
	}
}

func occurrenceNotFound(id string) error {
	return apperrors.NewNotFound("occurrence", map[string]any{"occurrence_id": id})
}

func ownerNotFound(id string) error {
	return apperrors.NewNotFound("owner", map[string]any{"owner_id": id})
}
