package service

import (
	"time"

	"github.com/conectapg/occurrence-service/internal/domain"
)

// UserView is the API-safe projection of a user. It never carries the hash.
type UserView struct {
	ID              string
	Name            string
	Email           string
	Role            domain.Role
	Active          bool
	CreatedAt       time.Time
	OccurrenceCount int
}

// OwnerSummary identifies the user who reported an occurrence.
type OwnerSummary struct {
	ID    string
	Name  string
	Email string
}

// OccurrenceView is the projection of an occurrence with its owner.
type OccurrenceView struct {
	ID          string
	Title       string
	Description string
	Location    string
	Type        domain.OccurrenceType
	Status      domain.OccurrenceStatus
	Owner       OwnerSummary
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func newUserView(user domain.User, occurrenceCount int) UserView {
	return UserView{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		Active:          user.Active,
		CreatedAt:       user.CreatedAt,
		OccurrenceCount: occurrenceCount,
	}
}

func newOccurrenceView(o domain.Occurrence) OccurrenceView {
	owner := OwnerSummary{ID: o.OwnerID}
	if o.Owner != nil {
		owner.Name = o.Owner.Name
		owner.Email = o.Owner.Email
	}
	return OccurrenceView{
		ID:          o.ID,
		Title:       o.Title,
		Description: o.Description,
		Location:    o.Location,
		Type:        o.Type,
		Status:      o.Status,
		Owner:       owner,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func newOccurrenceViews(list []domain.Occurrence) []OccurrenceView {
	views := make([]OccurrenceView, 0, len(list))
	for _, o := range list {
		views = append(views, newOccurrenceView(o))
	}
	return views
}
