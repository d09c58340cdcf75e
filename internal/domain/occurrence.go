package domain

import (
	"fmt"
	"time"
)

// OccurrenceStatus enumerates lifecycle states for occurrences.
// Any status may move to any other status.
type OccurrenceStatus string

const (
	StatusOpen       OccurrenceStatus = "open"
	StatusInProgress OccurrenceStatus = "in_progress"
	StatusResolved   OccurrenceStatus = "resolved"
	StatusClosed     OccurrenceStatus = "closed"
)

// Statuses lists every valid status.
var Statuses = []OccurrenceStatus{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// ParseStatus converts raw input into an OccurrenceStatus.
func ParseStatus(raw string) (OccurrenceStatus, error) {
	for _, status := range Statuses {
		if string(status) == raw {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", raw)
}

// Valid reports whether s is one of the enumerated statuses.
func (s OccurrenceStatus) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// OccurrenceType classifies the reported incident.
type OccurrenceType string

const (
	TypeLighting  OccurrenceType = "lighting"
	TypePothole   OccurrenceType = "pothole"
	TypeLitter    OccurrenceType = "litter"
	TypeVandalism OccurrenceType = "vandalism"
	TypeOther     OccurrenceType = "other"
)

// OccurrenceTypes lists every valid type.
var OccurrenceTypes = []OccurrenceType{TypeLighting, TypePothole, TypeLitter, TypeVandalism, TypeOther}

// ParseOccurrenceType converts raw input into an OccurrenceType.
func ParseOccurrenceType(raw string) (OccurrenceType, error) {
	for _, t := range OccurrenceTypes {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid occurrence type %q", raw)
}

// Valid reports whether t is one of the enumerated types.
func (t OccurrenceType) Valid() bool {
	_, err := ParseOccurrenceType(string(t))
	return err == nil
}

// Occurrence is a municipal incident reported by a user.
type Occurrence struct {
	ID          string
	Title       string
	Description string
	Location    string
	Type        OccurrenceType
	Status      OccurrenceStatus
	OwnerID     string
	// Owner is the resolved owning user. Stores populate it on every read.
	Owner     *User
	CreatedAt time.Time
	UpdatedAt time.Time
}
