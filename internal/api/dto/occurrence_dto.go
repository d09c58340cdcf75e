package dto

import "time"

// CreateOccurrenceRequest payload for POST /occurrences.
type CreateOccurrenceRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Type        string  `json:"type"`
	Status      *string `json:"status,omitempty"`
	UserID      string  `json:"user_id"`
}

// UpdateOccurrenceRequest payload for PUT /occurrences/:id.
type UpdateOccurrenceRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Type        string  `json:"type"`
	Status      *string `json:"status,omitempty"`
}

// OwnerSummary identifies the reporting user.
type OwnerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OccurrenceResponse is the public representation of an occurrence.
type OccurrenceResponse struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	Type        string       `json:"type"`
	Status      string       `json:"status"`
	Owner       OwnerSummary `json:"owner"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
