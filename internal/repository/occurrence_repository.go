package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conectapg/occurrence-service/internal/domain"
)

// OccurrenceFilter narrows occurrence listings. Nil fields are ignored.
// LocationContains is a case-sensitive substring match.
type OccurrenceFilter struct {
	Status           *domain.OccurrenceStatus
	OwnerID          *string
	LocationContains *string
}

// OccurrenceRepository encapsulates occurrence persistence. Reads always
// populate Occurrence.Owner and List orders by creation time, newest first.
type OccurrenceRepository interface {
	Create(ctx context.Context, occurrence *domain.Occurrence) error
	Update(ctx context.Context, occurrence *domain.Occurrence) error
	GetByID(ctx context.Context, id string) (*domain.Occurrence, error)
	List(ctx context.Context, filter OccurrenceFilter) ([]domain.Occurrence, error)
	CountByOwners(ctx context.Context, ownerIDs []string) (map[string]int, error)
	Delete(ctx context.Context, id string) error
}

type occurrenceRepository struct {
	pool *pgxpool.Pool
}

// NewOccurrenceRepository instantiates repository.
func NewOccurrenceRepository(pool *pgxpool.Pool) OccurrenceRepository {
	return &occurrenceRepository{pool: pool}
}

const occurrenceSelect = `
        SELECT o.id::text, o.title, o.description, o.location, o.type, o.status, o.user_id::text,
               o.created_at, o.updated_at,
               u.id::text, u.name, u.email, u.password_hash, u.role, u.active, u.created_at
        FROM occurrences o
        JOIN users u ON u.id = o.user_id`

func (r *occurrenceRepository) Create(ctx context.Context, occurrence *domain.Occurrence) error {
	const query = `
        INSERT INTO occurrences (title, description, location, type, status, user_id, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id::text`
	err := r.pool.QueryRow(ctx, query,
		occurrence.Title,
		occurrence.Description,
		occurrence.Location,
		occurrence.Type,
		occurrence.Status,
		occurrence.OwnerID,
		occurrence.CreatedAt,
		occurrence.UpdatedAt,
	).Scan(&occurrence.ID)
	switch pgCode(err) {
	case pgForeignKeyViolation, pgInvalidText:
		return ErrOwnerNotFound
	}
	return err
}

func (r *occurrenceRepository) Update(ctx context.Context, occurrence *domain.Occurrence) error {
	const query = `
        UPDATE occurrences SET title=$1, description=$2, location=$3, type=$4, status=$5, updated_at=$6
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		occurrence.Title,
		occurrence.Description,
		occurrence.Location,
		occurrence.Type,
		occurrence.Status,
		occurrence.UpdatedAt,
		occurrence.ID,
	)
	if err != nil {
		return lookupError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *occurrenceRepository) GetByID(ctx context.Context, id string) (*domain.Occurrence, error) {
	var occurrence domain.Occurrence
	if err := scanOccurrence(r.pool.QueryRow(ctx, occurrenceSelect+` WHERE o.id=$1`, id), &occurrence); err != nil {
		return nil, lookupError(err)
	}
	return &occurrence, nil
}

func (r *occurrenceRepository) List(ctx context.Context, filter OccurrenceFilter) ([]domain.Occurrence, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("o.status=$%d", len(args)))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("o.user_id::text=$%d", len(args)))
	}
	if filter.LocationContains != nil {
		// strpos keeps % and _ literal and is case-sensitive.
		args = append(args, *filter.LocationContains)
		clauses = append(clauses, fmt.Sprintf("strpos(o.location, $%d) > 0", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY o.created_at DESC, o.seq DESC`,
		occurrenceSelect, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Occurrence{}
	for rows.Next() {
		var occurrence domain.Occurrence
		if err := scanOccurrence(rows, &occurrence); err != nil {
			return nil, err
		}
		result = append(result, occurrence)
	}
	return result, rows.Err()
}

func (r *occurrenceRepository) CountByOwners(ctx context.Context, ownerIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return counts, nil
	}

	const query = `
        SELECT user_id::text, COUNT(*)
        FROM occurrences
        WHERE user_id::text = ANY($1)
        GROUP BY user_id`
	rows, err := r.pool.Query(ctx, query, ownerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ownerID string
			count   int
		)
		if err := rows.Scan(&ownerID, &count); err != nil {
			return nil, err
		}
		counts[ownerID] = count
	}
	return counts, rows.Err()
}

func (r *occurrenceRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM occurrences WHERE id=$1`, id)
	if err != nil {
		return lookupError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOccurrence(row pgx.Row, occurrence *domain.Occurrence) error {
	var owner domain.User
	if err := row.Scan(
		&occurrence.ID,
		&occurrence.Title,
		&occurrence.Description,
		&occurrence.Location,
		&occurrence.Type,
		&occurrence.Status,
		&occurrence.OwnerID,
		&occurrence.CreatedAt,
		&occurrence.UpdatedAt,
		&owner.ID,
		&owner.Name,
		&owner.Email,
		&owner.PasswordHash,
		&owner.Role,
		&owner.Active,
		&owner.CreatedAt,
	); err != nil {
		return err
	}
	occurrence.Owner = &owner
	return nil
}
