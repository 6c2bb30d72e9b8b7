package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"walletfy-api/internal/entities"
)

var ErrEventNotFound = errors.New("event not found")

// SortOrder orders event listings by date
type SortOrder int

const (
	SortDateDesc SortOrder = iota
	SortDateAsc
)

// EventFilter narrows an event listing. UserID is mandatory.
type EventFilter struct {
	UserID string
	Type   string // empty means both types
	From   *int64 // inclusive lower bound on Date
	To     *int64 // inclusive upper bound on Date
}

// EventPatch carries the fields of a partial update; nil fields stay unchanged.
type EventPatch struct {
	Name        *string
	Description *string
	Date        *int64
	Amount      *float64
	Type        *string
	Attachment  *string
	Category    *string
}

// Apply copies the supplied fields onto event
func (p EventPatch) Apply(event *entities.Event) {
	if p.Name != nil {
		event.Name = *p.Name
	}
	if p.Description != nil {
		event.Description = *p.Description
	}
	if p.Date != nil {
		event.Date = *p.Date
	}
	if p.Amount != nil {
		event.Amount = *p.Amount
	}
	if p.Type != nil {
		event.Type = *p.Type
	}
	if p.Attachment != nil {
		event.Attachment = *p.Attachment
	}
	if p.Category != nil {
		event.Category = *p.Category
	}
}

// EventRepository defines the interface for event storage.
// Lookups that take a userID only match events owned by that user.
type EventRepository interface {
	Create(ctx context.Context, event *entities.Event) error
	FindByID(ctx context.Context, userID, id string) (*entities.Event, error)
	FindOwner(ctx context.Context, id string) (string, error)
	List(ctx context.Context, filter EventFilter, order SortOrder) ([]*entities.Event, error)
	Update(ctx context.Context, userID, id string, patch EventPatch) (*entities.Event, error)
	Delete(ctx context.Context, userID, id string) error
}

// sortEvents orders events by date, keeping insertion order for equal dates
func sortEvents(events []*entities.Event, order SortOrder) {
	sort.SliceStable(events, func(i, j int) bool {
		if order == SortDateAsc {
			return events[i].Date < events[j].Date
		}
		return events[i].Date > events[j].Date
	})
}

type eventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a PostgreSQL backed event repository
func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, name, description, date, amount, type, attachment, category, user_id, created_at, updated_at`

// Create inserts a new event into the database
func (r *eventRepository) Create(ctx context.Context, event *entities.Event) error {
	now := time.Now().UTC()
	event.ID = uuid.NewString()
	event.CreatedAt = now
	event.UpdatedAt = now

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Name,
		event.Description,
		event.Date,
		event.Amount,
		event.Type,
		event.Attachment,
		event.Category,
		event.UserID,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// FindByID finds an event owned by userID
func (r *eventRepository) FindByID(ctx context.Context, userID, id string) (*entities.Event, error) {
	if !validUUIDs(userID, id) {
		return nil, ErrEventNotFound
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND user_id = $2`
	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return event, nil
}

// FindOwner returns the owner of an event regardless of who asks
func (r *eventRepository) FindOwner(ctx context.Context, id string) (string, error) {
	if !validUUIDs(id) {
		return "", ErrEventNotFound
	}

	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM events WHERE id = $1`, id).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", ErrEventNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to find event owner: %w", err)
	}
	return owner, nil
}

// List returns the events matching filter
func (r *eventRepository) List(ctx context.Context, filter EventFilter, order SortOrder) ([]*entities.Event, error) {
	if !validUUIDs(filter.UserID) {
		return []*entities.Event{}, nil
	}

	conditions := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}

	direction := "DESC"
	if order == SortDateAsc {
		direction = "ASC"
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY date ` + direction + `, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*entities.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// Update applies patch to an event owned by userID and returns the stored result
func (r *eventRepository) Update(ctx context.Context, userID, id string, patch EventPatch) (*entities.Event, error) {
	if !validUUIDs(userID, id) {
		return nil, ErrEventNotFound
	}

	query := `
		UPDATE events SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			date = COALESCE($5, date),
			amount = COALESCE($6, amount),
			type = COALESCE($7, type),
			attachment = COALESCE($8, attachment),
			category = COALESCE($9, category),
			updated_at = $10
		WHERE id = $1 AND user_id = $2
		RETURNING ` + eventColumns

	event, err := scanEvent(r.db.QueryRowContext(ctx, query,
		id,
		userID,
		patch.Name,
		patch.Description,
		patch.Date,
		patch.Amount,
		patch.Type,
		patch.Attachment,
		patch.Category,
		time.Now().UTC(),
	))
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

// Delete removes an event owned by userID
func (r *eventRepository) Delete(ctx context.Context, userID, id string) error {
	if !validUUIDs(userID, id) {
		return ErrEventNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

func scanEvent(row rowScanner) (*entities.Event, error) {
	var event entities.Event
	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Date,
		&event.Amount,
		&event.Type,
		&event.Attachment,
		&event.Category,
		&event.UserID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// validUUIDs reports whether every id parses, so malformed ids read as absent
func validUUIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
