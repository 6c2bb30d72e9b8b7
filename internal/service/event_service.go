package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"walletfy-api/internal/entities"
	"walletfy-api/internal/models"
	"walletfy-api/internal/repository"
	"walletfy-api/internal/validation"
)

// EventService defines the interface for event business logic.
// Every operation is scoped to the requesting user.
type EventService interface {
	List(ctx context.Context, userID, eventType string) ([]*entities.Event, error)
	Get(ctx context.Context, userID, id string) (*entities.Event, error)
	Create(ctx context.Context, userID string, req *models.CreateEventRequest) (*entities.Event, error)
	Update(ctx context.Context, userID, id string, req *models.UpdateEventRequest) (*entities.Event, error)
	Delete(ctx context.Context, userID, id string) error
	SetAttachment(ctx context.Context, userID, id, attachment string) (*entities.Event, error)
	MonthlySummary(ctx context.Context, userID string, year, month int) (*models.MonthlySummary, error)
	Owner(ctx context.Context, id string) (string, error)
}

type eventService struct {
	repo repository.EventRepository
	loc  *time.Location
	now  func() time.Time
	log  *zap.Logger
}

// NewEventService creates a new event service; month windows are computed in loc
func NewEventService(repo repository.EventRepository, loc *time.Location, log *zap.Logger) EventService {
	return &eventService{repo: repo, loc: loc, now: time.Now, log: log}
}

// List returns the user's events, newest first. Unknown types are ignored rather than rejected.
func (s *eventService) List(ctx context.Context, userID, eventType string) ([]*entities.Event, error) {
	filter := repository.EventFilter{UserID: userID}
	if entities.IsValidEventType(eventType) {
		filter.Type = eventType
	}

	events, err := s.repo.List(ctx, filter, repository.SortDateDesc)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *eventService) Get(ctx context.Context, userID, id string) (*entities.Event, error) {
	event, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, mapEventErr(err, "failed to find event")
	}
	return event, nil
}

func (s *eventService) Create(ctx context.Context, userID string, req *models.CreateEventRequest) (*entities.Event, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	event := &entities.Event{
		Name:        *req.Name,
		Description: *req.Description,
		Date:        int64(*req.Date),
		Amount:      *req.Amount,
		Type:        *req.Type,
		UserID:      userID,
	}
	if req.Attachment != nil {
		event.Attachment = *req.Attachment
	}
	if req.Category != nil {
		event.Category = *req.Category
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.log.Debug("event created", zap.String("user_id", userID), zap.String("event_id", event.ID))
	return event, nil
}

func (s *eventService) Update(ctx context.Context, userID, id string, req *models.UpdateEventRequest) (*entities.Event, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	event, err := s.repo.Update(ctx, userID, id, req.Patch())
	if err != nil {
		return nil, mapEventErr(err, "failed to update event")
	}
	return event, nil
}

func (s *eventService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return mapEventErr(err, "failed to delete event")
	}
	s.log.Debug("event deleted", zap.String("user_id", userID), zap.String("event_id", id))
	return nil
}

// SetAttachment records where the event's attachment is stored
func (s *eventService) SetAttachment(ctx context.Context, userID, id, attachment string) (*entities.Event, error) {
	event, err := s.repo.Update(ctx, userID, id, repository.EventPatch{Attachment: &attachment})
	if err != nil {
		return nil, mapEventErr(err, "failed to set attachment")
	}
	return event, nil
}

// MonthlySummary totals the events dated inside the calendar month. Zero or out-of-range
// year and month fall back to the current ones.
func (s *eventService) MonthlySummary(ctx context.Context, userID string, year, month int) (*models.MonthlySummary, error) {
	window := NewMonthWindow(year, month, s.now(), s.loc)

	events, err := s.repo.List(ctx, window.Filter(userID), repository.SortDateAsc)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly events: %w", err)
	}

	summary := &models.MonthlySummary{Events: events}
	for _, e := range events {
		if e.IsIncome() {
			summary.TotalIncome += e.Amount
		} else {
			summary.TotalExpense += e.Amount
		}
	}
	summary.Balance = summary.TotalIncome - summary.TotalExpense
	return summary, nil
}

// Owner returns the id of the user owning the event, for ownership checks
func (s *eventService) Owner(ctx context.Context, id string) (string, error) {
	owner, err := s.repo.FindOwner(ctx, id)
	if err != nil {
		return "", mapEventErr(err, "failed to find event owner")
	}
	return owner, nil
}

func mapEventErr(err error, msg string) error {
	if errors.Is(err, repository.ErrEventNotFound) {
		return ErrEventNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
