package service

import (
	"context"
	"fmt"
	"time"

	"walletfy-api/internal/entities"
	"walletfy-api/internal/models"
	"walletfy-api/internal/repository"
)

// StatsService defines the interface for the statistics endpoints
type StatsService interface {
	Periods(ctx context.Context, userID string) ([]models.Period, error)
	Daily(ctx context.Context, userID string, year, month int) (models.Stats[models.DailyStat], error)
	Weekly(ctx context.Context, userID string, year, month int) (models.Stats[models.WeeklyStat], error)
	Category(ctx context.Context, userID string, year, month int) (models.Stats[models.CategoryStat], error)
}

type statsService struct {
	repo repository.EventRepository
	loc  *time.Location
	now  func() time.Time
}

// NewStatsService creates a new stats service; calendar fields are read in loc
func NewStatsService(repo repository.EventRepository, loc *time.Location) StatsService {
	return &statsService{repo: repo, loc: loc, now: time.Now}
}

func (s *statsService) Periods(ctx context.Context, userID string) ([]models.Period, error) {
	events, err := s.repo.List(ctx, repository.EventFilter{UserID: userID}, repository.SortDateAsc)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return Periods(events, s.loc), nil
}

func (s *statsService) Daily(ctx context.Context, userID string, year, month int) (models.Stats[models.DailyStat], error) {
	_, events, err := s.monthEvents(ctx, userID, year, month)
	if err != nil {
		return models.Stats[models.DailyStat]{}, err
	}
	return DailyStats(events, s.loc), nil
}

func (s *statsService) Weekly(ctx context.Context, userID string, year, month int) (models.Stats[models.WeeklyStat], error) {
	window, events, err := s.monthEvents(ctx, userID, year, month)
	if err != nil {
		return models.Stats[models.WeeklyStat]{}, err
	}
	return WeeklyStats(events, window), nil
}

func (s *statsService) Category(ctx context.Context, userID string, year, month int) (models.Stats[models.CategoryStat], error) {
	_, events, err := s.monthEvents(ctx, userID, year, month)
	if err != nil {
		return models.Stats[models.CategoryStat]{}, err
	}
	return CategoryStats(events), nil
}

func (s *statsService) monthEvents(ctx context.Context, userID string, year, month int) (MonthWindow, []*entities.Event, error) {
	window := NewMonthWindow(year, month, s.now(), s.loc)
	events, err := s.repo.List(ctx, window.Filter(userID), repository.SortDateAsc)
	if err != nil {
		return window, nil, fmt.Errorf("failed to load events for %d-%02d: %w", window.Year, window.Month, err)
	}
	return window, events, nil
}
