package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"walletfy-api/internal/entities"
	"walletfy-api/internal/models"
	"walletfy-api/internal/repository"
	"walletfy-api/internal/validation"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func unix(year int, month time.Month, day int) float64 {
	return float64(time.Date(year, month, day, 10, 0, 0, 0, time.UTC).Unix())
}

func newEventFixture(t *testing.T) (*eventService, repository.EventRepository) {
	t.Helper()
	repo := repository.NewMemoryEventRepository()
	svc := NewEventService(repo, time.UTC, zap.NewNop()).(*eventService)
	svc.now = func() time.Time { return time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC) }
	return svc, repo
}

func createRequest(name, typ string, amount, date float64) *models.CreateEventRequest {
	return &models.CreateEventRequest{
		Name:        strPtr(name),
		Description: strPtr("descripción del evento"),
		Date:        floatPtr(date),
		Amount:      floatPtr(amount),
		Type:        strPtr(typ),
	}
}

func TestEventService_CreateAndGet(t *testing.T) {
	svc, _ := newEventFixture(t)
	ctx := context.Background()

	req := createRequest("  Sueldo  ", entities.EventIncome, 1200, unix(2024, 3, 1))
	req.Category = strPtr("Trabajo")
	event, err := svc.Create(ctx, "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, "Sueldo", event.Name)
	assert.Equal(t, int64(unix(2024, 3, 1)), event.Date)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "Trabajo", event.Category)

	got, err := svc.Get(ctx, "user-1", event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	_, err = svc.Get(ctx, "user-2", event.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	owner, err := svc.Owner(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", owner)
}

func TestEventService_CreateValidation(t *testing.T) {
	svc, _ := newEventFixture(t)

	req := &models.CreateEventRequest{Name: strPtr("ab"), Type: strPtr("gift")}
	_, err := svc.Create(context.Background(), "user-1", req)

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 5) // name, description, date, amount, type
}

func TestEventService_RejectsDatesThatCannotBeStored(t *testing.T) {
	svc, _ := newEventFixture(t)
	ctx := context.Background()

	event, err := svc.Create(ctx, "user-1", createRequest("Comida", entities.EventExpense, 40, unix(2024, 3, 2)))
	require.NoError(t, err)

	for _, body := range []string{`{"date":0.5}`, `{"date":1e300}`, `{"date":1709373600.5}`, `{"date":253402300800}`} {
		var create models.CreateEventRequest
		require.NoError(t, json.Unmarshal([]byte(`{"name":"Comida","description":"almuerzo del día","amount":10,"type":"expense"}`), &create))
		require.NoError(t, json.Unmarshal([]byte(body), &create))
		_, err := svc.Create(ctx, "user-1", &create)
		var verr *validation.Error
		require.ErrorAs(t, err, &verr, body)
		assert.Equal(t, []string{"La fecha debe ser un timestamp en segundos enteros"}, verr.Errors, body)

		var update models.UpdateEventRequest
		require.NoError(t, json.Unmarshal([]byte(body), &update))
		_, err = svc.Update(ctx, "user-1", event.ID, &update)
		require.ErrorAs(t, err, &verr, body)
		assert.Equal(t, []string{"La fecha debe ser un timestamp en segundos enteros"}, verr.Errors, body)
	}

	got, err := svc.Get(ctx, "user-1", event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(unix(2024, 3, 2)), got.Date)

	all, err := svc.List(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEventService_ListFiltersByType(t *testing.T) {
	svc, _ := newEventFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", createRequest("Sueldo", entities.EventIncome, 100, unix(2024, 3, 1)))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-1", createRequest("Comida", entities.EventExpense, 40, unix(2024, 3, 2)))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-2", createRequest("Ajeno", entities.EventExpense, 5, unix(2024, 3, 3)))
	require.NoError(t, err)

	all, err := svc.List(ctx, "user-1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Comida", all[0].Name, "newest first")

	expenses, err := svc.List(ctx, "user-1", entities.EventExpense)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Comida", expenses[0].Name)

	unknown, err := svc.List(ctx, "user-1", "gift")
	require.NoError(t, err)
	assert.Len(t, unknown, 2)
}

func TestEventService_UpdateAndDelete(t *testing.T) {
	svc, _ := newEventFixture(t)
	ctx := context.Background()

	event, err := svc.Create(ctx, "user-1", createRequest("Comida", entities.EventExpense, 40, unix(2024, 3, 2)))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "user-1", event.ID, &models.UpdateEventRequest{Amount: floatPtr(55)})
	require.NoError(t, err)
	assert.Equal(t, 55.0, updated.Amount)
	assert.Equal(t, "Comida", updated.Name)

	_, err = svc.Update(ctx, "user-1", event.ID, &models.UpdateEventRequest{Type: strPtr("gift")})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)

	_, err = svc.Update(ctx, "user-2", event.ID, &models.UpdateEventRequest{Amount: floatPtr(1)})
	assert.ErrorIs(t, err, ErrEventNotFound)

	withFile, err := svc.SetAttachment(ctx, "user-1", event.ID, "events/abc/recibo.pdf")
	require.NoError(t, err)
	assert.Equal(t, "events/abc/recibo.pdf", withFile.Attachment)

	assert.ErrorIs(t, svc.Delete(ctx, "user-2", event.ID), ErrEventNotFound)
	require.NoError(t, svc.Delete(ctx, "user-1", event.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "user-1", event.ID), ErrEventNotFound)
}

func TestEventService_MonthlySummary(t *testing.T) {
	svc, _ := newEventFixture(t)
	ctx := context.Background()

	for _, req := range []*models.CreateEventRequest{
		createRequest("Sueldo", entities.EventIncome, 100, unix(2024, 3, 5)),
		createRequest("Comida", entities.EventExpense, 40, unix(2024, 3, 1)),
		createRequest("Febrero", entities.EventIncome, 999, unix(2024, 2, 29)),
		createRequest("Abril", entities.EventExpense, 999, unix(2024, 4, 1)),
	} {
		_, err := svc.Create(ctx, "user-1", req)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "user-2", createRequest("Ajeno", entities.EventIncome, 500, unix(2024, 3, 5)))
	require.NoError(t, err)

	summary, err := svc.MonthlySummary(ctx, "user-1", 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, 100.0, summary.TotalIncome)
	assert.Equal(t, 40.0, summary.TotalExpense)
	assert.Equal(t, 60.0, summary.Balance)
	require.Len(t, summary.Events, 2)
	assert.Equal(t, "Comida", summary.Events[0].Name, "oldest first")

	// Zero falls back to the current month, March 2024
	current, err := svc.MonthlySummary(ctx, "user-1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, summary.TotalIncome, current.TotalIncome)

	empty, err := svc.MonthlySummary(ctx, "user-1", 2023, 1)
	require.NoError(t, err)
	assert.Empty(t, empty.Events)
	assert.Zero(t, empty.Balance)
}
