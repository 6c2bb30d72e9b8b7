package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"walletfy-api/internal/database"
	"walletfy-api/internal/entities"
	"walletfy-api/internal/repository"
)

// RepositorySuite runs the same behaviour checks against every storage backend
type RepositorySuite struct {
	suite.Suite
	users    repository.UserRepository
	events   repository.EventRepository
	setup    func() (repository.UserRepository, repository.EventRepository)
	teardown func()
	ctx      context.Context
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.users, s.events = s.setup()
}

func (s *RepositorySuite) TearDownTest() {
	if s.teardown != nil {
		s.teardown()
	}
}

func (s *RepositorySuite) createUser(email string) *entities.User {
	user := &entities.User{
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Ana",
		LastName:     "López",
		Phone:        "555-0100",
	}
	s.Require().NoError(s.users.Create(s.ctx, user))
	return user
}

func (s *RepositorySuite) createEvent(userID, typ string, date int64, amount float64) *entities.Event {
	event := &entities.Event{
		Name:        "Evento",
		Description: "Evento de prueba",
		Date:        date,
		Amount:      amount,
		Type:        typ,
		UserID:      userID,
	}
	s.Require().NoError(s.events.Create(s.ctx, event))
	return event
}

func (s *RepositorySuite) TestUserCreateAndFind() {
	user := s.createUser("  Ana@Example.COM ")

	s.NotEmpty(user.ID)
	s.Equal("ana@example.com", user.Email)
	s.Equal(entities.RoleUser, user.Role)
	s.True(user.Active)

	byID, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.Email, byID.Email)
	s.Equal("hash", byID.PasswordHash)

	byEmail, err := s.users.FindByEmail(s.ctx, "ANA@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, byEmail.ID)
}

func (s *RepositorySuite) TestUserDuplicateEmail() {
	s.createUser("dup@example.com")

	err := s.users.Create(s.ctx, &entities.User{Email: "DUP@example.com", PasswordHash: "x"})
	s.ErrorIs(err, repository.ErrDuplicateEmail)
}

func (s *RepositorySuite) TestUserExternalIDs() {
	user := &entities.User{Email: "g@example.com", GoogleID: "google-123"}
	s.Require().NoError(s.users.Create(s.ctx, user))

	found, err := s.users.FindByExternalID(s.ctx, entities.ProviderGoogle, "google-123")
	s.Require().NoError(err)
	s.Equal(user.ID, found.ID)

	_, err = s.users.FindByExternalID(s.ctx, entities.ProviderFacebook, "google-123")
	s.ErrorIs(err, repository.ErrUserNotFound)

	// Users without external ids do not collide with each other
	s.createUser("a@example.com")
	s.createUser("b@example.com")

	err = s.users.Create(s.ctx, &entities.User{Email: "other@example.com", GoogleID: "google-123"})
	s.ErrorIs(err, repository.ErrDuplicateExternalID)
}

func (s *RepositorySuite) TestUserSoftDeleteHidesFromReads() {
	user := s.createUser("gone@example.com")
	other := s.createUser("stays@example.com")

	user.Active = false
	s.Require().NoError(s.users.Update(s.ctx, user))

	_, err := s.users.FindByID(s.ctx, user.ID)
	s.ErrorIs(err, repository.ErrUserNotFound)
	_, err = s.users.FindByEmail(s.ctx, "gone@example.com")
	s.ErrorIs(err, repository.ErrUserNotFound)

	active, err := s.users.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(other.ID, active[0].ID)

	// The address stays reserved
	err = s.users.Create(s.ctx, &entities.User{Email: "gone@example.com", PasswordHash: "x"})
	s.ErrorIs(err, repository.ErrDuplicateEmail)
}

func (s *RepositorySuite) TestUserUpdate() {
	user := s.createUser("update@example.com")
	changedAt := time.Now().Add(-time.Second).UTC().Truncate(time.Second)

	user.FirstName = "Beatriz"
	user.InitialMoney = 250.5
	user.PasswordChangedAt = &changedAt
	user.FacebookID = "fb-1"
	s.Require().NoError(s.users.Update(s.ctx, user))

	found, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("Beatriz", found.FirstName)
	s.InDelta(250.5, found.InitialMoney, 0.001)
	s.Require().NotNil(found.PasswordChangedAt)
	s.WithinDuration(changedAt, *found.PasswordChangedAt, time.Second)
	s.Equal("fb-1", found.FacebookID)

	err = s.users.Update(s.ctx, &entities.User{ID: "does-not-exist", Email: "x@example.com"})
	s.ErrorIs(err, repository.ErrUserNotFound)
}

func (s *RepositorySuite) TestEventListFiltersAndOrders() {
	owner := s.createUser("owner@example.com")
	stranger := s.createUser("stranger@example.com")

	first := s.createEvent(owner.ID, entities.EventExpense, 100, 10)
	second := s.createEvent(owner.ID, entities.EventIncome, 300, 20)
	third := s.createEvent(owner.ID, entities.EventExpense, 200, 30)
	s.createEvent(stranger.ID, entities.EventExpense, 250, 99)

	all, err := s.events.List(s.ctx, repository.EventFilter{UserID: owner.ID}, repository.SortDateDesc)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{second.ID, third.ID, first.ID}, ids(all))

	expenses, err := s.events.List(s.ctx, repository.EventFilter{UserID: owner.ID, Type: entities.EventExpense}, repository.SortDateAsc)
	s.Require().NoError(err)
	s.Equal([]string{first.ID, third.ID}, ids(expenses))

	from, to := int64(150), int64(300)
	window, err := s.events.List(s.ctx, repository.EventFilter{UserID: owner.ID, From: &from, To: &to}, repository.SortDateAsc)
	s.Require().NoError(err)
	s.Equal([]string{third.ID, second.ID}, ids(window))
}

func (s *RepositorySuite) TestEventScopedLookups() {
	owner := s.createUser("owner@example.com")
	stranger := s.createUser("stranger@example.com")
	event := s.createEvent(owner.ID, entities.EventExpense, 100, 10)

	found, err := s.events.FindByID(s.ctx, owner.ID, event.ID)
	s.Require().NoError(err)
	s.Equal(event.ID, found.ID)
	s.Equal(owner.ID, found.UserID)

	_, err = s.events.FindByID(s.ctx, stranger.ID, event.ID)
	s.ErrorIs(err, repository.ErrEventNotFound)

	_, err = s.events.FindByID(s.ctx, owner.ID, "not-an-id")
	s.ErrorIs(err, repository.ErrEventNotFound)

	ownerID, err := s.events.FindOwner(s.ctx, event.ID)
	s.Require().NoError(err)
	s.Equal(owner.ID, ownerID)

	_, err = s.events.FindOwner(s.ctx, "not-an-id")
	s.ErrorIs(err, repository.ErrEventNotFound)
}

func (s *RepositorySuite) TestEventUpdateAndDelete() {
	owner := s.createUser("owner@example.com")
	stranger := s.createUser("stranger@example.com")
	event := s.createEvent(owner.ID, entities.EventExpense, 100, 10)

	amount := 42.5
	category := "Comida"
	_, err := s.events.Update(s.ctx, stranger.ID, event.ID, repository.EventPatch{Amount: &amount})
	s.ErrorIs(err, repository.ErrEventNotFound)

	updated, err := s.events.Update(s.ctx, owner.ID, event.ID, repository.EventPatch{Amount: &amount, Category: &category})
	s.Require().NoError(err)
	s.InDelta(42.5, updated.Amount, 0.001)
	s.Equal("Comida", updated.Category)
	s.Equal("Evento", updated.Name)

	s.ErrorIs(s.events.Delete(s.ctx, stranger.ID, event.ID), repository.ErrEventNotFound)
	s.Require().NoError(s.events.Delete(s.ctx, owner.ID, event.ID))
	s.ErrorIs(s.events.Delete(s.ctx, owner.ID, event.ID), repository.ErrEventNotFound)
}

func ids(events []*entities.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestMemoryRepositories(t *testing.T) {
	suite.Run(t, &RepositorySuite{
		setup: func() (repository.UserRepository, repository.EventRepository) {
			return repository.NewMemoryUserRepository(), repository.NewMemoryEventRepository()
		},
	})
}

func TestMongoRepositories(t *testing.T) {
	uri := os.Getenv("MONGODB_URI_TEST")
	if uri == "" {
		t.Skip("MONGODB_URI_TEST not set")
	}

	client, db, err := database.NewMongoConnection(uri, "walletfy_test")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Disconnect(context.Background())

	s := &RepositorySuite{}
	s.setup = func() (repository.UserRepository, repository.EventRepository) {
		ctx := context.Background()
		s.Require().NoError(db.Drop(ctx))
		s.Require().NoError(repository.EnsureMongoIndexes(ctx, db))
		return repository.NewMongoUserRepository(db), repository.NewMongoEventRepository(db)
	}
	suite.Run(t, s)
}

func TestPostgresRepositories(t *testing.T) {
	url := os.Getenv("DATABASE_URL_TEST")
	if url == "" {
		t.Skip("DATABASE_URL_TEST not set")
	}

	db, err := database.NewConnection(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	s := &RepositorySuite{}
	s.setup = func() (repository.UserRepository, repository.EventRepository) {
		_, err := db.Exec(`TRUNCATE events, users`)
		s.Require().NoError(err)
		return repository.NewUserRepository(db), repository.NewEventRepository(db)
	}
	suite.Run(t, s)
}
