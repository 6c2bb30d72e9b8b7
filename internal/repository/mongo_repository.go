package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"walletfy-api/internal/entities"
)

// Collection names
const (
	UsersCollection  = "users"
	EventsCollection = "events"
)

// activeOnly is the default predicate of every user read
var activeOnly = bson.E{Key: "active", Value: bson.M{"$ne": false}}

type userDocument struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	Email               string             `bson:"email"`
	Password            string             `bson:"password,omitempty"`
	FirstName           string             `bson:"firstName,omitempty"`
	LastName            string             `bson:"lastName,omitempty"`
	Phone               string             `bson:"phone,omitempty"`
	GoogleID            string             `bson:"googleId,omitempty"`
	FacebookID          string             `bson:"facebookId,omitempty"`
	ProfilePicture      string             `bson:"profilePicture"`
	InitialMoney        float64            `bson:"initialMoney"`
	Role                string             `bson:"role"`
	PasswordChangedAt   *time.Time         `bson:"passwordChangedAt,omitempty"`
	ResetPasswordToken  string             `bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpire *time.Time         `bson:"resetPasswordExpire,omitempty"`
	Active              bool               `bson:"active"`
	CreatedAt           time.Time          `bson:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt"`
}

func newUserDocument(u *entities.User) userDocument {
	return userDocument{
		Email:               u.Email,
		Password:            u.PasswordHash,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Phone:               u.Phone,
		GoogleID:            u.GoogleID,
		FacebookID:          u.FacebookID,
		ProfilePicture:      u.ProfilePicture,
		InitialMoney:        u.InitialMoney,
		Role:                u.Role,
		PasswordChangedAt:   u.PasswordChangedAt,
		ResetPasswordToken:  u.ResetPasswordToken,
		ResetPasswordExpire: u.ResetPasswordExpire,
		Active:              u.Active,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func (d userDocument) entity() *entities.User {
	return &entities.User{
		ID:                  d.ID.Hex(),
		Email:               d.Email,
		PasswordHash:        d.Password,
		FirstName:           d.FirstName,
		LastName:            d.LastName,
		Phone:               d.Phone,
		GoogleID:            d.GoogleID,
		FacebookID:          d.FacebookID,
		ProfilePicture:      d.ProfilePicture,
		InitialMoney:        d.InitialMoney,
		Role:                d.Role,
		PasswordChangedAt:   d.PasswordChangedAt,
		ResetPasswordToken:  d.ResetPasswordToken,
		ResetPasswordExpire: d.ResetPasswordExpire,
		Active:              d.Active,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

type mongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a MongoDB backed user repository
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: db.Collection(UsersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *entities.User) error {
	prepareNewUser(user, time.Now().UTC())

	doc := newUserDocument(user)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create user: %w", translateDuplicateKey(err))
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}, activeOnly})
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: entities.NormalizeEmail(email)}, activeOnly})
}

func (r *mongoUserRepository) FindByExternalID(ctx context.Context, provider entities.Provider, externalID string) (*entities.User, error) {
	var field string
	switch provider {
	case entities.ProviderGoogle:
		field = "googleId"
	case entities.ProviderFacebook:
		field = "facebookId"
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	if externalID == "" {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, bson.D{{Key: field, Value: externalID}, activeOnly})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.D) (*entities.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.entity(), nil
}

func (r *mongoUserRepository) Update(ctx context.Context, user *entities.User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return ErrUserNotFound
	}
	user.Email = entities.NormalizeEmail(user.Email)
	user.UpdatedAt = time.Now().UTC()

	doc := newUserDocument(user)
	doc.ID = oid
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translateDuplicateKey(err))
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *mongoUserRepository) ListActive(ctx context.Context) ([]*entities.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.D{activeOnly}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*entities.User{}
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, doc.entity())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Unique index names on the users collection
const (
	userEmailIndex      = "users_email_unique"
	userGoogleIDIndex   = "users_googleId_unique"
	userFacebookIDIndex = "users_facebookId_unique"
)

// translateDuplicateKey maps unique index violations to repository errors using the key pattern
// the server reports for the violated index
func translateDuplicateKey(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, writeErr := range we.WriteErrors {
			if writeErr.Code == duplicateKeyCode && duplicateKeyField(writeErr.Raw) == "email" {
				return ErrDuplicateEmail
			}
		}
	}
	return ErrDuplicateExternalID
}

const duplicateKeyCode = 11000

// duplicateKeyField returns the first field of the keyPattern in a duplicate key write error
func duplicateKeyField(raw bson.Raw) string {
	if len(raw) == 0 {
		return ""
	}
	pattern, ok := raw.Lookup("keyPattern").DocumentOK()
	if !ok {
		return ""
	}
	elems, err := pattern.Elements()
	if err != nil || len(elems) == 0 {
		return ""
	}
	return elems[0].Key()
}

type eventDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Date        int64              `bson:"date"`
	Amount      float64            `bson:"amount"`
	Type        string             `bson:"type"`
	Attachment  string             `bson:"attachment"`
	Category    string             `bson:"category,omitempty"`
	User        primitive.ObjectID `bson:"user"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d eventDocument) entity() *entities.Event {
	return &entities.Event{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Date:        d.Date,
		Amount:      d.Amount,
		Type:        d.Type,
		Attachment:  d.Attachment,
		Category:    d.Category,
		UserID:      d.User.Hex(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type mongoEventRepository struct {
	coll *mongo.Collection
}

// NewMongoEventRepository creates a MongoDB backed event repository
func NewMongoEventRepository(db *mongo.Database) EventRepository {
	return &mongoEventRepository{coll: db.Collection(EventsCollection)}
}

func (r *mongoEventRepository) Create(ctx context.Context, event *entities.Event) error {
	owner, err := primitive.ObjectIDFromHex(event.UserID)
	if err != nil {
		return fmt.Errorf("failed to create event: invalid owner id %q", event.UserID)
	}

	now := time.Now().UTC()
	doc := eventDocument{
		ID:          primitive.NewObjectID(),
		Name:        event.Name,
		Description: event.Description,
		Date:        event.Date,
		Amount:      event.Amount,
		Type:        event.Type,
		Attachment:  event.Attachment,
		Category:    event.Category,
		User:        owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	event.ID = doc.ID.Hex()
	event.CreatedAt = now
	event.UpdatedAt = now
	return nil
}

// ownedFilter builds the {_id, user} filter, reporting false for malformed ids
func ownedFilter(userID, id string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	owner, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "user": owner}, true
}

func (r *mongoEventRepository) FindByID(ctx context.Context, userID, id string) (*entities.Event, error) {
	filter, ok := ownedFilter(userID, id)
	if !ok {
		return nil, ErrEventNotFound
	}

	var doc eventDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return doc.entity(), nil
}

func (r *mongoEventRepository) FindOwner(ctx context.Context, id string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", ErrEventNotFound
	}

	var doc struct {
		User primitive.ObjectID `bson:"user"`
	}
	opts := options.FindOne().SetProjection(bson.M{"user": 1})
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrEventNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to find event owner: %w", err)
	}
	return doc.User.Hex(), nil
}

func (r *mongoEventRepository) List(ctx context.Context, filter EventFilter, order SortOrder) ([]*entities.Event, error) {
	owner, err := primitive.ObjectIDFromHex(filter.UserID)
	if err != nil {
		return []*entities.Event{}, nil
	}

	query := bson.M{"user": owner}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	dateRange := bson.M{}
	if filter.From != nil {
		dateRange["$gte"] = *filter.From
	}
	if filter.To != nil {
		dateRange["$lte"] = *filter.To
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}

	direction := -1
	if order == SortDateAsc {
		direction = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: direction}, {Key: "createdAt", Value: 1}})

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*entities.Event{}
	for cursor.Next(ctx) {
		var doc eventDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		events = append(events, doc.entity())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

func (r *mongoEventRepository) Update(ctx context.Context, userID, id string, patch EventPatch) (*entities.Event, error) {
	filter, ok := ownedFilter(userID, id)
	if !ok {
		return nil, ErrEventNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Date != nil {
		set["date"] = *patch.Date
	}
	if patch.Amount != nil {
		set["amount"] = *patch.Amount
	}
	if patch.Type != nil {
		set["type"] = *patch.Type
	}
	if patch.Attachment != nil {
		set["attachment"] = *patch.Attachment
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc eventDocument
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return doc.entity(), nil
}

func (r *mongoEventRepository) Delete(ctx context.Context, userID, id string) error {
	filter, ok := ownedFilter(userID, id)
	if !ok {
		return ErrEventNotFound
	}

	result, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}

// EnsureMongoIndexes creates the unique and lookup indexes both collections rely on
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(userEmailIndex).SetUnique(true)},
		{Keys: bson.D{{Key: "googleId", Value: 1}}, Options: options.Index().SetName(userGoogleIDIndex).SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "facebookId", Value: 1}}, Options: options.Index().SetName(userFacebookIDIndex).SetUnique(true).SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = db.Collection(EventsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "date", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create event indexes: %w", err)
	}
	return nil
}
