package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"walletfy-api/internal/entities"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateExternalID = errors.New("external identity already linked to another user")
)

// UserRepository defines the interface for user storage.
// Every read excludes deactivated users.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	FindByID(ctx context.Context, id string) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByExternalID(ctx context.Context, provider entities.Provider, externalID string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	ListActive(ctx context.Context) ([]*entities.User, error)
}

// prepareNewUser fills server-owned fields before the first insert
func prepareNewUser(user *entities.User, now time.Time) {
	user.Email = entities.NormalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = entities.RoleUser
	}
	user.Active = true
	user.CreatedAt = now
	user.UpdatedAt = now
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a PostgreSQL backed user repository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, google_id, facebook_id,
	profile_picture, initial_money, role, password_changed_at, reset_password_token,
	reset_password_expire, active, created_at, updated_at`

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *entities.User) error {
	prepareNewUser(user, time.Now().UTC())
	user.ID = uuid.NewString()

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullString(user.PasswordHash),
		user.FirstName,
		user.LastName,
		user.Phone,
		nullString(user.GoogleID),
		nullString(user.FacebookID),
		user.ProfilePicture,
		user.InitialMoney,
		user.Role,
		user.PasswordChangedAt,
		nullString(user.ResetPasswordToken),
		user.ResetPasswordExpire,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateUniqueViolation(err))
	}
	return nil
}

// FindByID finds an active user by ID (UUID)
func (r *userRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, "id = $1", id)
}

// FindByEmail finds an active user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, "email = $1", entities.NormalizeEmail(email))
}

// FindByExternalID finds an active user linked to the provider identity
func (r *userRepository) FindByExternalID(ctx context.Context, provider entities.Provider, externalID string) (*entities.User, error) {
	switch provider {
	case entities.ProviderGoogle:
		return r.findOne(ctx, "google_id = $1", externalID)
	case entities.ProviderFacebook:
		return r.findOne(ctx, "facebook_id = $1", externalID)
	}
	return nil, fmt.Errorf("unknown provider %q", provider)
}

func (r *userRepository) findOne(ctx context.Context, where string, arg interface{}) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` AND active = TRUE`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Update rewrites the mutable fields of an existing user
func (r *userRepository) Update(ctx context.Context, user *entities.User) error {
	if _, err := uuid.Parse(user.ID); err != nil {
		return ErrUserNotFound
	}
	user.Email = entities.NormalizeEmail(user.Email)
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users SET
			email = $2, password_hash = $3, first_name = $4, last_name = $5, phone = $6,
			google_id = $7, facebook_id = $8, profile_picture = $9, initial_money = $10, role = $11,
			password_changed_at = $12, reset_password_token = $13, reset_password_expire = $14,
			active = $15, updated_at = $16
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullString(user.PasswordHash),
		user.FirstName,
		user.LastName,
		user.Phone,
		nullString(user.GoogleID),
		nullString(user.FacebookID),
		user.ProfilePicture,
		user.InitialMoney,
		user.Role,
		user.PasswordChangedAt,
		nullString(user.ResetPasswordToken),
		user.ResetPasswordExpire,
		user.Active,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translateUniqueViolation(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListActive returns all active users, newest first
func (r *userRepository) ListActive(ctx context.Context) ([]*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE active = TRUE ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*entities.User, error) {
	var user entities.User
	var passwordHash, googleID, facebookID, resetToken sql.NullString
	var passwordChangedAt, resetExpire sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Email,
		&passwordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&googleID,
		&facebookID,
		&user.ProfilePicture,
		&user.InitialMoney,
		&user.Role,
		&passwordChangedAt,
		&resetToken,
		&resetExpire,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = passwordHash.String
	user.GoogleID = googleID.String
	user.FacebookID = facebookID.String
	user.ResetPasswordToken = resetToken.String
	if passwordChangedAt.Valid {
		t := passwordChangedAt.Time
		user.PasswordChangedAt = &t
	}
	if resetExpire.Valid {
		t := resetExpire.Time
		user.ResetPasswordExpire = &t
	}
	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// translateUniqueViolation maps unique index violations to repository errors
func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	if pqErr.Constraint == "users_email_key" {
		return ErrDuplicateEmail
	}
	return ErrDuplicateExternalID
}
