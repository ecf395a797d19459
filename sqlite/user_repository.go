package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"go.pilab.hu/casekit/domain"
	ckerrors "go.pilab.hu/casekit/errors"
)

// UserRepositorySQLite implements domain.UserRepository on the
// application's sqlite database.
type UserRepositorySQLite struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepositorySQLite.
func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &UserRepositorySQLite{db: db}
}

const userColumns = `id, username, password_hash, full_name, email, role, status, created_at, last_login_at`

// CreateUser inserts a new account and fills in the generated id.
func (r *UserRepositorySQLite) CreateUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Status == "" {
		user.Status = domain.UserStatusActive
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, full_name, email, role, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.PasswordHash, user.FullName, user.Email, user.Role, user.Status, user.CreatedAt,
	)
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("Error creating user")
		return fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user: last insert id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByUsername retrieves a user by its unique username.
func (r *UserRepositorySQLite) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// GetUserByID retrieves a user by id.
func (r *UserRepositorySQLite) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// TouchLastLogin updates the user's last-activity timestamp.
func (r *UserRepositorySQLite) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, at.UTC(), userID)
	if err != nil {
		log.Warn().Err(err).Int64("userID", userID).Msg("Error touching last login")
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName,
		&u.Email, &u.Role, &u.Status, &u.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ckerrors.ErrUserNotFound
		}
		log.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}
