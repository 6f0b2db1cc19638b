package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pos_tracker_backend/internal/models"
)

// AuthRepository defines the interface for authentication-related database operations.
type AuthRepository interface {
	CreateUser(ctx context.Context, exec SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(ctx context.Context, userID int64) (*models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB // The direct database connection pool
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateUser inserts a new user into the database.
// It expects an SQLExecutor which can be a *sql.DB or *sql.Tx.
// IsActive is set to true by default. CreatedAt and UpdatedAt are set to the current time.
func (r *authRepository) CreateUser(ctx context.Context, exec SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	currentTime := time.Now()
	user.IsActive = true
	user.CreatedAt = currentTime
	user.UpdatedAt = currentTime

	err := exec.QueryRowContext(ctx, query,
		user.Username, hashedPassword, user.FullName, user.Role, user.IsActive, currentTime, currentTime,
	).Scan(&user.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating user")
	}
	return user.ID, nil
}

// FindUserByUsername retrieves a user by their username.
// It returns the user model, their hashed password, and an error if any.
func (r *authRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	query := `SELECT id, username, password_hash, full_name, role, is_active, created_at, updated_at
	          FROM users WHERE username = $1`
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &hashedPassword, &user.FullName, &user.Role, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, "", mapReadError(err, fmt.Sprintf("finding user by username %s", username))
	}
	return user, hashedPassword, nil
}

// FindUserByID retrieves a user by their ID.
func (r *authRepository) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, full_name, role, is_active, created_at, updated_at FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Username, &user.FullName, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, mapReadError(err, fmt.Sprintf("finding user by ID %d", userID))
	}
	return user, nil
}

func (r *authRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting users: %v", ErrDatabaseError, err)
	}
	return count, nil
}
