package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pos_tracker_backend/internal/models"
	"pos_tracker_backend/internal/repositories"
	"pos_tracker_backend/pkg/utils"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// --- Data Transfer Objects (DTOs) ---

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// --- AuthService Interface ---
type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
	// EnsureAdmin creates the first admin account when no users exist yet.
	EnsureAdmin(ctx context.Context, username, password string) error
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	tx       repositories.TxManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, tx repositories.TxManager) AuthService {
	return &authService{authRepo: authRepo, tx: tx}
}

// Login checks the password and issues a token bound to a fresh session id.
func (s *authService) Login(ctx context.Context, creds models.Credentials) (*AuthResponse, error) {
	user, storedHashedPassword, err := s.authRepo.FindUserByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := utils.GenerateAccessToken(user.ID, user.Username, user.Role, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	user.PasswordHash = ""
	return &AuthResponse{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, username, password string) error {
	count, err := s.authRepo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if username == "" || password == "" {
		utils.LogWarn(nil, "No users exist and ADMIN_PASSWORD is not set; nobody can log in")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{Username: username, Role: models.RoleAdmin}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		_, err := s.authRepo.CreateUser(ctx, exec, user, string(hashed))
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	utils.LogInfo("Bootstrap admin user created", map[string]interface{}{"username": username})
	return nil
}
