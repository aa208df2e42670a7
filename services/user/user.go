package user

import (
	"context"
	"fmt"
	"time"

	userRepo "academix/database/repository/user"
	"academix/models"
	"academix/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthResponse contains only the user's ID and the JWT token.
type AuthResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// UserService defines business logic for the primary identity layer. The
// secondary PIN gate sits behind this; it is never the sole barrier.
type UserService interface {
	// RegisterUser creates a new account, stores its token hash and returns
	// the new user's ID and token.
	RegisterUser(user models.User) (*AuthResponse, error)
	// AuthenticateUser verifies credentials and returns ID and token.
	AuthenticateUser(email, password string) (*AuthResponse, error)
	// GetUserByID retrieves a user by its unique ID.
	GetUserByID(userID string) (*models.User, error)
	// RevokeAuthToken clears the stored token hash and drops the auth cache
	// entry so the session dies immediately.
	RevokeAuthToken(userID string) error
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	Repo userRepo.UserRepository
}

// RegisterUser validates required fields, hashes the password, persists the
// user and returns a fresh session token.
func (s *DefaultUserService) RegisterUser(user models.User) (*AuthResponse, error) {
	if user.Email == "" || user.Password == "" {
		return nil, fmt.Errorf("user email and password are required")
	}
	if user.Role == "" {
		user.Role = "student"
	}

	existing, err := s.Repo.GetByEmail(user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user with email %s already exists", user.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.Password = "" // Clear plain-text password.

	user.ID = uuid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := s.Repo.Create(&user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := utils.GenerateToken(user.ID, user.Email, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to generate auth token: %w", err)
	}

	user.TokenHash = utils.HashToken(token)
	if err := s.Repo.Update(&user); err != nil {
		return nil, fmt.Errorf("failed to update user with token hash: %w", err)
	}

	return &AuthResponse{ID: user.ID, Token: token}, nil
}

// AuthenticateUser verifies the user's credentials. If valid, it generates a
// new JWT token, updates the token hash, and returns the AuthResponse.
func (s *DefaultUserService) AuthenticateUser(email, password string) (*AuthResponse, error) {
	usr, err := s.Repo.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user for authentication: %w", err)
	}
	if usr == nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	token, err := utils.GenerateToken(usr.ID, usr.Email, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to generate auth token: %w", err)
	}

	usr.TokenHash = utils.HashToken(token)
	if err := s.Repo.Update(usr); err != nil {
		return nil, fmt.Errorf("failed to update user with token hash: %w", err)
	}

	return &AuthResponse{ID: usr.ID, Token: token}, nil
}

// GetUserByID retrieves a user by its unique ID.
func (s *DefaultUserService) GetUserByID(userID string) (*models.User, error) {
	usr, err := s.Repo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return usr, nil
}

// RevokeAuthToken clears the stored token hash and evicts the auth cache
// entry for the user.
func (s *DefaultUserService) RevokeAuthToken(userID string) error {
	usr, err := s.Repo.GetByID(userID)
	if err != nil {
		return fmt.Errorf("failed to fetch user for revocation: %w", err)
	}
	usr.TokenHash = ""
	if err := s.Repo.Update(usr); err != nil {
		return fmt.Errorf("failed to clear token hash: %w", err)
	}

	if cache := utils.GetAuthCacheClient(); cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = cache.Del(ctx, utils.AuthCachePrefix+userID).Err()
	}
	return nil
}
