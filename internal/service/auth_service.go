package service

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-makerstock/internal/model"
	"go-makerstock/internal/repository"
	"go-makerstock/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrUserNotFound       = errors.New("user not found")
)

// LoginResponse bundles the token with the user's profile.
type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	ResetPassword(userID uuid.UUID, oldPassword, newPassword string) error
	Heartbeat(userID uuid.UUID) error
}

type authService struct {
	users repository.UserRepository
}

func NewAuthService(users repository.UserRepository) AuthService {
	return &authService{users: users}
}

// Login verifies credentials and issues a token carrying the user's
// organization. A fresh token version invalidates any previous session.
func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// Single-session enforcement: rotate the version, stale tokens die.
	version := uuid.NewString()
	if err := s.users.UpdateTokenVersion(user.ID, version); err != nil {
		return nil, err
	}

	token, err := jwt.GenerateToken(user.ID, user.OrganizationID, user.Email, user.FullName, user.Role, version)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{Token: token, User: user.ToResponse()}, nil
}

func (s *authService) ResetPassword(userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !user.CheckPassword(oldPassword) {
		return ErrInvalidCredentials
	}

	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return s.users.UpdatePassword(user.ID, user.Password)
}

// Heartbeat records user presence.
func (s *authService) Heartbeat(userID uuid.UUID) error {
	return s.users.UpdateLastSeen(userID)
}
