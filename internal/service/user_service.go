package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-makerstock/internal/model"
	"go-makerstock/internal/repository"
	"go-makerstock/pkg/validator"
)

var ErrEmailTaken = errors.New("a user with this email already exists")

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,min=1,max=255"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN MEMBER"`
}

type UpdateUserRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=255"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN MEMBER"`
	IsActive *bool  `json:"is_active"`
}

type UserService interface {
	Create(orgID uuid.UUID, actorID string, req CreateUserRequest) (*model.UserResponse, error)
	List(orgID uuid.UUID) ([]model.UserResponse, error)
	Update(orgID, userID uuid.UUID, actorID string, req UpdateUserRequest) (*model.UserResponse, error)
	Delete(orgID, userID uuid.UUID) error
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Create(orgID uuid.UUID, actorID string, req CreateUserRequest) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrValidation, errs[0].FailedField, errs[0].Tag)
	}

	if _, err := s.users.FindByEmail(req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleMember
	}

	user := &model.User{
		OrganizationID: orgID,
		Email:          req.Email,
		FullName:       req.FullName,
		Role:           role,
		IsActive:       true,
	}
	user.CreatedBy = actorID
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) List(orgID uuid.UUID) ([]model.UserResponse, error) {
	users, err := s.users.FindAllByOrg(orgID)
	if err != nil {
		return nil, err
	}
	responses := make([]model.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, nil
}

func (s *userService) Update(orgID, userID uuid.UUID, actorID string, req UpdateUserRequest) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrValidation, errs[0].FailedField, errs[0].Tag)
	}

	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.OrganizationID != orgID {
		return nil, ErrUserNotFound
	}

	user.FullName = req.FullName
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = actorID

	if err := s.users.Update(user); err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) Delete(orgID, userID uuid.UUID) error {
	return s.users.Delete(orgID, userID)
}
