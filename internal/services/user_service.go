package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Keoroanthony/go-storefront/internal/apperrors"
	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

type RegisterInput struct {
	Username string      `json:"username" form:"username" binding:"required,max=150"`
	Email    string      `json:"email" form:"email" binding:"required,email"`
	Name     string      `json:"name" form:"name" binding:"max=255"`
	Password string      `json:"password" form:"password" binding:"required"`
	Role     models.Role `json:"role" form:"role"`
	Phone    *string     `json:"phone" form:"phone" binding:"omitempty,max=20"`
	Bio      *string     `json:"bio" form:"bio"`
}

type LoginInput struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type ProfileInput struct {
	Name         *string `json:"name" form:"name" binding:"omitempty,max=255"`
	Email        *string `json:"email" form:"email" binding:"omitempty,email"`
	Bio          *string `json:"bio" form:"bio"`
	Phone        *string `json:"phone" form:"phone" binding:"omitempty,max=20"`
	ProfileImage *string `json:"profile_image" form:"profile_image" binding:"omitempty,max=255"`
	Password     *string `json:"password" form:"password"`
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func weakPassword(password string) error {
	if problems := auth.ValidatePassword(password); len(problems) > 0 {
		return apperrors.ErrWeakPassword.WithField("password", strings.Join(problems, " "))
	}
	return nil
}

// Register creates a customer or seller account. Admins are never self-registered.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if !in.Role.SelfAssignable() {
		return nil, apperrors.ErrRoleNotAllowed
	}
	if err := weakPassword(in.Password); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var count int64
	if err := tx.Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperrors.ErrUsernameTaken
	}
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperrors.ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     in.Username,
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        in.Phone,
		Bio:          in.Bio,
	}
	if err := tx.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrUsernameTaken.Wrap(err)
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate accepts either the username or the email address.
func (s *UserService) Authenticate(ctx context.Context, in LoginInput) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ?", in.Username).
		Or("email = ?", strings.ToLower(in.Username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Addresses").First(&user, id).Error; err != nil {
		return nil, notFoundAs(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

// UpdateProfile applies the non-nil fields; a new password is re-hashed.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, in ProfileInput) (*models.User, error) {
	tx := s.db.WithContext(ctx)

	var current models.User
	if err := tx.First(&current, user.ID).Error; err != nil {
		return nil, notFoundAs(err, apperrors.ErrUserNotFound)
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != current.Email {
			var count int64
			if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, current.ID).Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, apperrors.ErrEmailTaken
			}
			current.Email = email
		}
	}
	if in.Name != nil {
		current.Name = *in.Name
	}
	if in.Bio != nil {
		current.Bio = in.Bio
	}
	if in.Phone != nil {
		current.Phone = in.Phone
	}
	if in.ProfileImage != nil {
		current.ProfileImage = in.ProfileImage
	}
	if in.Password != nil && *in.Password != "" {
		if err := weakPassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		current.PasswordHash = hash
	}

	if err := tx.Save(&current).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrEmailTaken.Wrap(err)
		}
		return nil, err
	}
	return &current, nil
}
