package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/Keoroanthony/go-storefront/internal/apperrors"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

type AddressInput struct {
	Street     string `json:"street" form:"street" binding:"required,max=255"`
	City       string `json:"city" form:"city" binding:"required,max=100"`
	State      string `json:"state" form:"state" binding:"required,max=100"`
	Country    string `json:"country" form:"country" binding:"required,max=100"`
	PostalCode string `json:"postal_code" form:"postal_code" binding:"required,max=20"`
	IsDefault  bool   `json:"is_default" form:"is_default"`
}

type AddressService struct {
	db *gorm.DB
}

func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

func (s *AddressService) ListAddresses(ctx context.Context, user *models.User) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("is_default DESC").Order("id").
		Find(&addresses).Error
	return addresses, err
}

// GetAddress hides other users' addresses behind ErrAddressNotFound.
func (s *AddressService) GetAddress(ctx context.Context, user *models.User, id uint) (*models.Address, error) {
	return findAddress(s.db.WithContext(ctx), user.ID, id)
}

func findAddress(tx *gorm.DB, userID, id uint) (*models.Address, error) {
	var address models.Address
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		return nil, notFoundAs(err, apperrors.ErrAddressNotFound)
	}
	return &address, nil
}

// clearDefault unsets the user's current default so another address can take it.
func clearDefault(tx *gorm.DB, userID, except uint) error {
	return tx.Model(&models.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, except, true).
		Update("is_default", false).Error
}

func (s *AddressService) CreateAddress(ctx context.Context, user *models.User, in AddressInput) (*models.Address, error) {
	address := models.Address{
		UserID:     user.ID,
		Street:     in.Street,
		City:       in.City,
		State:      in.State,
		Country:    in.Country,
		PostalCode: in.PostalCode,
		IsDefault:  in.IsDefault,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := clearDefault(tx, user.ID, 0); err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (s *AddressService) UpdateAddress(ctx context.Context, user *models.User, id uint, in AddressInput) (*models.Address, error) {
	var address *models.Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if address, err = findAddress(tx, user.ID, id); err != nil {
			return err
		}
		if in.IsDefault {
			if err := clearDefault(tx, user.ID, address.ID); err != nil {
				return err
			}
		}

		address.Street = in.Street
		address.City = in.City
		address.State = in.State
		address.Country = in.Country
		address.PostalCode = in.PostalCode
		address.IsDefault = in.IsDefault
		return tx.Save(address).Error
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// SetDefault makes the address the user's only default.
func (s *AddressService) SetDefault(ctx context.Context, user *models.User, id uint) (*models.Address, error) {
	var address *models.Address
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if address, err = findAddress(tx, user.ID, id); err != nil {
			return err
		}
		if err := clearDefault(tx, user.ID, address.ID); err != nil {
			return err
		}
		address.IsDefault = true
		return tx.Model(address).Update("is_default", true).Error
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress detaches the address from past orders before removing it.
func (s *AddressService) DeleteAddress(ctx context.Context, user *models.User, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		address, err := findAddress(tx, user.ID, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Order{}).Where("address_id = ?", address.ID).Update("address_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(address).Error
	})
}
