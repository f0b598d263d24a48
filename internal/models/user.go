package models

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
	RoleSeller   Role = "SELLER"
)

// SelfAssignable reports whether a user may pick this role at registration.
func (r Role) SelfAssignable() bool {
	return r == RoleCustomer || r == RoleSeller
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Name         string    `gorm:"size:255" json:"name"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Role         Role      `gorm:"size:50;not null" json:"role"`
	Bio          *string   `json:"bio"`
	Phone        *string   `gorm:"size:20" json:"phone"`
	ProfileImage *string   `gorm:"size:255" json:"profile_image"`
	Slug         string    `gorm:"size:170;uniqueIndex;not null" json:"slug"`
	OIDCSubject  *string   `gorm:"size:255;uniqueIndex" json:"-"` // OpenID Connect identifier
	Addresses    []Address `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	if u.Slug == "" {
		s, err := uniqueUserSlug(tx, u.Username, u.ID)
		if err != nil {
			return err
		}
		u.Slug = s
	}
	return nil
}

// uniqueUserSlug slugifies username and appends -2, -3, ... until no other
// user holds the slug. Usernames differing only in case or punctuation
// share a base slug.
func uniqueUserSlug(tx *gorm.DB, username string, id uint) (string, error) {
	base := slug.Make(username)
	if base == "" {
		base = "user"
	}

	conn := tx.Session(&gorm.Session{NewDB: true})
	candidate := base
	for n := 2; ; n++ {
		var count int64
		if err := conn.Model(&User{}).Where("slug = ? AND id <> ?", candidate, id).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Address struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index;uniqueIndex:idx_addresses_one_default,where:is_default = true" json:"user_id"`
	Street     string    `gorm:"size:255;not null" json:"street"`
	City       string    `gorm:"size:100;not null" json:"city"`
	State      string    `gorm:"size:100;not null" json:"state"`
	Country    string    `gorm:"size:100;not null" json:"country"`
	PostalCode string    `gorm:"size:20;not null" json:"postal_code"`
	IsDefault  bool      `gorm:"not null;uniqueIndex:idx_addresses_one_default,where:is_default = true" json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
