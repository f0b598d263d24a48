package models

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/Keoroanthony/go-storefront/internal/apperrors"
)

type Category struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:70;not null" json:"name"`
	Slug        string     `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description *string    `json:"description"`
	Image       *string    `gorm:"size:255" json:"image"`
	ParentID    *uint      `gorm:"index" json:"parent_id"` // nullable
	Parent      *Category  `json:"parent,omitempty"`
	Children    []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeSave fills in the slug from the name when none was supplied. A name
// with nothing to slugify is rejected.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	if c.Slug == "" {
		c.Slug = slug.Make(c.Name)
	}
	if c.Slug == "" {
		return apperrors.ErrEmptySlug.WithField("name", "Enter a name containing letters or numbers.")
	}
	return nil
}
