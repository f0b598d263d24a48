package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Keoroanthony/go-storefront/internal/apperrors"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/utils"
)

type ReviewInput struct {
	ProductID uint    `json:"product_id" form:"product_id" binding:"required"`
	Rating    int     `json:"rating" form:"rating" binding:"required,min=1,max=5"`
	Comment   *string `json:"comment" form:"comment"`
}

type ReviewUpdateInput struct {
	Rating  int     `json:"rating" form:"rating" binding:"required,min=1,max=5"`
	Comment *string `json:"comment" form:"comment"`
}

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// ListReviews returns reviews newest first, optionally for one product.
func (s *ReviewService) ListReviews(ctx context.Context, productID uint, page utils.Page) ([]models.Review, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.Review{})
	if productID != 0 {
		tx = tx.Where("product_id = ?", productID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := tx.Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (s *ReviewService) GetReview(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).Preload("Product").First(&review, id).Error; err != nil {
		return nil, notFoundAs(err, apperrors.ErrReviewNotFound)
	}
	return &review, nil
}

// CreateReview allows one review per user and product.
func (s *ReviewService) CreateReview(ctx context.Context, user *models.User, in ReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperrors.ErrInvalidRating
	}

	tx := s.db.WithContext(ctx)

	var product models.Product
	if err := tx.First(&product, in.ProductID).Error; err != nil {
		return nil, notFoundAs(err, apperrors.ErrProductNotFound)
	}

	var existing models.Review
	err := tx.Where("user_id = ? AND product_id = ?", user.ID, in.ProductID).First(&existing).Error
	switch {
	case err == nil:
		return nil, apperrors.ErrDuplicateReview
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	review := models.Review{
		UserID:    user.ID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}
	if err := tx.Create(&review).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicateReview.Wrap(err)
		}
		return nil, err
	}
	return &review, nil
}

func (s *ReviewService) owned(ctx context.Context, user *models.User, id uint) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, notFoundAs(err, apperrors.ErrReviewNotFound)
	}
	if review.UserID != user.ID {
		return nil, apperrors.ErrNotYourReview
	}
	return &review, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, user *models.User, id uint, in ReviewUpdateInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperrors.ErrInvalidRating
	}
	review, err := s.owned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	review.Rating = in.Rating
	review.Comment = in.Comment
	if err := s.db.WithContext(ctx).Save(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, user *models.User, id uint) error {
	review, err := s.owned(ctx, user, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(review).Error
}
