package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Keoroanthony/go-storefront/internal/apperrors"
	"github.com/Keoroanthony/go-storefront/internal/cache"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/utils"
)

const (
	categoriesNamespace = "categories"
	productsNamespace   = "products"
)

type CatalogService struct {
	db    *gorm.DB
	cache *cache.Store
}

func NewCatalogService(db *gorm.DB, c *cache.Store) *CatalogService {
	return &CatalogService{db: db, cache: c}
}

type CategoryInput struct {
	Name        string  `json:"name" form:"name" binding:"required,max=70"`
	Slug        string  `json:"slug" form:"slug" binding:"omitempty,max=100,slug"`
	Description *string `json:"description" form:"description"`
	Image       *string `json:"image" form:"image" binding:"omitempty,max=255"`
	ParentID    *uint   `json:"parent_id" form:"parent_id"`
}

type ProductInput struct {
	Name        string          `json:"name" form:"name" binding:"required,max=100"`
	Price       decimal.Decimal `json:"price" form:"price"`
	Stock       int             `json:"stock" form:"stock"`
	CategoryID  uint            `json:"category_id" form:"category_id" binding:"required"`
	Description *string         `json:"description" form:"description"`
	Image       *string         `json:"image" form:"image" binding:"omitempty,max=255"`
}

type ProductFilter struct {
	CategorySlug string
	Available    *bool
	Search       string
}

func (s *CatalogService) ListCategories(ctx context.Context, page utils.Page) ([]models.Category, int64, error) {
	key := s.cache.VersionedKey(ctx, categoriesNamespace, fmt.Sprintf("list:%d:%d", page.Page, page.Limit))
	var cached struct {
		Items []models.Category
		Total int64
	}
	if s.cache.Get(ctx, key, &cached) {
		return cached.Items, cached.Total, nil
	}

	tx := s.db.WithContext(ctx).Model(&models.Category{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var categories []models.Category
	if err := tx.Order("name").Order("id").Offset(page.Offset()).Limit(page.Limit).Find(&categories).Error; err != nil {
		return nil, 0, err
	}

	cached.Items, cached.Total = categories, total
	s.cache.Set(ctx, key, cached)
	return categories, total, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	key := s.cache.VersionedKey(ctx, categoriesNamespace, "slug:"+slug)
	var category models.Category
	if s.cache.Get(ctx, key, &category) {
		return &category, nil
	}

	if err := s.db.WithContext(ctx).Preload("Parent").Preload("Children").Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, notFoundAs(err, apperrors.ErrCategoryNotFound)
	}
	s.cache.Set(ctx, key, category)
	return &category, nil
}

func (s *CatalogService) checkParent(tx *gorm.DB, parentID *uint, self uint) error {
	if parentID == nil {
		return nil
	}
	if self != 0 {
		subtree, err := utils.CategoryTreeIDs(tx, self)
		if err != nil {
			return err
		}
		for _, id := range subtree {
			if id == *parentID {
				return apperrors.Validation("a category cannot be nested under itself")
			}
		}
	}
	var parent models.Category
	if err := tx.First(&parent, *parentID).Error; err != nil {
		return notFoundAs(err, apperrors.ErrCategoryNotFound.WithField("parent_id",
			fmt.Sprintf("Parent category not found with ID: %d", *parentID)))
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	tx := s.db.WithContext(ctx)
	if err := s.checkParent(tx, in.ParentID, 0); err != nil {
		return nil, err
	}

	category := models.Category{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Image:       in.Image,
		ParentID:    in.ParentID,
	}
	if err := tx.Create(&category).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicateSlug.WithField("slug", category.Slug)
		}
		return nil, err
	}

	s.cache.Bump(ctx, categoriesNamespace)
	return &category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, slug string, in CategoryInput) (*models.Category, error) {
	tx := s.db.WithContext(ctx)

	var category models.Category
	if err := tx.Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, notFoundAs(err, apperrors.ErrCategoryNotFound)
	}
	if err := s.checkParent(tx, in.ParentID, category.ID); err != nil {
		return nil, err
	}

	category.Name = in.Name
	if in.Slug != "" {
		category.Slug = in.Slug
	}
	category.Description = in.Description
	category.Image = in.Image
	category.ParentID = in.ParentID

	if err := tx.Save(&category).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicateSlug.WithField("slug", category.Slug)
		}
		return nil, err
	}

	s.cache.Bump(ctx, categoriesNamespace)
	s.cache.Bump(ctx, productsNamespace)
	return &category, nil
}

// DeleteCategory removes the category together with its products.
func (s *CatalogService) DeleteCategory(ctx context.Context, slug string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Where("slug = ?", slug).First(&category).Error; err != nil {
			return notFoundAs(err, apperrors.ErrCategoryNotFound)
		}

		var productIDs []uint
		if err := tx.Model(&models.Product{}).Where("category_id = ?", category.ID).Pluck("id", &productIDs).Error; err != nil {
			return err
		}
		if len(productIDs) > 0 {
			var ordered int64
			if err := tx.Model(&models.OrderItem{}).Where("product_id IN ?", productIDs).Count(&ordered).Error; err != nil {
				return err
			}
			if ordered > 0 {
				return apperrors.ErrCategoryInUse
			}
			if err := tx.Where("product_id IN ?", productIDs).Delete(&models.Review{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", productIDs).Delete(&models.Product{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", category.ID).Update("parent_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrCategoryInUse.Wrap(err)
		}
		return err
	}

	s.cache.Bump(ctx, categoriesNamespace)
	s.cache.Bump(ctx, productsNamespace)
	return nil
}

// CategoryAveragePrice averages product prices over the category and its descendants.
func (s *CatalogService) CategoryAveragePrice(ctx context.Context, slug string) (*models.Category, decimal.Decimal, error) {
	tx := s.db.WithContext(ctx)

	var category models.Category
	if err := tx.Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, decimal.Zero, notFoundAs(err, apperrors.ErrCategoryNotFound)
	}

	categoryIDs, err := utils.CategoryTreeIDs(tx, category.ID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	var prices []decimal.Decimal
	if err := tx.Model(&models.Product{}).Where("category_id IN ?", categoryIDs).Pluck("price", &prices).Error; err != nil {
		return nil, decimal.Zero, err
	}
	if len(prices) == 0 {
		return &category, decimal.Zero, nil
	}
	return &category, decimal.Avg(prices[0], prices[1:]...).Round(2), nil
}

func validateProduct(tx *gorm.DB, in ProductInput) error {
	if in.Price.IsNegative() {
		return apperrors.ErrNegativePrice
	}
	if in.Stock < 0 {
		return apperrors.ErrNegativeStock
	}
	var category models.Category
	if err := tx.First(&category, in.CategoryID).Error; err != nil {
		return notFoundAs(err, apperrors.ErrCategoryNotFound.WithField("category_id",
			fmt.Sprintf("Category not found with ID: %d", in.CategoryID)))
	}
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter ProductFilter, page utils.Page) ([]models.Product, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.Product{})

	if filter.CategorySlug != "" {
		var category models.Category
		if err := s.db.WithContext(ctx).Where("slug = ?", filter.CategorySlug).First(&category).Error; err != nil {
			return nil, 0, notFoundAs(err, apperrors.ErrCategoryNotFound)
		}
		ids, err := utils.CategoryTreeIDs(s.db.WithContext(ctx), category.ID)
		if err != nil {
			return nil, 0, err
		}
		tx = tx.Where("category_id IN ?", ids)
	}
	if filter.Available != nil {
		tx = tx.Where("is_available = ?", *filter.Available)
	}
	if filter.Search != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := tx.Preload("Category").
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	key := s.cache.VersionedKey(ctx, productsNamespace, fmt.Sprintf("id:%d", id))
	var product models.Product
	if s.cache.Get(ctx, key, &product) {
		return &product, nil
	}

	if err := s.db.WithContext(ctx).Preload("Category").First(&product, id).Error; err != nil {
		return nil, notFoundAs(err, apperrors.ErrProductNotFound)
	}
	s.cache.Set(ctx, key, product)
	return &product, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	tx := s.db.WithContext(ctx)
	if err := validateProduct(tx, in); err != nil {
		return nil, err
	}

	product := models.Product{
		Name:        in.Name,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		Description: in.Description,
		Image:       in.Image,
	}
	if err := tx.Create(&product).Error; err != nil {
		return nil, err
	}

	if err := tx.Preload("Category").First(&product, product.ID).Error; err != nil {
		return nil, err
	}
	s.cache.Bump(ctx, productsNamespace)
	return &product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	tx := s.db.WithContext(ctx)

	var product models.Product
	if err := tx.First(&product, id).Error; err != nil {
		return nil, notFoundAs(err, apperrors.ErrProductNotFound)
	}
	if err := validateProduct(tx, in); err != nil {
		return nil, err
	}

	product.Name = in.Name
	product.Price = in.Price
	product.Stock = in.Stock
	product.CategoryID = in.CategoryID
	product.Category = nil
	product.Description = in.Description
	product.Image = in.Image

	if err := tx.Save(&product).Error; err != nil {
		return nil, err
	}
	if err := tx.Preload("Category").First(&product, product.ID).Error; err != nil {
		return nil, err
	}
	s.cache.Bump(ctx, productsNamespace)
	return &product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, id).Error; err != nil {
			return notFoundAs(err, apperrors.ErrProductNotFound)
		}
		var ordered int64
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&ordered).Error; err != nil {
			return err
		}
		if ordered > 0 {
			return apperrors.ErrProductInUse
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		return err
	}
	s.cache.Bump(ctx, productsNamespace)
	return nil
}
