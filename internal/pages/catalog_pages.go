package pages

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Keoroanthony/go-storefront/internal/cache"
	"github.com/Keoroanthony/go-storefront/internal/db"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/services"
	"github.com/Keoroanthony/go-storefront/internal/utils"
)

func catalogService() *services.CatalogService {
	return services.NewCatalogService(db.DB, cache.Default())
}

func allCategories(c *gin.Context) ([]models.Category, error) {
	categories, _, err := catalogService().ListCategories(c.Request.Context(), utils.Page{Page: 1, Limit: utils.MaxPageSize})
	return categories, err
}

// ── categories ──

func CategoryList(c *gin.Context) {
	p := utils.ParsePage(c.Query("page"), c.Query("limit"))
	categories, total, err := catalogService().ListCategories(c.Request.Context(), p)
	if err != nil {
		renderError(c, err)
		return
	}
	page(c, http.StatusOK, "category_list.html", gin.H{"Title": "Categories", "Categories": categories, "Meta": utils.NewMetaData(p, total)})
}

func CategoryDetail(c *gin.Context) {
	svc := catalogService()
	ctx := c.Request.Context()

	category, err := svc.GetCategory(ctx, c.Param("slug"))
	if err != nil {
		renderError(c, err)
		return
	}
	p := utils.ParsePage(c.Query("page"), c.Query("limit"))
	products, total, err := svc.ListProducts(ctx, services.ProductFilter{CategorySlug: category.Slug}, p)
	if err != nil {
		renderError(c, err)
		return
	}
	_, avg, err := svc.CategoryAveragePrice(ctx, category.Slug)
	if err != nil {
		renderError(c, err)
		return
	}

	page(c, http.StatusOK, "category_detail.html", gin.H{
		"Title":        category.Name,
		"Category":     category,
		"Products":     products,
		"AveragePrice": avg.StringFixed(2),
		"Meta":         utils.NewMetaData(p, total),
	})
}

type categoryForm struct {
	Name        string `form:"name" json:"name" binding:"required,max=70"`
	Slug        string `form:"slug" json:"slug" binding:"omitempty,max=100,slug"`
	Description string `form:"description" json:"description"`
	Image       string `form:"image" json:"image" binding:"max=255"`
	ParentID    uint   `form:"parent_id" json:"parent_id"`
}

func (f categoryForm) input() services.CategoryInput {
	return services.CategoryInput{
		Name:        f.Name,
		Slug:        f.Slug,
		Description: optional(f.Description),
		Image:       optional(f.Image),
		ParentID:    optionalID(f.ParentID),
	}
}

func categoryFormPage(c *gin.Context, status int, title string, form categoryForm, errs map[string]string) {
	categories, err := allCategories(c)
	if err != nil {
		renderError(c, err)
		return
	}
	page(c, status, "category_form.html", gin.H{
		"Title":      title,
		"Form":       form,
		"Errors":     errs,
		"Categories": categories,
		"Action":     c.Request.URL.Path,
	})
}

func CategoryNew(c *gin.Context) {
	categoryFormPage(c, http.StatusOK, "New category", categoryForm{}, nil)
}

func CategoryCreate(c *gin.Context) {
	var form categoryForm
	err := c.ShouldBind(&form)
	var category *models.Category
	if err == nil {
		category, err = catalogService().CreateCategory(c.Request.Context(), form.input())
	}
	if err != nil {
		if errs, ok := formErrors(err); ok {
			categoryFormPage(c, http.StatusBadRequest, "New category", form, errs)
			return
		}
		renderError(c, err)
		return
	}
	flash(c, fmt.Sprintf("Category %q created.", category.Name))
	redirect(c, "/categories/"+category.Slug+"/")
}

func CategoryEdit(c *gin.Context) {
	category, err := catalogService().GetCategory(c.Request.Context(), c.Param("slug"))
	if err != nil {
		renderError(c, err)
		return
	}
	form := categoryForm{
		Name:        category.Name,
		Slug:        category.Slug,
		Description: deref(category.Description),
		Image:       deref(category.Image),
	}
	if category.ParentID != nil {
		form.ParentID = *category.ParentID
	}
	categoryFormPage(c, http.StatusOK, "Edit category", form, nil)
}

func CategoryUpdate(c *gin.Context) {
	var form categoryForm
	err := c.ShouldBind(&form)
	var category *models.Category
	if err == nil {
		category, err = catalogService().UpdateCategory(c.Request.Context(), c.Param("slug"), form.input())
	}
	if err != nil {
		if errs, ok := formErrors(err); ok {
			categoryFormPage(c, http.StatusBadRequest, "Edit category", form, errs)
			return
		}
		renderError(c, err)
		return
	}
	flash(c, fmt.Sprintf("Category %q updated.", category.Name))
	redirect(c, "/categories/"+category.Slug+"/")
}

func CategoryConfirmDelete(c *gin.Context) {
	category, err := catalogService().GetCategory(c.Request.Context(), c.Param("slug"))
	if err != nil {
		renderError(c, err)
		return
	}
	confirm(c, "Delete category", fmt.Sprintf("Delete %q and all of its products?", category.Name), "/categories/"+category.Slug+"/")
}

func CategoryDelete(c *gin.Context) {
	if err := catalogService().DeleteCategory(c.Request.Context(), c.Param("slug")); err != nil {
		renderError(c, err)
		return
	}
	flash(c, "Category deleted.")
	redirect(c, "/categories/")
}

// ── products ──

func ProductList(c *gin.Context) {
	filter := services.ProductFilter{
		CategorySlug: c.Query("category"),
		Search:       c.Query("search"),
	}
	if available, err := strconv.ParseBool(c.Query("available")); err == nil {
		filter.Available = &available
	}

	p := utils.ParsePage(c.Query("page"), c.Query("limit"))
	products, total, err := catalogService().ListProducts(c.Request.Context(), filter, p)
	if err != nil {
		renderError(c, err)
		return
	}
	page(c, http.StatusOK, "product_list.html", gin.H{
		"Title":    "Products",
		"Products": products,
		"Filter":   filter,
		"InStock":  filter.Available != nil && *filter.Available,
		"Meta":     utils.NewMetaData(p, total),
	})
}

func ProductDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	product, err := catalogService().GetProduct(ctx, id)
	if err != nil {
		renderError(c, err)
		return
	}
	reviews, _, err := services.NewReviewService(db.DB).ListReviews(ctx, product.ID, utils.Page{Page: 1, Limit: utils.MaxPageSize})
	if err != nil {
		renderError(c, err)
		return
	}
	page(c, http.StatusOK, "product_detail.html", gin.H{"Title": product.Name, "Product": product, "Reviews": reviews})
}

type productForm struct {
	Name        string `form:"name" json:"name" binding:"required,max=100"`
	Price       string `form:"price" json:"price" binding:"required"`
	Stock       int    `form:"stock" json:"stock"`
	CategoryID  uint   `form:"category_id" json:"category_id" binding:"required"`
	Description string `form:"description" json:"description"`
	Image       string `form:"image" json:"image" binding:"max=255"`
}

func (f productForm) input() (services.ProductInput, map[string]string) {
	price, err := decimal.NewFromString(f.Price)
	if err != nil {
		return services.ProductInput{}, map[string]string{"price": "Enter a number."}
	}
	return services.ProductInput{
		Name:        f.Name,
		Price:       price,
		Stock:       f.Stock,
		CategoryID:  f.CategoryID,
		Description: optional(f.Description),
		Image:       optional(f.Image),
	}, nil
}

func productFormPage(c *gin.Context, status int, title string, form productForm, errs map[string]string) {
	categories, err := allCategories(c)
	if err != nil {
		renderError(c, err)
		return
	}
	page(c, status, "product_form.html", gin.H{
		"Title":      title,
		"Form":       form,
		"Errors":     errs,
		"Categories": categories,
		"Action":     c.Request.URL.Path,
	})
}

func ProductNew(c *gin.Context) {
	productFormPage(c, http.StatusOK, "New product", productForm{}, nil)
}

// saveProduct binds the form and runs save, re-rendering the form on invalid input.
func saveProduct(c *gin.Context, title string, save func(services.ProductInput) (*models.Product, error)) (*models.Product, bool) {
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		if errs, ok := formErrors(err); ok {
			productFormPage(c, http.StatusBadRequest, title, form, errs)
			return nil, false
		}
		renderError(c, err)
		return nil, false
	}

	in, errs := form.input()
	if errs != nil {
		productFormPage(c, http.StatusBadRequest, title, form, errs)
		return nil, false
	}

	product, err := save(in)
	if err != nil {
		if errs, ok := formErrors(err); ok {
			productFormPage(c, http.StatusBadRequest, title, form, errs)
			return nil, false
		}
		renderError(c, err)
		return nil, false
	}
	return product, true
}

func ProductCreate(c *gin.Context) {
	product, ok := saveProduct(c, "New product", func(in services.ProductInput) (*models.Product, error) {
		return catalogService().CreateProduct(c.Request.Context(), in)
	})
	if !ok {
		return
	}
	flash(c, fmt.Sprintf("Product %q created.", product.Name))
	redirect(c, fmt.Sprintf("/products/%d/", product.ID))
}

func ProductEdit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := catalogService().GetProduct(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	form := productForm{
		Name:        product.Name,
		Price:       product.Price.StringFixed(2),
		Stock:       product.Stock,
		CategoryID:  product.CategoryID,
		Description: deref(product.Description),
		Image:       deref(product.Image),
	}
	productFormPage(c, http.StatusOK, "Edit product", form, nil)
}

func ProductUpdate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, ok := saveProduct(c, "Edit product", func(in services.ProductInput) (*models.Product, error) {
		return catalogService().UpdateProduct(c.Request.Context(), id, in)
	})
	if !ok {
		return
	}
	flash(c, fmt.Sprintf("Product %q updated.", product.Name))
	redirect(c, fmt.Sprintf("/products/%d/", product.ID))
}

func ProductConfirmDelete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := catalogService().GetProduct(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	confirm(c, "Delete product", fmt.Sprintf("Are you sure you want to delete %q?", product.Name), fmt.Sprintf("/products/%d/", product.ID))
}

func ProductDelete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := catalogService().DeleteProduct(c.Request.Context(), id); err != nil {
		if errs, ok := formErrors(err); ok {
			flash(c, errs["__all__"])
			redirect(c, fmt.Sprintf("/products/%d/", id))
			return
		}
		renderError(c, err)
		return
	}
	flash(c, "Product deleted.")
	redirect(c, "/products/")
}
