package pages

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/db"
	"github.com/Keoroanthony/go-storefront/internal/services"
	"github.com/Keoroanthony/go-storefront/internal/utils"
)

func reviewService() *services.ReviewService {
	return services.NewReviewService(db.DB)
}

func ReviewList(c *gin.Context) {
	productID, _ := strconv.ParseUint(c.Query("product_id"), 10, 64)
	p := utils.ParsePage(c.Query("page"), c.Query("limit"))

	reviews, total, err := reviewService().ListReviews(c.Request.Context(), uint(productID), p)
	if err != nil {
		renderError(c, err)
		return
	}
	page(c, http.StatusOK, "review_list.html", gin.H{"Title": "Reviews", "Reviews": reviews, "Meta": utils.NewMetaData(p, total)})
}

func ReviewDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	review, err := reviewService().GetReview(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	page(c, http.StatusOK, "review_detail.html", gin.H{"Title": "Review", "Review": review})
}

func reviewFormPage(c *gin.Context, status int, form services.ReviewInput, errs map[string]string) {
	product, err := catalogService().GetProduct(c.Request.Context(), form.ProductID)
	if err != nil {
		renderError(c, err)
		return
	}
	page(c, status, "review_form.html", gin.H{"Title": "Review " + product.Name, "Product": product, "Form": form, "Errors": errs})
}

// ReviewNew expects ?product_id= naming the product under review.
func ReviewNew(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Query("product_id"), 10, 64)
	if err != nil || productID == 0 {
		page(c, http.StatusNotFound, "error.html", gin.H{"Title": "Not Found", "Message": "Choose a product to review."})
		return
	}
	reviewFormPage(c, http.StatusOK, services.ReviewInput{ProductID: uint(productID), Rating: 5}, nil)
}

func ReviewCreate(c *gin.Context) {
	var form services.ReviewInput
	err := c.ShouldBind(&form)
	if err == nil {
		_, err = reviewService().CreateReview(c.Request.Context(), auth.CurrentUser(c), form)
		if err == nil {
			flash(c, "Thanks for your review!")
			redirect(c, fmt.Sprintf("/products/%d/", form.ProductID))
			return
		}
	}

	errs, ok := formErrors(err)
	if !ok {
		renderError(c, err)
		return
	}
	if form.ProductID == 0 {
		page(c, http.StatusBadRequest, "error.html", gin.H{"Title": "Bad Request", "Message": "Choose a product to review."})
		return
	}
	reviewFormPage(c, http.StatusBadRequest, form, errs)
}
