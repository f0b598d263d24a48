package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func ListPayments(c *gin.Context) {
	page := pageFromQuery(c)
	payments, total, err := paymentService().ListPayments(c.Request.Context(), currentUser(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, payments, page, total)
}

func GetPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	payment, err := paymentService().GetPayment(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
