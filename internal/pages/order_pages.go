package pages

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Keoroanthony/go-storefront/internal/apperrors"
	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/db"
	"github.com/Keoroanthony/go-storefront/internal/events"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/notifier"
	"github.com/Keoroanthony/go-storefront/internal/services"
	"github.com/Keoroanthony/go-storefront/internal/utils"
)

const orderFormRows = 3

func orderService() *services.OrderService {
	return services.NewOrderService(db.DB, events.Default(), notifier.Default())
}

func orderURL(id uint) string {
	return fmt.Sprintf("/orders/%d/", id)
}

func OrderList(c *gin.Context) {
	p := utils.ParsePage(c.Query("page"), c.Query("limit"))
	orders, total, err := orderService().ListOrders(c.Request.Context(), auth.CurrentUser(c), p)
	if err != nil {
		renderError(c, err)
		return
	}
	page(c, http.StatusOK, "order_list.html", gin.H{"Title": "My orders", "Orders": orders, "Meta": utils.NewMetaData(p, total)})
}

func OrderDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := orderService().GetOrder(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		renderError(c, err)
		return
	}
	page(c, http.StatusOK, "order_detail.html", gin.H{"Title": fmt.Sprintf("Order #%d", order.ID), "Order": order})
}

// orderForm carries parallel product_id/quantity rows; rows without a product are ignored.
type orderForm struct {
	AddressID  uint   `form:"address_id" json:"address_id" binding:"required"`
	ProductIDs []uint `form:"product_id" json:"product_id"`
	Quantities []int  `form:"quantity" json:"quantity"`
}

func (f orderForm) input() services.CreateOrderInput {
	in := services.CreateOrderInput{AddressID: f.AddressID}
	for i, productID := range f.ProductIDs {
		if productID == 0 {
			continue
		}
		line := services.OrderLineInput{ProductID: productID}
		if i < len(f.Quantities) {
			line.Quantity = f.Quantities[i]
		}
		in.Items = append(in.Items, line)
	}
	return in
}

func orderFormPage(c *gin.Context, status int, form orderForm, errs map[string]string) {
	ctx := c.Request.Context()
	addresses, err := addressService().ListAddresses(ctx, auth.CurrentUser(c))
	if err != nil {
		renderError(c, err)
		return
	}
	available := true
	products, _, err := catalogService().ListProducts(ctx, services.ProductFilter{Available: &available}, utils.Page{Page: 1, Limit: utils.MaxPageSize})
	if err != nil {
		renderError(c, err)
		return
	}

	rows := make([]int, orderFormRows)
	for i := range rows {
		rows[i] = i
	}
	page(c, status, "order_form.html", gin.H{
		"Title":     "Create a New Order",
		"Form":      form,
		"Errors":    errs,
		"Addresses": addresses,
		"Products":  products,
		"Rows":      rows,
	})
}

func OrderNew(c *gin.Context) {
	orderFormPage(c, http.StatusOK, orderForm{}, nil)
}

func OrderCreate(c *gin.Context) {
	var form orderForm
	err := c.ShouldBind(&form)
	if err == nil {
		var order *models.Order
		order, err = orderService().CreateOrder(c.Request.Context(), auth.CurrentUser(c), form.input())
		if err == nil {
			flash(c, fmt.Sprintf("Order #%d placed.", order.ID))
			redirect(c, orderURL(order.ID))
			return
		}
	}

	errs, ok := formErrors(err)
	if !ok && apperrors.KindOf(err) == apperrors.KindNotFound {
		appErr, _ := apperrors.As(err)
		errs, ok = map[string]string{"__all__": appErr.Message}, true
		for k, v := range appErr.Fields {
			errs[k] = v
		}
	}
	if !ok {
		renderError(c, err)
		return
	}
	orderFormPage(c, http.StatusBadRequest, form, errs)
}

func OrderConfirmCancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := orderService().GetOrder(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		renderError(c, err)
		return
	}
	confirm(c, "Cancel order", fmt.Sprintf("Cancel order #%d?", order.ID), orderURL(order.ID))
}

func OrderCancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := orderService().CancelOrder(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		renderError(c, err)
		return
	}
	flash(c, "Your order has been cancelled.")
	redirect(c, "/orders/")
}

func OrderCheckout(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := orderService().Checkout(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		renderError(c, err)
		return
	}
	redirect(c, orderURL(id))
}

func OrderConfirmDelete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := orderService().GetOrder(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		renderError(c, err)
		return
	}
	confirm(c, "Delete order", fmt.Sprintf("Permanently delete order #%d?", order.ID), orderURL(order.ID))
}

func OrderDelete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := orderService().DeleteOrder(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		renderError(c, err)
		return
	}
	flash(c, "Order deleted.")
	redirect(c, "/orders/")
}

// PaymentCreate pays for an order and returns to it. An order that is not
// awaiting payment is left untouched.
func PaymentCreate(c *gin.Context) {
	id, ok := pathID(c, "order_id")
	if !ok {
		return
	}

	svc := services.NewPaymentService(db.DB, events.Default(), notifier.Default())
	_, _, err := svc.Pay(c.Request.Context(), auth.CurrentUser(c), id)
	switch {
	case err == nil:
		flash(c, "Payment received. Your order is being processed.")
	case errors.Is(err, apperrors.ErrPaymentNotDue):
		flash(c, "This order is not awaiting payment.")
	default:
		renderError(c, err)
		return
	}
	redirect(c, orderURL(id))
}
