package pages

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/db"
	"github.com/Keoroanthony/go-storefront/internal/services"
)

func addressService() *services.AddressService {
	return services.NewAddressService(db.DB)
}

func AddressList(c *gin.Context) {
	addresses, err := addressService().ListAddresses(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		renderError(c, err)
		return
	}
	page(c, http.StatusOK, "address_list.html", gin.H{"Title": "My addresses", "Addresses": addresses})
}

func AddressNew(c *gin.Context) {
	page(c, http.StatusOK, "address_form.html", gin.H{"Title": "Add address", "Form": services.AddressInput{}, "Action": "/profile/addresses/add/"})
}

func AddressCreate(c *gin.Context) {
	var form services.AddressInput
	if err := c.ShouldBind(&form); err != nil {
		addressFormError(c, err, form, "Add address", "/profile/addresses/add/")
		return
	}
	if _, err := addressService().CreateAddress(c.Request.Context(), auth.CurrentUser(c), form); err != nil {
		addressFormError(c, err, form, "Add address", "/profile/addresses/add/")
		return
	}
	flash(c, "Address added.")
	redirect(c, "/profile/addresses/")
}

func AddressEdit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	address, err := addressService().GetAddress(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		renderError(c, err)
		return
	}

	form := services.AddressInput{
		Street:     address.Street,
		City:       address.City,
		State:      address.State,
		Country:    address.Country,
		PostalCode: address.PostalCode,
		IsDefault:  address.IsDefault,
	}
	page(c, http.StatusOK, "address_form.html", gin.H{"Title": "Edit address", "Form": form, "Action": c.Request.URL.Path})
}

func AddressUpdate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var form services.AddressInput
	if err := c.ShouldBind(&form); err != nil {
		addressFormError(c, err, form, "Edit address", c.Request.URL.Path)
		return
	}
	if _, err := addressService().UpdateAddress(c.Request.Context(), auth.CurrentUser(c), id, form); err != nil {
		addressFormError(c, err, form, "Edit address", c.Request.URL.Path)
		return
	}
	flash(c, "Address updated.")
	redirect(c, "/profile/addresses/")
}

func addressFormError(c *gin.Context, err error, form services.AddressInput, title, action string) {
	errs, ok := formErrors(err)
	if !ok {
		renderError(c, err)
		return
	}
	page(c, http.StatusBadRequest, "address_form.html", gin.H{"Title": title, "Form": form, "Errors": errs, "Action": action})
}

func AddressConfirmDelete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	address, err := addressService().GetAddress(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		renderError(c, err)
		return
	}
	confirm(c, "Delete address", "Are you sure you want to delete "+address.Street+", "+address.City+"?", "/profile/addresses/")
}

func AddressDelete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := addressService().DeleteAddress(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		renderError(c, err)
		return
	}
	flash(c, "Address deleted.")
	redirect(c, "/profile/addresses/")
}
