package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Keoroanthony/go-storefront/internal/db"
	"github.com/Keoroanthony/go-storefront/internal/services"
)

func addressService() *services.AddressService {
	return services.NewAddressService(db.DB)
}

func ListAddresses(c *gin.Context) {
	addresses, err := addressService().ListAddresses(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": addresses})
}

func GetAddress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	address, err := addressService().GetAddress(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, address)
}

func CreateAddress(c *gin.Context) {
	var req services.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	address, err := addressService().CreateAddress(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, address)
}

func UpdateAddress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.AddressInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	address, err := addressService().UpdateAddress(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, address)
}

func SetDefaultAddress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	address, err := addressService().SetDefault(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, address)
}

func DeleteAddress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := addressService().DeleteAddress(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
