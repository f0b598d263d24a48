package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Keoroanthony/go-storefront/internal/apperrors"
	"github.com/Keoroanthony/go-storefront/internal/db/dbtest"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/services"
)

func TestAddresses(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn)
	svc := services.NewAddressService(conn)
	ctx := context.Background()

	input := services.AddressInput{Street: "22 Kenyatta Ave", City: "Mombasa", State: "Mombasa", Country: "Kenya", PostalCode: "80100"}

	defaults := func(t *testing.T) []uint {
		var ids []uint
		require.NoError(t, conn.Model(&models.Address{}).Where("user_id = ? AND is_default = ?", fx.User.ID, true).Pluck("id", &ids).Error)
		return ids
	}

	t.Run("a new default replaces the old one", func(t *testing.T) {
		in := input
		in.IsDefault = true
		address, err := svc.CreateAddress(ctx, &fx.User, in)
		require.NoError(t, err)

		assert.Equal(t, []uint{address.ID}, defaults(t))

		addresses, err := svc.ListAddresses(ctx, &fx.User)
		require.NoError(t, err)
		require.Len(t, addresses, 2)
		assert.Equal(t, address.ID, addresses[0].ID)
	})

	t.Run("set default switches back", func(t *testing.T) {
		_, err := svc.SetDefault(ctx, &fx.User, fx.Address.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{fx.Address.ID}, defaults(t))
	})

	t.Run("other users' addresses are invisible", func(t *testing.T) {
		_, err := svc.GetAddress(ctx, &fx.Other, fx.Address.ID)
		assert.ErrorIs(t, err, apperrors.ErrAddressNotFound)

		_, err = svc.UpdateAddress(ctx, &fx.Other, fx.Address.ID, input)
		assert.ErrorIs(t, err, apperrors.ErrAddressNotFound)

		assert.ErrorIs(t, svc.DeleteAddress(ctx, &fx.Other, fx.Address.ID), apperrors.ErrAddressNotFound)
	})

	t.Run("update", func(t *testing.T) {
		in := input
		in.IsDefault = true
		address, err := svc.UpdateAddress(ctx, &fx.User, fx.Address.ID, in)
		require.NoError(t, err)
		assert.Equal(t, "Mombasa", address.City)
		assert.Equal(t, []uint{fx.Address.ID}, defaults(t))
	})

	t.Run("delete keeps the order and clears its address", func(t *testing.T) {
		orders := services.NewOrderService(conn, nil, nil)
		order := newPlacedOrder(t, orders, fx)

		require.NoError(t, svc.DeleteAddress(ctx, &fx.User, fx.Address.ID))

		var stored models.Order
		require.NoError(t, conn.First(&stored, order.ID).Error)
		assert.Nil(t, stored.AddressID)
	})
}
