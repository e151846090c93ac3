package service

import (
	"testing"

	"github.com/minlee/storefront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(price string, qty int) model.CartItem {
	return model.CartItem{Price: price, Qty: qty}
}

func TestCalcCartPrices_EmptyCart(t *testing.T) {
	prices, err := CalcCartPrices(nil)
	require.NoError(t, err)

	assert.Equal(t, "0.00", prices.ItemsPrice)
	assert.Equal(t, "10.00", prices.ShippingPrice)
	assert.Equal(t, "0.00", prices.TaxPrice)
	assert.Equal(t, "10.00", prices.TotalPrice)
}

func TestCalcCartPrices_SingleItem(t *testing.T) {
	prices, err := CalcCartPrices([]model.CartItem{item("50.00", 1)})
	require.NoError(t, err)

	assert.Equal(t, "50.00", prices.ItemsPrice)
	assert.Equal(t, "10.00", prices.ShippingPrice)
	assert.Equal(t, "7.50", prices.TaxPrice)
	assert.Equal(t, "67.50", prices.TotalPrice)
}

func TestCalcCartPrices_MultipleLines(t *testing.T) {
	prices, err := CalcCartPrices([]model.CartItem{
		item("25.00", 3),
		item("9.99", 2),
	})
	require.NoError(t, err)

	assert.Equal(t, "94.98", prices.ItemsPrice)
	assert.Equal(t, "10.00", prices.ShippingPrice)
	assert.Equal(t, "14.25", prices.TaxPrice) // 94.98 * 0.15 = 14.247
	assert.Equal(t, "119.23", prices.TotalPrice)
}

func TestCalcCartPrices_FreeShippingBoundary(t *testing.T) {
	// Exactly at the threshold still pays shipping
	prices, err := CalcCartPrices([]model.CartItem{item("50.00", 2)})
	require.NoError(t, err)
	assert.Equal(t, "100.00", prices.ItemsPrice)
	assert.Equal(t, "10.00", prices.ShippingPrice)

	// One cent over ships free
	prices, err = CalcCartPrices([]model.CartItem{item("100.01", 1)})
	require.NoError(t, err)
	assert.Equal(t, "0.00", prices.ShippingPrice)
	assert.Equal(t, "15.00", prices.TaxPrice) // 100.01 * 0.15 = 15.0015
	assert.Equal(t, "115.01", prices.TotalPrice)
}

func TestCalcCartPrices_RoundsHalfUp(t *testing.T) {
	// 3 * 1.115 = 3.345, which rounds up to 3.35
	prices, err := CalcCartPrices([]model.CartItem{item("1.115", 3)})
	require.NoError(t, err)
	assert.Equal(t, "3.35", prices.ItemsPrice)
}

func TestCalcCartPrices_Pure(t *testing.T) {
	items := []model.CartItem{item("25.00", 3)}

	first, err := CalcCartPrices(items)
	require.NoError(t, err)
	second, err := CalcCartPrices(items)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalcCartPrices_MalformedPrice(t *testing.T) {
	_, err := CalcCartPrices([]model.CartItem{item("not-a-price", 1)})
	assert.Error(t, err)
}
