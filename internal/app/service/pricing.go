package service

import (
	"github.com/minlee/storefront-backend/internal/app/model"
	"github.com/minlee/storefront-backend/pkg/money"
	"github.com/shopspring/decimal"
)

// Pricing policy constants. Orders above the threshold ship free; tax is a
// flat rate on the item subtotal.
var (
	freeShippingThreshold = decimal.NewFromInt(100)
	flatShippingRate      = decimal.NewFromInt(10)
	taxRate               = decimal.RequireFromString("0.15")
)

// CartPrices holds the four derived price fields as decimal strings.
type CartPrices struct {
	ItemsPrice    string
	ShippingPrice string
	TaxPrice      string
	TotalPrice    string
}

// CalcCartPrices derives the price fields from the item list. It is a pure
// function: recomputable from the stored items at any time, with no side
// effects and no hidden state.
func CalcCartPrices(items []model.CartItem) (CartPrices, error) {
	itemsPrice := money.Zero
	for _, item := range items {
		price, err := money.Parse(item.Price)
		if err != nil {
			return CartPrices{}, err
		}
		itemsPrice = itemsPrice.Add(price.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	itemsPrice = money.Round2(itemsPrice)

	shippingPrice := flatShippingRate
	if itemsPrice.GreaterThan(freeShippingThreshold) {
		shippingPrice = money.Zero
	}
	shippingPrice = money.Round2(shippingPrice)

	taxPrice := money.Round2(itemsPrice.Mul(taxRate))
	totalPrice := money.Round2(itemsPrice.Add(shippingPrice).Add(taxPrice))

	return CartPrices{
		ItemsPrice:    money.Format(itemsPrice),
		ShippingPrice: money.Format(shippingPrice),
		TaxPrice:      money.Format(taxPrice),
		TotalPrice:    money.Format(totalPrice),
	}, nil
}
