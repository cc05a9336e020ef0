package domain

import (
	"strconv"
	"strings"
)

// Product is a storefront product as seen by the chat pipeline.
// Every field is optional; upstream payloads are frequently partial.
type Product struct {
	ID          string      `json:"id,omitempty"`
	Title       string      `json:"title,omitempty"`
	Handle      string      `json:"handle,omitempty"`
	Description string      `json:"description,omitempty"`
	ProductType string      `json:"productType,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Image       *Image      `json:"image,omitempty"`
	Variants    []Variant   `json:"variants,omitempty"`
	PriceRange  *PriceRange `json:"priceRange,omitempty"`
}

// Image is a product image reference
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
}

// Variant is a purchasable SKU of a product
type Variant struct {
	ID       string `json:"id,omitempty"`
	Price    string `json:"price,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Money is an amount with its ISO currency code
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode,omitempty"`
}

// PriceRange carries the cheapest variant price of a product
type PriceRange struct {
	MinVariantPrice Money `json:"minVariantPrice"`
}

// DisplayTitle returns the best human-readable name for the product
func (p Product) DisplayTitle() string {
	for _, s := range []string{p.Title, p.Handle, p.ID} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return "Untitled"
}

// Price returns the display price and currency, preferring the first variant
// over the price range. ok is false when neither carries an amount.
func (p Product) Price() (amount, currency string, ok bool) {
	if len(p.Variants) > 0 && p.Variants[0].Price != "" {
		return p.Variants[0].Price, p.Variants[0].Currency, true
	}
	if p.PriceRange != nil && p.PriceRange.MinVariantPrice.Amount != "" {
		return p.PriceRange.MinVariantPrice.Amount, p.PriceRange.MinVariantPrice.CurrencyCode, true
	}
	return "", "", false
}

// NumericPrice parses Price into a float for range filtering
func (p Product) NumericPrice() (float64, bool) {
	amount, _, ok := p.Price()
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CartID returns the identifier an add-to-cart action should carry:
// the first variant id when known, otherwise the product id.
func (p Product) CartID() string {
	if len(p.Variants) > 0 && p.Variants[0].ID != "" {
		return p.Variants[0].ID
	}
	return p.ID
}
