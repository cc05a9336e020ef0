package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProduct_DisplayTitle(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    string
	}{
		{"title", Product{Title: "Red Shirt", Handle: "red-shirt", ID: "1"}, "Red Shirt"},
		{"handle when title blank", Product{Title: "  ", Handle: "red-shirt", ID: "1"}, "red-shirt"},
		{"id as last resort", Product{ID: "gid://shopify/Product/1"}, "gid://shopify/Product/1"},
		{"nothing set", Product{}, "Untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.DisplayTitle())
		})
	}
}

func TestProduct_Price(t *testing.T) {
	t.Run("variant wins over price range", func(t *testing.T) {
		p := Product{
			Variants:   []Variant{{Price: "499.00", Currency: "INR"}},
			PriceRange: &PriceRange{MinVariantPrice: Money{Amount: "399.00", CurrencyCode: "INR"}},
		}
		amount, currency, ok := p.Price()
		assert.True(t, ok)
		assert.Equal(t, "499.00", amount)
		assert.Equal(t, "INR", currency)
	})

	t.Run("price range when variant has no price", func(t *testing.T) {
		p := Product{
			Variants:   []Variant{{ID: "v1"}},
			PriceRange: &PriceRange{MinVariantPrice: Money{Amount: "25.5", CurrencyCode: "USD"}},
		}
		amount, currency, ok := p.Price()
		assert.True(t, ok)
		assert.Equal(t, "25.5", amount)
		assert.Equal(t, "USD", currency)
	})

	t.Run("no price", func(t *testing.T) {
		_, _, ok := Product{Title: "Hat"}.Price()
		assert.False(t, ok)
	})
}

func TestProduct_NumericPrice(t *testing.T) {
	v, ok := Product{Variants: []Variant{{Price: " 1299.50 "}}}.NumericPrice()
	assert.True(t, ok)
	assert.InDelta(t, 1299.5, v, 0.001)

	_, ok = Product{Variants: []Variant{{Price: "free"}}}.NumericPrice()
	assert.False(t, ok)

	_, ok = Product{}.NumericPrice()
	assert.False(t, ok)
}

func TestProduct_CartID(t *testing.T) {
	assert.Equal(t, "gid://shopify/ProductVariant/9",
		Product{ID: "gid://shopify/Product/1", Variants: []Variant{{ID: "gid://shopify/ProductVariant/9"}}}.CartID())
	assert.Equal(t, "gid://shopify/Product/1",
		Product{ID: "gid://shopify/Product/1", Variants: []Variant{{Price: "10"}}}.CartID())
	assert.Empty(t, Product{}.CartID())
}
