package render

import (
	"html"
	"strings"

	"github.com/shopchat/backend/internal/domain"
)

// MaxProductCards caps how many cards a single listing renders
const MaxProductCards = 8

// ProductList renders a header, up to MaxProductCards product cards and a
// footer, always in that order. Missing product fields degrade to omitted
// markup: no image tag without an image, no price suffix without a price,
// no add-to-cart button without an id.
func ProductList(header string, items []domain.Product, footer string, storeDomain string) string {
	var b strings.Builder
	b.WriteString(`<div class="chat-products">`)

	if strings.TrimSpace(header) != "" {
		b.WriteString(`<div class="chat-products-header">`)
		b.WriteString(html.EscapeString(header))
		b.WriteString(`</div>`)
	}

	b.WriteString(`<div class="chat-products-list">`)
	for i, p := range items {
		if i >= MaxProductCards {
			break
		}
		writeCard(&b, p, storeDomain)
	}
	b.WriteString(`</div>`)

	if strings.TrimSpace(footer) != "" {
		b.WriteString(`<div class="chat-products-footer">`)
		b.WriteString(InlineMedia(footer))
		b.WriteString(`</div>`)
	}

	b.WriteString(`</div>`)
	return Sanitize(b.String())
}

func writeCard(b *strings.Builder, p domain.Product, storeDomain string) {
	title := p.DisplayTitle()

	b.WriteString(`<div class="product-card">`)

	if p.Image != nil {
		if src := safeURL(p.Image.URL); src != "" {
			alt := p.Image.AltText
			if alt == "" {
				alt = title
			}
			b.WriteString(`<img class="product-image" src="`)
			b.WriteString(html.EscapeString(src))
			b.WriteString(`" alt="`)
			b.WriteString(html.EscapeString(alt))
			b.WriteString(`" loading="lazy">`)
		}
	}

	b.WriteString(`<div class="product-info"><span class="product-title">`)
	b.WriteString(html.EscapeString(title))
	b.WriteString(`</span>`)
	if amount, currency, ok := p.Price(); ok {
		b.WriteString(`<span class="product-price">`)
		b.WriteString(html.EscapeString(priceSuffix(amount, currency)))
		b.WriteString(`</span>`)
	}
	b.WriteString(`</div>`)

	b.WriteString(`<div class="product-actions">`)
	if href := ProductURL(storeDomain, p.Handle); href != "" {
		b.WriteString(`<a class="product-view" href="`)
		b.WriteString(html.EscapeString(href))
		b.WriteString(`" target="_blank" rel="noopener noreferrer">View</a>`)
	}
	if id := p.CartID(); id != "" {
		b.WriteString(`<button type="button" class="add-to-cart-btn" data-variant="`)
		b.WriteString(html.EscapeString(id))
		b.WriteString(`">Add to Cart</button>`)
	}
	b.WriteString(`</div>`)

	b.WriteString(`</div>`)
}

// ProductURL builds the storefront product page link
func ProductURL(storeDomain, handle string) string {
	storeDomain = strings.TrimSuffix(strings.TrimSpace(storeDomain), "/")
	handle = strings.Trim(strings.TrimSpace(handle), "/")
	if storeDomain == "" || handle == "" {
		return ""
	}
	if !strings.HasPrefix(storeDomain, "http://") && !strings.HasPrefix(storeDomain, "https://") {
		storeDomain = "https://" + storeDomain
	}
	return storeDomain + "/products/" + handle
}

// priceSuffix formats " - CUR amount", dropping the currency when unknown
func priceSuffix(amount, currency string) string {
	if currency == "" {
		return " - " + amount
	}
	return " - " + currency + " " + amount
}
