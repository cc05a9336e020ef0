package usecase

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopchat/backend/internal/domain"
)

// productsFromArray maps the object elements of a decoded JSON array to
// products. Non-object elements are skipped.
func productsFromArray(arr []any) []domain.Product {
	products := make([]domain.Product, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			products = append(products, productFromMap(m))
		}
	}
	return products
}

// productFromMap tolerantly converts a loosely shaped product object.
// It accepts both flat REST-style fields and storefront GraphQL shapes.
func productFromMap(m map[string]any) domain.Product {
	p := domain.Product{
		ID:          firstScalar(m, "id", "product_id"),
		Title:       firstScalar(m, "title", "name"),
		Handle:      firstScalar(m, "handle"),
		Description: firstScalar(m, "description"),
		ProductType: firstScalar(m, "productType", "product_type"),
		Tags:        tagsOf(m["tags"]),
		Image:       imageOf(m),
		Variants:    variantsOf(m["variants"]),
	}

	if pr, ok := m["priceRange"].(map[string]any); ok {
		if minPrice, ok := pr["minVariantPrice"].(map[string]any); ok {
			amount := scalarString(minPrice["amount"])
			if amount != "" {
				p.PriceRange = &domain.PriceRange{MinVariantPrice: domain.Money{
					Amount:       amount,
					CurrencyCode: scalarString(minPrice["currencyCode"]),
				}}
			}
		}
	}

	if len(p.Variants) == 0 {
		if price := scalarString(m["price"]); price != "" {
			p.Variants = []domain.Variant{{Price: price, Currency: firstScalar(m, "currency", "currencyCode")}}
		}
	}

	return p
}

func variantsOf(v any) []domain.Variant {
	var items []any
	switch val := v.(type) {
	case []any:
		items = val
	case map[string]any:
		items = edgeNodes(val)
	}

	variants := make([]domain.Variant, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		variant := domain.Variant{
			ID:       scalarString(m["id"]),
			Currency: firstScalar(m, "currency", "currencyCode"),
		}
		switch price := m["price"].(type) {
		case map[string]any:
			variant.Price = scalarString(price["amount"])
			if variant.Currency == "" {
				variant.Currency = scalarString(price["currencyCode"])
			}
		default:
			variant.Price = scalarString(price)
		}
		if pv, ok := m["priceV2"].(map[string]any); ok && variant.Price == "" {
			variant.Price = scalarString(pv["amount"])
			if variant.Currency == "" {
				variant.Currency = scalarString(pv["currencyCode"])
			}
		}
		variants = append(variants, variant)
	}
	if len(variants) == 0 {
		return nil
	}
	return variants
}

// imageOf resolves featuredImage, image or images[0] in that order
func imageOf(m map[string]any) *domain.Image {
	for _, key := range []string{"featuredImage", "image"} {
		if img := imageFrom(m[key]); img != nil {
			return img
		}
	}
	switch images := m["images"].(type) {
	case []any:
		if len(images) > 0 {
			return imageFrom(images[0])
		}
	case map[string]any:
		if nodes := edgeNodes(images); len(nodes) > 0 {
			return imageFrom(nodes[0])
		}
	}
	return nil
}

func imageFrom(v any) *domain.Image {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) != "" {
			return &domain.Image{URL: strings.TrimSpace(val)}
		}
	case map[string]any:
		url := firstScalar(val, "url", "src", "originalSrc")
		if url != "" {
			return &domain.Image{URL: url, AltText: firstScalar(val, "altText", "alt")}
		}
	}
	return nil
}

func tagsOf(v any) []string {
	switch val := v.(type) {
	case []any:
		tags := make([]string, 0, len(val))
		for _, t := range val {
			if s := scalarString(t); s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	case string:
		var tags []string
		for _, t := range strings.Split(val, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	}
	return nil
}

// edgeNodes unwraps a GraphQL connection {edges:[{node:{...}}]}
func edgeNodes(conn map[string]any) []any {
	edges, ok := conn["edges"].([]any)
	if !ok {
		return nil
	}
	nodes := make([]any, 0, len(edges))
	for _, e := range edges {
		if em, ok := e.(map[string]any); ok {
			if node, ok := em["node"]; ok {
				nodes = append(nodes, node)
			}
		}
	}
	return nodes
}

func firstScalar(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

// scalarString renders strings and numbers; 1 becomes "1", 9.5 becomes "9.5"
func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}
