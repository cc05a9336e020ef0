package shopify

import (
	"strconv"

	"github.com/shopchat/backend/internal/domain"
)

// productFields is the selection shared by listing and search queries
const productFields = `
  id title handle description productType tags
  featuredImage { url altText }
  priceRange { minVariantPrice { amount currencyCode } }
  variants(first: 5) { edges { node { id price { amount currencyCode } } } }`

const listProductsQuery = `query Products($first: Int!) {
  products(first: $first) { edges { node {` + productFields + `
  } } }
}`

const searchProductsQuery = `query SearchProducts($first: Int!, $query: String!) {
  products(first: $first, query: $query) { edges { node {` + productFields + `
  } } }
}`

type money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type productNode struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Handle        string   `json:"handle"`
	Description   string   `json:"description"`
	ProductType   string   `json:"productType"`
	Tags          []string `json:"tags"`
	FeaturedImage *struct {
		URL     string `json:"url"`
		AltText string `json:"altText"`
	} `json:"featuredImage"`
	PriceRange struct {
		MinVariantPrice money `json:"minVariantPrice"`
	} `json:"priceRange"`
	Variants struct {
		Edges []struct {
			Node struct {
				ID    string `json:"id"`
				Price money  `json:"price"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

type productsResponse struct {
	Products struct {
		Edges []struct {
			Node productNode `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

// MapToProducts converts a storefront products connection to domain products
func MapToProducts(resp *productsResponse) []domain.Product {
	products := make([]domain.Product, 0, len(resp.Products.Edges))
	for _, edge := range resp.Products.Edges {
		products = append(products, mapProduct(edge.Node))
	}
	return products
}

func mapProduct(n productNode) domain.Product {
	p := domain.Product{
		ID:          n.ID,
		Title:       n.Title,
		Handle:      n.Handle,
		Description: n.Description,
		ProductType: n.ProductType,
		Tags:        n.Tags,
	}

	if n.FeaturedImage != nil && n.FeaturedImage.URL != "" {
		p.Image = &domain.Image{URL: n.FeaturedImage.URL, AltText: n.FeaturedImage.AltText}
	}

	if n.PriceRange.MinVariantPrice.Amount != "" {
		p.PriceRange = &domain.PriceRange{MinVariantPrice: domain.Money{
			Amount:       n.PriceRange.MinVariantPrice.Amount,
			CurrencyCode: n.PriceRange.MinVariantPrice.CurrencyCode,
		}}
	}

	for _, e := range n.Variants.Edges {
		p.Variants = append(p.Variants, domain.Variant{
			ID:       e.Node.ID,
			Price:    e.Node.Price.Amount,
			Currency: e.Node.Price.CurrencyCode,
		})
	}

	return p
}

// clampFirst bounds a page size to the storefront limit of 250
func clampFirst(first, def int) int {
	if first <= 0 {
		return def
	}
	if first > 250 {
		return 250
	}
	return first
}

// numericID returns id as a JSON number when it is all digits
func numericID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
