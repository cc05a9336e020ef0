package usecase

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopchat/backend/internal/domain"
)

// decode mimics what the webhook client hands to Normalize
func decode(t *testing.T, body string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestNormalize(t *testing.T) {
	t.Run("nil yields empty result", func(t *testing.T) {
		got := Normalize(nil)
		assert.Nil(t, got.RawText)
		assert.Equal(t, domain.ParsedNone, got.ParsedOutput.Kind)
		assert.NotNil(t, got.Products)
		assert.Empty(t, got.Products)
		assert.Empty(t, got.CandidateReplies)
	})

	t.Run("empty array and empty string yield empty result", func(t *testing.T) {
		for _, raw := range []any{[]any{}, "", "   ", 42.0, true} {
			got := Normalize(raw)
			assert.NotNil(t, got.Products)
			assert.Empty(t, got.Products)
			assert.Equal(t, domain.ParsedNone, got.ParsedOutput.Kind)
		}
	})

	t.Run("array output with embedded products JSON", func(t *testing.T) {
		got := Normalize(decode(t, `[{"output":"{\"products\":[{\"id\":1}]}"}]`))

		require.Equal(t, domain.ParsedObject, got.ParsedOutput.Kind)
		assert.Contains(t, got.ParsedOutput.Object, "products")
		require.Len(t, got.Products, 1)
		assert.Equal(t, "1", got.Products[0].ID)
		assert.Equal(t, "parsedOutput.products", got.ProductSource)
	})

	t.Run("only the first array element is used", func(t *testing.T) {
		got := Normalize(decode(t, `[{"output":"first"},{"output":"second"}]`))
		assert.Equal(t, []string{"first"}, got.CandidateReplies)
	})

	t.Run("JSON embedded in prose", func(t *testing.T) {
		got := Normalize(map[string]any{
			"output": `Sure! {"before_message":"Here are shirts","products":[{"id":"a","title":"Red"}]} Enjoy`,
		})
		require.Equal(t, domain.ParsedObject, got.ParsedOutput.Kind)
		before, ok := got.ParsedOutput.StringField("before_message")
		assert.True(t, ok)
		assert.Equal(t, "Here are shirts", before)
		require.Len(t, got.Products, 1)
		assert.Equal(t, "Red", got.Products[0].Title)
	})

	t.Run("malformed embedded JSON degrades to text", func(t *testing.T) {
		got := Normalize(map[string]any{"output": "oops {not json}"})
		assert.Equal(t, domain.ParsedText, got.ParsedOutput.Kind)
		assert.Equal(t, "oops {not json}", got.ParsedOutput.Text)
		assert.Empty(t, got.Products)
		assert.Equal(t, []string{"oops {not json}"}, got.CandidateReplies)
	})

	t.Run("rawText is used when output is absent", func(t *testing.T) {
		got := Normalize(map[string]any{"rawText": "plain body"})
		require.NotNil(t, got.RawText)
		assert.Equal(t, "plain body", *got.RawText)
		assert.Equal(t, domain.ParsedText, got.ParsedOutput.Kind)
	})

	t.Run("plain string upstream becomes rawText", func(t *testing.T) {
		got := Normalize("Hello from upstream")
		require.NotNil(t, got.RawText)
		assert.Equal(t, "Hello from upstream", *got.RawText)
		assert.Equal(t, []string{"Hello from upstream"}, got.CandidateReplies)
	})

	t.Run("non-string output falls back to rawText", func(t *testing.T) {
		got := Normalize(map[string]any{"output": 12.0, "rawText": `{"reply":"hi"}`})
		require.Equal(t, domain.ParsedObject, got.ParsedOutput.Kind)
		assert.Equal(t, "hi", got.CandidateReplies[0])
	})

	t.Run("existing parsedOutput is used as-is", func(t *testing.T) {
		got := Normalize(decode(t, `{"parsedOutput":{"after_message":"bye"}}`))
		require.Equal(t, domain.ParsedObject, got.ParsedOutput.Kind)
		assert.True(t, got.ParsedOutput.Has("after_message"))
	})

	t.Run("parsedOutput array of products", func(t *testing.T) {
		got := Normalize(decode(t, `{"parsedOutput":[{"title":"Mug"},{"title":"Cup"}]}`))
		assert.Equal(t, domain.ParsedArray, got.ParsedOutput.Kind)
		require.Len(t, got.Products, 2)
		assert.Equal(t, "parsedOutput", got.ProductSource)
	})

	t.Run("parsedOutput array without product keys is ignored", func(t *testing.T) {
		got := Normalize(decode(t, `{"parsedOutput":[{"foo":"bar"}]}`))
		assert.Empty(t, got.Products)
	})

	t.Run("product shapes are checked in priority order", func(t *testing.T) {
		tests := []struct {
			body   string
			source string
			id     string
		}{
			{`{"products":[{"id":"p"}],"results":[{"id":"r"}]}`, "products", "p"},
			{`{"products":[],"results":[{"id":"r"}]}`, "results", "r"},
			{`{"results":{"results":[{"id":"rr"}]}}`, "results.results", "rr"},
			{`{"data":{"products":[{"id":"d"}]}}`, "data.products", "d"},
			{`{"output":"{\"products\":[{\"id\":\"po\"}]}","data":{"products":[]}}`, "parsedOutput.products", "po"},
		}
		for _, tt := range tests {
			got := Normalize(decode(t, tt.body))
			require.Len(t, got.Products, 1, tt.body)
			assert.Equal(t, tt.source, got.ProductSource, tt.body)
			assert.Equal(t, tt.id, got.Products[0].ID, tt.body)
		}
	})

	t.Run("candidate replies follow priority order", func(t *testing.T) {
		got := Normalize(decode(t, `{"output":"{\"reply\":\"r1\",\"message\":\"m1\"}","text":"t1","response":"  ","message":"m2"}`))
		assert.Equal(t, []string{"r1", "m1", `{"reply":"r1","message":"m1"}`, "t1", "m2"}, got.CandidateReplies)
	})

	t.Run("original fields are preserved", func(t *testing.T) {
		got := Normalize(decode(t, `{"output":"hi","sessionId":"s1"}`))
		assert.Equal(t, "s1", got.Fields["sessionId"])
	})
}

func TestProductFromMap(t *testing.T) {
	t.Run("storefront GraphQL node", func(t *testing.T) {
		p := productFromMap(decode(t, `{
			"id":"gid://shopify/Product/7","title":"Ocean Shirt","handle":"ocean-shirt",
			"description":"Soft cotton","productType":"Shirts","tags":["men","blue"],
			"featuredImage":{"url":"https://cdn.shopify.com/o.png","altText":"ocean"},
			"priceRange":{"minVariantPrice":{"amount":"49.0","currencyCode":"USD"}},
			"variants":{"edges":[{"node":{"id":"gid://shopify/ProductVariant/70","priceV2":{"amount":"50.0","currencyCode":"USD"}}}]}
		}`).(map[string]any))

		assert.Equal(t, "gid://shopify/Product/7", p.ID)
		assert.Equal(t, "Shirts", p.ProductType)
		assert.Equal(t, []string{"men", "blue"}, p.Tags)
		require.NotNil(t, p.Image)
		assert.Equal(t, "ocean", p.Image.AltText)
		require.Len(t, p.Variants, 1)
		assert.Equal(t, "50.0", p.Variants[0].Price)
		assert.Equal(t, "USD", p.Variants[0].Currency)
		assert.Equal(t, "49.0", p.PriceRange.MinVariantPrice.Amount)
	})

	t.Run("flat shape with numeric fields", func(t *testing.T) {
		p := productFromMap(decode(t, `{"product_id":99,"name":"Mug","image":"https://x.com/m.jpg","price":12.5,"tags":"kitchen, gift"}`).(map[string]any))

		assert.Equal(t, "99", p.ID)
		assert.Equal(t, "Mug", p.Title)
		assert.Equal(t, "https://x.com/m.jpg", p.Image.URL)
		amount, _, ok := p.Price()
		assert.True(t, ok)
		assert.Equal(t, "12.5", amount)
		assert.Equal(t, []string{"kitchen", "gift"}, p.Tags)
	})

	t.Run("images array and missing everything else", func(t *testing.T) {
		p := productFromMap(decode(t, `{"images":[{"src":"https://x.com/1.png"}]}`).(map[string]any))
		assert.Equal(t, "https://x.com/1.png", p.Image.URL)
		assert.Equal(t, "Untitled", p.DisplayTitle())
		_, _, ok := p.Price()
		assert.False(t, ok)
	})
}
