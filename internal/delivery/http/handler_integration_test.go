package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopchat/backend/config"
	"github.com/shopchat/backend/internal/domain"
	"github.com/shopchat/backend/internal/infrastructure/cache"
	"github.com/shopchat/backend/internal/infrastructure/history"
	"github.com/shopchat/backend/internal/infrastructure/ollama"
	"github.com/shopchat/backend/internal/infrastructure/shopify"
	"github.com/shopchat/backend/internal/infrastructure/style"
	"github.com/shopchat/backend/internal/infrastructure/webhook"
	"github.com/shopchat/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

const storefrontProducts = `{"data":{"products":{"edges":[
  {"node":{"id":"gid://shopify/Product/1","title":"Red Shirt","handle":"red-shirt","description":"Cotton shirt",
    "priceRange":{"minVariantPrice":{"amount":"25.0","currencyCode":"USD"}},
    "variants":{"edges":[{"node":{"id":"gid://shopify/ProductVariant/11","price":{"amount":"25.0","currencyCode":"USD"}}}]}}},
  {"node":{"id":"gid://shopify/Product/2","title":"Mystery Shirt","handle":"mystery-shirt","description":"",
    "priceRange":{"minVariantPrice":{"amount":"10.0","currencyCode":"USD"}},"variants":{"edges":[]}}}
]}}}`

type testEnv struct {
	router  *gin.Engine
	store   *history.MemoryStore
	webhook *httptest.Server
	shop    *httptest.Server
	llm     *httptest.Server
}

type envOptions struct {
	cartStatus int
	withLLM    bool
}

// setupTestEnv wires real clients against httptest upstreams
func setupTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	if opts.cartStatus == 0 {
		opts.cartStatus = http.StatusOK
	}

	env := &testEnv{}
	env.webhook = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		switch {
		case strings.HasPrefix(body.Text, "add "):
			w.WriteHeader(http.StatusInternalServerError)
		case strings.Contains(body.Text, "shirt"):
			w.Write([]byte(`{}`))
		default:
			w.Write([]byte(`{"output":"Happy to help!"}`))
		}
	}))
	env.shop = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cart/add.js" {
			w.WriteHeader(opts.cartStatus)
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(storefrontProducts))
	}))
	t.Cleanup(env.webhook.Close)
	t.Cleanup(env.shop.Close)

	var llm domain.LLMClient
	if opts.withLLM {
		env.llm = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":"Hello from the model"}`))
		}))
		t.Cleanup(env.llm.Close)
		llm = ollama.NewClient(env.llm.URL, "llama3.1:latest", 0, time.Second, logger)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "3000",
			Environment:    "test",
			AllowedOrigins: []string{"https://*.myshopify.com"},
		},
	}

	env.store = history.NewMemoryStore(50, 0)
	productCache := cache.NewProductCache(time.Minute)
	t.Cleanup(env.store.Close)
	t.Cleanup(productCache.Close)

	hook := webhook.NewClient(webhook.Config{URL: env.webhook.URL, Timeout: time.Second}, logger)
	storefront := shopify.NewClient(shopify.Config{
		StoreDomain:     env.shop.URL,
		StorefrontToken: "tok",
		Timeout:         time.Second,
		RateLimit:       100,
	}, logger)
	cartClient := shopify.NewCartClient(env.shop.URL, time.Second, logger)

	prompts, err := usecase.NewPromptBuilder("")
	require.NoError(t, err)
	planner := usecase.NewRenderPlanner(storefront.StoreDomain())
	search := usecase.NewProductSearchService(storefront, productCache, nil, prompts, usecase.ProductSearchConfig{}, logger)
	chat := usecase.NewChatService(env.store, hook, llm, search, planner, prompts, usecase.ChatServiceConfig{MaxResults: 8}, logger)
	cart := usecase.NewCartService(hook, cartClient, planner, logger)

	widget := WidgetConfig{
		APIURL:         "http://localhost:3000",
		Theme:          "modern",
		Position:       "bottom-right",
		WelcomeMessage: "Hi!",
		PrimaryColor:   "#667eea",
		SecondaryColor: "#764ba2",
		Style:          style.Defaults(),
	}

	handler := NewHandler(chat, search, cart, storefront, widget, logger)
	env.router = SetupRouter(cfg, handler, logger)
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	t.Run("returns healthy status", func(t *testing.T) {
		w := env.do("GET", "/health", "")
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "shopchat-backend", body["service"])
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := env.do(method, "/health", "")
			assert.Equal(t, http.StatusNotFound, w.Code, method)
		}
	})
}

func TestSessionEndpoints(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do("POST", "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	id, _ := decodeBody(t, w)["sessionId"].(string)
	assert.True(t, strings.HasPrefix(id, "session_"))

	w = env.do("GET", "/api/v1/chat/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody(t, w)["history"])

	w = env.do("GET", "/api/v1/chat/session_missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatEndpoint(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	t.Run("missing message", func(t *testing.T) {
		w := env.do("POST", "/api/v1/chat", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Message is required", decodeBody(t, w)["error"])
	})

	t.Run("whitespace message", func(t *testing.T) {
		w := env.do("POST", "/api/v1/chat", `{"message":"  \t "}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("conversational reply", func(t *testing.T) {
		w := env.do("POST", "/api/v1/chat", `{"message":"hello there"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result domain.ChatResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, domain.IntentConversational, result.Intent)
		require.Len(t, result.Plans, 1)
		assert.Equal(t, "Happy to help!", result.Plans[0].Content)

		w = env.do("GET", "/api/v1/chat/"+result.SessionID, "")
		history, _ := decodeBody(t, w)["history"].([]any)
		assert.Len(t, history, 2)
	})

	t.Run("product search falls through to the storefront", func(t *testing.T) {
		w := env.do("POST", "/api/v1/chat", `{"message":"show me a shirt"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result domain.ChatResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, domain.IntentProductSearch, result.Intent)
		plan := result.Plans[0]
		require.Equal(t, domain.PlanProducts, plan.Kind)
		assert.Equal(t, "I found these products:", plan.Header)
		require.Len(t, plan.Items, 1)
		assert.Equal(t, "Red Shirt", plan.Items[0].Title)
		assert.Contains(t, plan.HTML, `data-variant="gid://shopify/ProductVariant/11"`)
	})

	t.Run("busy session", func(t *testing.T) {
		require.True(t, env.store.TryAcquire("session_busy"))
		defer env.store.Release("session_busy")

		w := env.do("POST", "/api/v1/chat", `{"message":"hi","sessionId":"session_busy"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestChatLLMEndpoint(t *testing.T) {
	t.Run("no LLM configured", func(t *testing.T) {
		env := setupTestEnv(t, envOptions{})
		w := env.do("POST", "/api/v1/chat/llm", `{"message":"hi"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("replies from the model", func(t *testing.T) {
		env := setupTestEnv(t, envOptions{withLLM: true})
		w := env.do("POST", "/api/v1/chat/llm", `{"message":"hi","sessionId":"s1"}`)
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "Hello from the model", body["response"])
		assert.Equal(t, "s1", body["sessionId"])
	})
}

func TestLLMSearchEndpoint(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do("POST", "/api/v1/chat/llm_search", `{"message":"red shirts under 30"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, []string{"red", "shirts"}, result.Intent.Keywords)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "red-shirt", result.Products[0].Handle)

	w = env.do("POST", "/api/v1/chat/llm_search", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShopifyEndpoints(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do("GET", "/api/v1/shopify/store", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, strings.TrimPrefix(env.shop.URL, "http://"), decodeBody(t, w)["storeDomain"])

	w = env.do("GET", "/api/v1/shopify/products?first=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	products, _ := decodeBody(t, w)["products"].([]any)
	assert.Len(t, products, 1)

	w = env.do("GET", "/api/v1/shopify/products?first=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartEndpoint(t *testing.T) {
	t.Run("direct add after webhook failure", func(t *testing.T) {
		env := setupTestEnv(t, envOptions{})
		w := env.do("POST", "/api/v1/cart/add", `{"variantId":"gid://shopify/ProductVariant/11","quantity":1}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result domain.CartResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Added)
		assert.Equal(t, "Added to cart!", result.Plans[0].Content)
		assert.Equal(t, "Add to Cart", result.Button.Label)
		assert.False(t, result.Button.Disabled)
	})

	t.Run("cart rejects the add", func(t *testing.T) {
		env := setupTestEnv(t, envOptions{cartStatus: http.StatusUnprocessableEntity})
		w := env.do("POST", "/api/v1/cart/add", `{"variantId":"11"}`)
		require.Equal(t, http.StatusBadGateway, w.Code)

		var result domain.CartResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.False(t, result.Added)
		assert.Equal(t, "Failed to add to cart.", result.Plans[0].Content)
	})

	t.Run("missing variant", func(t *testing.T) {
		env := setupTestEnv(t, envOptions{})
		w := env.do("POST", "/api/v1/cart/add", `{"quantity":1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWidgetEndpoints(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do("GET", "/api/v1/widget/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "bottom-right", body["position"])
	assert.Equal(t, "Hi!", body["welcomeMessage"])
	styleTokens, _ := body["style"].(map[string]any)
	assert.Equal(t, "18px", styleTokens["borderRadius"])

	w = env.do("GET", "/style-config.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "#667eea", decodeBody(t, w)["primaryColor"])
}
