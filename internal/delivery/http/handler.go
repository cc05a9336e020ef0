package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopchat/backend/internal/domain"
	"github.com/shopchat/backend/internal/infrastructure/style"
	"github.com/shopchat/backend/internal/usecase"
)

// WidgetConfig is what the embedded widget reads at load time
type WidgetConfig struct {
	APIURL         string       `json:"apiUrl"`
	Theme          string       `json:"theme"`
	Position       string       `json:"position"`
	AutoOpen       bool         `json:"autoOpen"`
	WelcomeMessage string       `json:"welcomeMessage"`
	PrimaryColor   string       `json:"primaryColor"`
	SecondaryColor string       `json:"secondaryColor"`
	Style          style.Tokens `json:"style"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	chat       *usecase.ChatService
	search     *usecase.ProductSearchService
	cart       *usecase.CartService
	storefront domain.StorefrontClient
	widget     WidgetConfig
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler. search, cart and storefront may
// be nil when the storefront is not configured.
func NewHandler(
	chat *usecase.ChatService,
	search *usecase.ProductSearchService,
	cart *usecase.CartService,
	storefront domain.StorefrontClient,
	widget WidgetConfig,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		chat:       chat,
		search:     search,
		cart:       cart,
		storefront: storefront,
		widget:     widget,
		logger:     logger,
	}
}

type searchRequest struct {
	Message string `json:"message" binding:"required"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shopchat-backend",
		"version": "1.0.0",
	})
}

// CreateSession starts a new chat session
func (h *Handler) CreateSession(c *gin.Context) {
	session := h.chat.CreateSession()
	c.JSON(http.StatusCreated, gin.H{"sessionId": session.SessionID})
}

// SendMessage runs one message through the chat loop
func (h *Handler) SendMessage(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, domain.ErrInvalidRequest, "Message is required")
		return
	}

	result, err := h.chat.SendMessage(c.Request.Context(), domain.UserMessage{Text: req.Message, SessionID: req.SessionID})
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetHistory returns the transcript of a session
func (h *Handler) GetHistory(c *gin.Context) {
	sessionID := c.Param("sessionId")
	history, err := h.chat.History(sessionID)
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "history": history})
}

// ChatLLM answers a message directly from the LLM
func (h *Handler) ChatLLM(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, domain.ErrInvalidRequest, "Message is required")
		return
	}

	reply, sessionID, err := h.chat.ChatLLM(c.Request.Context(), domain.UserMessage{Text: req.Message, SessionID: req.SessionID})
	if err != nil {
		h.respondError(c, err, "LLM chat failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply, "sessionId": sessionID})
}

// LLMSearch runs an LLM-assisted storefront product search
func (h *Handler) LLMSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, domain.ErrInvalidRequest, "Message is required")
		return
	}
	if h.search == nil {
		h.respondError(c, domain.ErrStorefrontNotConfigured, "")
		return
	}

	result, err := h.search.Search(c.Request.Context(), req.Message)
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, result)
}

// StoreInfo returns the storefront domain the widget links to
func (h *Handler) StoreInfo(c *gin.Context) {
	domainName := ""
	if h.storefront != nil {
		domainName = h.storefront.StoreDomain()
	}
	c.JSON(http.StatusOK, gin.H{"storeDomain": domainName})
}

// ListProducts returns catalog products that have a description
func (h *Handler) ListProducts(c *gin.Context) {
	if h.storefront == nil {
		h.respondError(c, domain.ErrStorefrontNotConfigured, "")
		return
	}

	first := 25
	if q := c.Query("first"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			h.respondError(c, domain.ErrInvalidRequest, "first must be a positive integer")
			return
		}
		first = n
	}

	products, err := h.storefront.ListProducts(c.Request.Context(), first)
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	described := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.TrimSpace(p.Description) != "" {
			described = append(described, p)
		}
	}
	c.JSON(http.StatusOK, gin.H{"products": described})
}

// AddToCart relays an add-to-cart click. Failures still carry the result
// body so the widget can show the failure message.
func (h *Handler) AddToCart(c *gin.Context) {
	var req domain.CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, domain.ErrInvalidRequest, "variantId is required")
		return
	}

	result, err := h.cart.AddToCart(c.Request.Context(), req, nil)
	if err != nil {
		if result != nil {
			h.logger.Warn("add to cart failed", zap.String("variant_id", req.VariantID), zap.Error(err))
			c.JSON(statusFor(err), result)
			return
		}
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetWidgetConfig returns the widget settings and style tokens
func (h *Handler) GetWidgetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.widget)
}

// GetStyleConfig returns only the style tokens
func (h *Handler) GetStyleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.widget.Style)
}

// respondError maps domain errors to HTTP status codes. message, when
// set, replaces the error text in the body.
func (h *Handler) respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if message == "" {
		message = err.Error()
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrLLMUnavailable), errors.Is(err, domain.ErrStorefrontNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUpstreamFailure),
		errors.Is(err, domain.ErrStorefrontFailure),
		errors.Is(err, domain.ErrCartAddFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
