package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shopchat/backend/internal/domain"
)

const (
	cartBusyLabel    = "Adding..."
	cartButtonLabel  = "Add to Cart"
	cartAddedReply   = "Added to cart!"
	cartFailureReply = "Failed to add to cart."
)

// CartService relays add-to-cart clicks, first through the webhook agent
// and then directly to the storefront cart
type CartService struct {
	webhook domain.WebhookClient
	cart    domain.CartClient
	planner *RenderPlanner
	logger  *zap.Logger
}

// NewCartService creates a new cart service. cart may be nil.
func NewCartService(webhook domain.WebhookClient, cart domain.CartClient, planner *RenderPlanner, logger *zap.Logger) *CartService {
	return &CartService{
		webhook: webhook,
		cart:    cart,
		planner: planner,
		logger:  logger,
	}
}

// VariantNumericID returns the last path segment of a variant id, so
// "gid://shopify/ProductVariant/123" becomes "123"
func VariantNumericID(variantID string) string {
	id := strings.TrimSpace(variantID)
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return id
}

// AddToCart adds a variant to the cart. ctl is set busy for the duration
// of the call and restored on every path. When ctl is nil an "Add to Cart"
// button state is used; the final state is reported in the result.
func (s *CartService) AddToCart(ctx context.Context, req domain.CartRequest, ctl domain.ControlState) (*domain.CartResult, error) {
	button := domain.NewButtonState(cartButtonLabel)
	if ctl == nil {
		ctl = button
	}

	result, err := s.addToCart(ctx, req, ctl)
	if result != nil {
		if b, ok := ctl.(*domain.ButtonState); ok {
			result.Button = *b
		} else {
			result.Button = *button
		}
	}
	return result, err
}

func (s *CartService) addToCart(ctx context.Context, req domain.CartRequest, ctl domain.ControlState) (*domain.CartResult, error) {
	ctl.SetBusy(cartBusyLabel)
	defer ctl.Restore()

	id := VariantNumericID(req.VariantID)
	if id == "" {
		return nil, fmt.Errorf("%w: variant id is required", domain.ErrInvalidRequest)
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	if plan, ok := s.viaWebhook(ctx, id, req.SessionID); ok {
		return &domain.CartResult{Added: true, Plans: []domain.RenderPlan{plan}}, nil
	}

	if s.cart == nil {
		return failedCart(fmt.Errorf("%w: no cart endpoint configured", domain.ErrCartAddFailed))
	}
	if err := s.cart.Add(ctx, id, quantity); err != nil {
		s.logger.Warn("direct cart add failed", zap.String("variant_id", id), zap.Error(err))
		return failedCart(fmt.Errorf("%w: %v", domain.ErrCartAddFailed, err))
	}

	s.logger.Info("added to cart", zap.String("variant_id", id), zap.Int("quantity", quantity))
	return &domain.CartResult{Added: true, Plans: []domain.RenderPlan{TextPlan(cartAddedReply)}}, nil
}

// viaWebhook asks the agent to add the item. ok is false when the webhook
// failed or its reply carried nothing usable.
func (s *CartService) viaWebhook(ctx context.Context, id, sessionID string) (domain.RenderPlan, bool) {
	raw, err := s.webhook.Post(ctx, "add "+id+" to my cart", sessionID)
	if err != nil {
		s.logger.Warn("cart webhook failed, falling back to direct add", zap.Error(err))
		return domain.RenderPlan{}, false
	}
	return s.planner.Interpret(Normalize(raw))
}

func failedCart(err error) (*domain.CartResult, error) {
	return &domain.CartResult{
		Added: false,
		Plans: []domain.RenderPlan{TextPlan(cartFailureReply)},
	}, err
}
