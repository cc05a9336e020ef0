package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shopchat/backend/internal/domain"
)

const llmNoReply = "Sorry, I could not process that."

// ChatServiceConfig holds configuration for the chat service
type ChatServiceConfig struct {
	MaxResults int
}

// ChatService runs one send of the chat loop: sanitize, classify, call
// upstream, normalize and plan
type ChatService struct {
	history    domain.HistoryRepository
	webhook    domain.WebhookClient
	llm        domain.LLMClient
	search     *ProductSearchService
	planner    *RenderPlanner
	prompts    *PromptBuilder
	maxResults int
	logger     *zap.Logger
}

// NewChatService creates a new chat service. llm and search may be nil.
func NewChatService(
	history domain.HistoryRepository,
	webhook domain.WebhookClient,
	llm domain.LLMClient,
	search *ProductSearchService,
	planner *RenderPlanner,
	prompts *PromptBuilder,
	config ChatServiceConfig,
	logger *zap.Logger,
) *ChatService {
	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = 8
	}
	return &ChatService{
		history:    history,
		webhook:    webhook,
		llm:        llm,
		search:     search,
		planner:    planner,
		prompts:    prompts,
		maxResults: maxResults,
		logger:     logger,
	}
}

// CreateSession starts a new empty session
func (s *ChatService) CreateSession() domain.Session {
	return s.history.Create()
}

// History returns the transcript of a session
func (s *ChatService) History(sessionID string) ([]domain.ChatHistoryEntry, error) {
	return s.history.Get(sessionID)
}

// SendMessage processes one user message. Only one send per session may be
// in flight; an overlapping send fails with ErrSessionBusy.
func (s *ChatService) SendMessage(ctx context.Context, msg domain.UserMessage) (*domain.ChatResult, error) {
	text := Sanitize(msg.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrInvalidRequest)
	}

	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = s.history.Create().SessionID
	}
	if !s.history.TryAcquire(sessionID) {
		return nil, domain.ErrSessionBusy
	}
	defer s.history.Release(sessionID)

	s.history.Append(sessionID, domain.ChatHistoryEntry{Role: domain.RoleUser, Content: text, Timestamp: time.Now()})

	intent := Classify(text)
	s.logger.Info("chat message",
		zap.String("session_id", sessionID),
		zap.String("intent", string(intent)))

	raw, err := s.webhook.Post(ctx, text, sessionID)
	if err != nil {
		s.logger.Warn("webhook call failed", zap.String("session_id", sessionID), zap.Error(err))
		raw = nil
	}
	normalized := Normalize(raw)

	var plan domain.RenderPlan
	if intent == domain.IntentProductSearch {
		plan = s.planProductSearch(ctx, text, normalized)
	} else {
		plan = s.planConversation(ctx, sessionID, text, normalized)
	}

	s.history.Append(sessionID, domain.ChatHistoryEntry{
		Role:      domain.RoleAssistant,
		Content:   PlanSummary(plan),
		Timestamp: time.Now(),
	})

	return &domain.ChatResult{
		SessionID: sessionID,
		Intent:    intent,
		Plans:     []domain.RenderPlan{plan},
	}, nil
}

// planProductSearch prefers structured product data from the webhook, then
// a storefront search, then whatever the webhook said
func (s *ChatService) planProductSearch(ctx context.Context, text string, n domain.NormalizedResponse) domain.RenderPlan {
	if hasStructuredProducts(n) {
		return s.planner.Plan(n, domain.IntentProductSearch)
	}

	if s.search != nil {
		result, err := s.search.Search(ctx, text)
		switch {
		case err != nil:
			s.logger.Warn("product search failed", zap.Error(err))
		case len(result.Products) > 0:
			items := result.Products
			if len(items) > s.maxResults {
				items = items[:s.maxResults]
			}
			return s.planner.ProductsPlan(defaultProductsHeader, items, "")
		}
	}

	return s.planner.Plan(n, domain.IntentProductSearch)
}

// planConversation plans the webhook reply and asks the LLM when the
// webhook had nothing usable
func (s *ChatService) planConversation(ctx context.Context, sessionID, text string, n domain.NormalizedResponse) domain.RenderPlan {
	if plan, ok := s.planner.Interpret(n); ok {
		return plan
	}
	if s.llm == nil || s.prompts == nil {
		return s.planner.Fallback(domain.IntentConversational)
	}

	history, _ := s.history.Get(sessionID)
	if len(history) > 0 {
		history = history[:len(history)-1]
	}

	reply, err := s.llm.Generate(ctx, s.prompts.BuildChatPrompt(text, history, nil))
	if err != nil || strings.TrimSpace(reply) == "" {
		s.logger.Warn("LLM fallback produced no reply", zap.Error(err))
		return s.planner.Fallback(domain.IntentConversational)
	}
	return TextPlan(strings.TrimSpace(reply))
}

// ChatLLM answers directly from the LLM using the session transcript and
// records both turns
func (s *ChatService) ChatLLM(ctx context.Context, msg domain.UserMessage) (string, string, error) {
	if s.llm == nil || s.prompts == nil {
		return "", "", domain.ErrLLMUnavailable
	}

	text := Sanitize(msg.Text)
	if text == "" {
		return "", "", fmt.Errorf("%w: message is empty", domain.ErrInvalidRequest)
	}

	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = s.history.Create().SessionID
	}
	if !s.history.TryAcquire(sessionID) {
		return "", "", domain.ErrSessionBusy
	}
	defer s.history.Release(sessionID)

	history, _ := s.history.Get(sessionID)
	reply, err := s.llm.Generate(ctx, s.prompts.BuildChatPrompt(text, history, nil))
	if err != nil {
		return "", sessionID, err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = llmNoReply
	}

	now := time.Now()
	s.history.Append(sessionID, domain.ChatHistoryEntry{Role: domain.RoleUser, Content: text, Timestamp: now})
	s.history.Append(sessionID, domain.ChatHistoryEntry{Role: domain.RoleAssistant, Content: reply, Timestamp: now})

	return reply, sessionID, nil
}

func hasStructuredProducts(n domain.NormalizedResponse) bool {
	if len(n.Products) > 0 {
		return true
	}
	_, hasBefore := n.ParsedOutput.StringField("before_message")
	_, hasAfter := n.ParsedOutput.StringField("after_message")
	return hasBefore || hasAfter
}
