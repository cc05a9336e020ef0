package domain

import "time"

// Role identifies the author of a chat history entry
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Intent is the classified purpose of a user message
type Intent string

const (
	IntentProductSearch  Intent = "product_search"
	IntentConversational Intent = "conversational"
)

// UserMessage is a single send action from the widget
type UserMessage struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatHistoryEntry is one turn of a session transcript
type ChatHistoryEntry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is an ephemeral chat session
type Session struct {
	SessionID string             `json:"sessionId"`
	History   []ChatHistoryEntry `json:"history"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ChatRequest is the inbound body of a chat send
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatResult is what the chat loop hands back to the widget
type ChatResult struct {
	SessionID string       `json:"sessionId"`
	Intent    Intent       `json:"intent"`
	Plans     []RenderPlan `json:"plans"`
}

// SearchFilters are the normalized constraints extracted from a product query
type SearchFilters struct {
	PriceMin *float64 `json:"price_min"`
	PriceMax *float64 `json:"price_max"`
	Currency string   `json:"currency,omitempty"`
	Color    string   `json:"color,omitempty"`
	Gender   string   `json:"gender,omitempty"`
	Size     string   `json:"size,omitempty"`
}

// SearchIntent is the structured reading of a product query
type SearchIntent struct {
	Intent   string        `json:"intent"`
	Keywords []string      `json:"keywords"`
	Filters  SearchFilters `json:"filters"`
	RawQuery string        `json:"raw_query,omitempty"`
}

// SearchResult is the outcome of an LLM-driven storefront search
type SearchResult struct {
	Intent   SearchIntent `json:"intent"`
	Products []Product    `json:"products"`
}

// CartRequest is the inbound body of an add-to-cart click
type CartRequest struct {
	VariantID string `json:"variantId" binding:"required"`
	Quantity  int    `json:"quantity"`
	SessionID string `json:"sessionId,omitempty"`
}

// CartResult reports an add-to-cart attempt along with the final button state
type CartResult struct {
	Added  bool         `json:"added"`
	Plans  []RenderPlan `json:"plans"`
	Button ButtonState  `json:"button"`
}
