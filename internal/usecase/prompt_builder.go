package usecase

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/shopchat/backend/internal/domain"
)

//go:embed prompts/intent_examples.yaml
var defaultExamplesYAML []byte

// IntentExample is one few-shot pair for the intent prompt
type IntentExample struct {
	Input  string         `yaml:"input"`
	Output map[string]any `yaml:"output"`
}

type examplesFile struct {
	IntentExamples []IntentExample `yaml:"intent_examples"`
}

// PromptBuilder renders the intent, rerank and chat prompts
type PromptBuilder struct {
	examples []IntentExample
}

// NewPromptBuilder loads few-shot examples from path, or the built-in set
// when path is empty.
func NewPromptBuilder(path string) (*PromptBuilder, error) {
	data := defaultExamplesYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt examples: %w", err)
		}
		data = b
	}

	var f examplesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse prompt examples: %w", err)
	}
	if len(f.IntentExamples) == 0 {
		return nil, fmt.Errorf("prompt examples file has no intent_examples")
	}
	return &PromptBuilder{examples: f.IntentExamples}, nil
}

// Examples returns the loaded few-shot examples
func (b *PromptBuilder) Examples() []IntentExample {
	return b.examples
}

var intentTemplate = template.Must(template.New("intent").Parse(`
You are a strict assistant that MUST convert a customer's natural language request into a single JSON object describing intent and normalized filters.
Return ONLY valid JSON (a single JSON object) and nothing else: no code fences, no explanation, no extra text.

Rules:
- The JSON object must follow this exact shape:
{
  "intent": "product_search" | "recommendation" | "general_query" | null,
  "keywords": [ "keyword1", "keyword2", ... ],
  "filters": {
    "price_min": <integer|null>,
    "price_max": <integer|null>,
    "currency": <string|null>,     // ISO code when available (INR, USD)
    "color": <string|null>,        // single canonical color name if present
    "gender": <"male"|"female"|"unisex"|null>,
    "size": <string|null>
  },
  "raw_query": "<original text>"
}

Normalization rules (be conservative, prefer null when ambiguous):
- Numeric fields: return integers for price_min/price_max. If a range or words like "under 1000 rupees", interpret as price_max: 1000, currency: "INR".
- Gender: map variants to "male", "female", "unisex", or null. (e.g., "men's" -> "male", "women" -> "female")
- Color: return single canonical color if clear (e.g., "red", "blue", "black"). If multiple colors are requested, list the primary color mentioned.
- If query mentions "similar" or "like this", set intent to "recommendation".
- If the query is a non-product question (policy, shipping), set intent to "general_query" and leave filters empty.

Be conservative: produce null for numeric or optional fields if not explicitly mentioned.

Examples:
{{.Examples}}

Now process this input and return the single JSON object (no extra text):
"{{.Input}}"
`))

var rerankTemplate = template.Must(template.New("rerank").Parse(`
You are a product relevance scorer. Given the user's request, the required search filters, and a short list of product objects, return ONLY a JSON array (no text) of candidate objects sorted by relevance.
Each returned object must include:
- handle (string)
- score (number, 0.0 - 1.0, higher is better)

Important scoring rules:
1. If the user's filters explicitly require a gender (male/female/unisex), any candidate that clearly conflicts with that gender should be penalized heavily (score close to 0.0).
2. If the user's filters require a color and the product metadata indicates a different color, penalize that candidate.
3. Favor products whose title or description contains the user's keywords.
4. If price filters exist, prefer products within the price range.
5. Use 1.0 as the maximum relevancy for the best match; scale others accordingly.
6. Return results sorted by score (highest first).

User request:
"{{.Input}}"

Required filters:
{{.Filters}}

Candidates:
{{.Candidates}}

Return the ranked array only. Example:
[{"handle":"ocean-blue-shirt","score":0.95},{"handle":"red-plaid","score":0.60}]
`))

var chatTemplate = template.Must(template.New("chat").Parse(`
You are a helpful AI assistant for an e-commerce store. Use the conversation history and any structured intent data to answer the user's query helpfully and accurately.
History:
{{.History}}

{{if .Structured}}Structured intent (from intent-extractor): {{.Structured}}
{{end}}
User: "{{.Input}}"

Guidelines:
- If structured intent includes filters (gender, color, price), ensure any product suggestions match those filters. Do not suggest products that conflict with explicit filters.
- Do not invent product attributes (sizes, discounts, availability). If information is missing, ask a clarifying question.
- Keep responses conversational and concise when speaking to users. If returning product lists, include title, price, and a short 1-line reason why it's relevant.
- If the user asks for a clarification (e.g., "Do you mean men's or women's?"), respond with a direct clarifying question.

Respond conversationally in plain text. Do not include JSON unless explicitly asked for.
`))

// BuildIntentPrompt asks the LLM to turn a request into a SearchIntent JSON object
func (b *PromptBuilder) BuildIntentPrompt(userText string) string {
	parts := make([]string, 0, len(b.examples))
	for _, ex := range b.examples {
		out, _ := json.Marshal(ex.Output)
		parts = append(parts, fmt.Sprintf("Input: %q\nOutput:\n%s", ex.Input, out))
	}
	return execute(intentTemplate, map[string]string{
		"Examples": strings.Join(parts, "\n\n"),
		"Input":    Sanitize(userText),
	})
}

type rerankCandidate struct {
	Handle      string `json:"handle"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       any    `json:"price"`
}

// BuildRerankPrompt asks the LLM to score candidates by handle
func (b *PromptBuilder) BuildRerankPrompt(userText string, candidates []domain.Product, filters domain.SearchFilters) string {
	cands := make([]rerankCandidate, 0, len(candidates))
	for _, p := range candidates {
		c := rerankCandidate{Handle: p.Handle, Title: p.Title, Description: p.Description}
		if amount, _, ok := p.Price(); ok {
			c.Price = amount
		}
		cands = append(cands, c)
	}
	candJSON, _ := json.MarshalIndent(cands, "", "  ")
	filtersJSON, _ := json.MarshalIndent(filters, "", "  ")

	return execute(rerankTemplate, map[string]string{
		"Input":      Sanitize(userText),
		"Filters":    string(filtersJSON),
		"Candidates": string(candJSON),
	})
}

// BuildChatPrompt renders the conversational prompt with history and an
// optional structured intent.
func (b *PromptBuilder) BuildChatPrompt(userText string, history []domain.ChatHistoryEntry, structured *domain.SearchIntent) string {
	lines := make([]string, 0, len(history))
	for _, h := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", h.Role, Sanitize(h.Content)))
	}

	data := map[string]string{
		"History": strings.Join(lines, "\n"),
		"Input":   Sanitize(userText),
	}
	if structured != nil {
		s, _ := json.Marshal(structured)
		data["Structured"] = string(s)
	}
	return execute(chatTemplate, data)
}

func execute(t *template.Template, data map[string]string) string {
	var sb strings.Builder
	_ = t.Execute(&sb, data)
	return sb.String()
}
