package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shopchat/backend/internal/domain"
)

var (
	codeFencePattern     = regexp.MustCompile("(?i)```(?:json)?")
	embeddedArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)
)

// ProductSearchConfig holds configuration for the product search service
type ProductSearchConfig struct {
	Candidates   int
	CacheTTL     time.Duration
	EnableRerank bool
}

// ProductSearchService turns a free-text request into filtered storefront products
type ProductSearchService struct {
	storefront   domain.StorefrontClient
	cache        domain.ProductCache
	llm          domain.LLMClient
	prompts      *PromptBuilder
	preprocessor *QueryPreprocessor
	config       ProductSearchConfig
	logger       *zap.Logger
}

// NewProductSearchService creates a new product search service. llm and
// cache may be nil.
func NewProductSearchService(
	storefront domain.StorefrontClient,
	cache domain.ProductCache,
	llm domain.LLMClient,
	prompts *PromptBuilder,
	config ProductSearchConfig,
	logger *zap.Logger,
) *ProductSearchService {
	if config.Candidates <= 0 {
		config.Candidates = 100
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 10 * time.Minute
	}
	return &ProductSearchService{
		storefront:   storefront,
		cache:        cache,
		llm:          llm,
		prompts:      prompts,
		preprocessor: NewQueryPreprocessor(),
		config:       config,
		logger:       logger,
	}
}

// Search extracts a search intent from message, queries the storefront and
// applies term, color, gender, price and description filters.
// Flow: intent -> terms -> cache or storefront -> filter -> optional rerank
func (s *ProductSearchService) Search(ctx context.Context, message string) (*domain.SearchResult, error) {
	message = Sanitize(message)
	if message == "" {
		return nil, domain.ErrInvalidRequest
	}

	intent := s.ExtractIntent(ctx, message)
	terms := s.preprocessor.Terms(intent.Keywords, message)
	query := s.preprocessor.StorefrontQuery(terms, message)

	products, err := s.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	filtered := s.filter(products, terms, intent)
	s.logger.Info("product search",
		zap.String("query", query),
		zap.Int("candidates", len(products)),
		zap.Int("matched", len(filtered)))

	if s.config.EnableRerank && len(filtered) > 1 {
		filtered = s.rerank(ctx, message, filtered, intent.Filters)
	}

	return &domain.SearchResult{Intent: intent, Products: filtered}, nil
}

// ExtractIntent asks the LLM for a structured intent and falls back to
// heuristics when no LLM is configured or its answer is not usable
func (s *ProductSearchService) ExtractIntent(ctx context.Context, message string) domain.SearchIntent {
	if s.llm == nil || s.prompts == nil {
		return s.preprocessor.HeuristicIntent(message)
	}

	raw, err := s.llm.Generate(ctx, s.prompts.BuildIntentPrompt(message))
	if err != nil {
		s.logger.Warn("intent generation failed, using heuristics", zap.Error(err))
		return s.preprocessor.HeuristicIntent(message)
	}

	intent, err := parseIntentJSON(raw)
	if err != nil {
		s.logger.Warn("intent JSON not usable, using heuristics", zap.Error(err))
		return s.preprocessor.HeuristicIntent(message)
	}
	intent.RawQuery = message
	return intent
}

// parseIntentJSON extracts the first-to-last brace block from an LLM answer
func parseIntentJSON(raw string) (domain.SearchIntent, error) {
	var intent domain.SearchIntent

	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(raw, ""))
	block := embeddedJSONPattern.FindString(cleaned)
	if block == "" {
		return intent, errors.New("no JSON object in LLM output")
	}
	if err := json.Unmarshal([]byte(block), &intent); err != nil {
		return intent, fmt.Errorf("decoding intent: %w", err)
	}
	if intent.Intent == "" {
		intent.Intent = string(domain.IntentProductSearch)
	}
	return intent, nil
}

func (s *ProductSearchService) fetch(ctx context.Context, query string) ([]domain.Product, error) {
	key := "search:" + strings.ToLower(query)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			return cached, nil
		}
	}

	products, err := s.storefront.SearchProducts(ctx, query, s.config.Candidates)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, products, s.config.CacheTTL); err != nil {
			s.logger.Warn("failed to cache search results", zap.Error(err))
		}
	}
	return products, nil
}

// filter applies, in order: term presence, color preference, gender
// preference, price bounds and the non-empty description rule. Color and
// gender reorder matches first without dropping the rest.
func (s *ProductSearchService) filter(products []domain.Product, terms []string, intent domain.SearchIntent) []domain.Product {
	var out []domain.Product
	for _, p := range products {
		text := productText(p)
		if containsAny(text[:3], terms...) {
			out = append(out, p)
		}
	}

	if color := strings.ToLower(intent.Filters.Color); color != "" {
		out = preferMatches(out, func(p domain.Product) bool {
			return containsAny(productText(p), color)
		})
	}

	if gender := s.preprocessor.GenderPreference(intent); gender != "" {
		words := genderTextWords[gender]
		out = preferMatches(out, func(p domain.Product) bool {
			return containsAny(productText(p), words...)
		})
	}

	minPrice, priceMax := intent.Filters.PriceMin, intent.Filters.PriceMax
	result := make([]domain.Product, 0, len(out))
	for _, p := range out {
		if minPrice != nil || priceMax != nil {
			price, ok := p.NumericPrice()
			if !ok {
				continue
			}
			if minPrice != nil && price < *minPrice {
				continue
			}
			if priceMax != nil && price > *priceMax {
				continue
			}
		}
		if strings.TrimSpace(p.Description) == "" {
			continue
		}
		result = append(result, p)
	}
	return result
}

// preferMatches stably moves products satisfying match to the front
func preferMatches(products []domain.Product, match func(domain.Product) bool) []domain.Product {
	matches := make([]domain.Product, 0, len(products))
	var others []domain.Product
	for _, p := range products {
		if match(p) {
			matches = append(matches, p)
		} else {
			others = append(others, p)
		}
	}
	return append(matches, others...)
}

type rerankScore struct {
	Handle string  `json:"handle"`
	Score  float64 `json:"score"`
}

// rerank orders products by LLM relevance score. Products the LLM did not
// score keep their relative order after the scored ones. Any failure
// returns products unchanged.
func (s *ProductSearchService) rerank(ctx context.Context, message string, products []domain.Product, filters domain.SearchFilters) []domain.Product {
	if s.llm == nil || s.prompts == nil {
		return products
	}

	raw, err := s.llm.Generate(ctx, s.prompts.BuildRerankPrompt(message, products, filters))
	if err != nil {
		s.logger.Warn("rerank failed", zap.Error(err))
		return products
	}

	block := embeddedArrayPattern.FindString(codeFencePattern.ReplaceAllString(raw, ""))
	var scores []rerankScore
	if block == "" || json.Unmarshal([]byte(block), &scores) != nil {
		s.logger.Warn("rerank output not usable")
		return products
	}

	byHandle := make(map[string]float64, len(scores))
	for _, sc := range scores {
		byHandle[sc.Handle] = sc.Score
	}

	ranked := make([]domain.Product, len(products))
	copy(ranked, products)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, iok := byHandle[ranked[i].Handle]
		sj, jok := byHandle[ranked[j].Handle]
		if iok != jok {
			return iok
		}
		return si > sj
	})
	return ranked
}
