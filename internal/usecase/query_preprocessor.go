package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopchat/backend/internal/domain"
)

// QueryPreprocessor extracts keywords and filters from a shopper's
// request and turns them into a storefront search query
type QueryPreprocessor struct{}

// Compiled regex patterns for query preprocessing
var (
	// Matches everything that cannot be part of a keyword or price
	keywordNoisePattern = regexp.MustCompile(`[^a-z0-9\s₹₨.,]`)

	// Matches upper bounds like "under 500", "below rs 1,000", "< 20"
	priceUnderPattern = regexp.MustCompile(`(?i)(?:under|below|less than|<)\s*((?:₹|₨|rs\.?)?\s*\d[\d,]*(?:\.\d+)?)`)

	// Matches lower bounds like "over 500", "above ₹200", "> 20"
	priceOverPattern = regexp.MustCompile(`(?i)(?:over|above|more than|>)\s*((?:₹|₨|rs\.?)?\s*\d[\d,]*(?:\.\d+)?)`)

	// Matches any number of two or more digits, with optional thousands separators
	anyPricePattern = regexp.MustCompile(`\d[\d,]*\d(?:\.\d{1,2})?`)

	rupeePattern = regexp.MustCompile(`(?i)rupees?|\brs\b|₹`)

	// Matches a leading decimal number once currency markers are stripped
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

	termNoisePattern = regexp.MustCompile(`[^a-z0-9]`)
)

// queryStopWords never become search keywords
var queryStopWords = map[string]bool{
	"can": true, "you": true, "show": true, "me": true, "some": true,
	"a": true, "an": true, "the": true, "please": true, "find": true,
	"want": true, "see": true, "with": true, "and": true, "for": true,
	"in": true, "on": true, "of": true,

	// price phrasing is captured by filters instead
	"under": true, "below": true, "less": true, "than": true, "over": true,
	"above": true, "more": true, "rupee": true, "rupees": true,
}

var colorWords = []string{
	"red", "blue", "black", "white", "green", "yellow", "pink", "purple", "brown",
	"grey", "gray", "orange", "maroon", "navy", "beige", "teal", "olive", "gold", "silver",
}

var (
	maleKeywords    = map[string]bool{"men": true, "men's": true, "mens": true, "male": true, "man": true}
	femaleKeywords  = map[string]bool{"women": true, "women's": true, "womens": true, "female": true, "lady": true, "ladies": true}
	unisexKeywords  = map[string]bool{"unisex": true, "all": true}
	genderTextWords = map[string][]string{
		"male":   {"men", "man", "mens", "male", "boy"},
		"female": {"women", "woman", "womens", "female", "lady", "ladies", "girl"},
		"unisex": {"unisex", "all"},
	}
)

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor() *QueryPreprocessor {
	return &QueryPreprocessor{}
}

// HeuristicIntent reads keywords, price bounds, currency, color and
// gender from a request without an LLM
func (p *QueryPreprocessor) HeuristicIntent(message string) domain.SearchIntent {
	intent := domain.SearchIntent{
		Intent:   string(domain.IntentProductSearch),
		Keywords: p.Keywords(message),
		RawQuery: message,
	}

	if m := priceUnderPattern.FindStringSubmatch(message); m != nil {
		intent.Filters.PriceMax = parsePrice(m[1])
	}
	if m := priceOverPattern.FindStringSubmatch(message); m != nil {
		intent.Filters.PriceMin = parsePrice(m[1])
	}
	if intent.Filters.PriceMin == nil && intent.Filters.PriceMax == nil {
		if m := anyPricePattern.FindString(message); m != "" {
			intent.Filters.PriceMax = parsePrice(m)
		}
	}
	if rupeePattern.MatchString(message) {
		intent.Filters.Currency = "INR"
	}

	for _, k := range intent.Keywords {
		if intent.Filters.Color == "" && isColor(k) {
			intent.Filters.Color = k
		}
		if intent.Filters.Gender == "" {
			intent.Filters.Gender = genderOf(k, false)
		}
	}

	return intent
}

// Keywords lowercases message and keeps tokens longer than two characters
// that are neither stop words nor bare numbers
func (p *QueryPreprocessor) Keywords(message string) []string {
	cleaned := keywordNoisePattern.ReplaceAllString(strings.ToLower(message), " ")

	var keywords []string
	for _, tok := range strings.Fields(cleaned) {
		tok = strings.Trim(tok, ".,")
		if len(tok) <= 2 || queryStopWords[tok] {
			continue
		}
		if _, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", ""), 64); err == nil {
			continue
		}
		keywords = append(keywords, tok)
	}
	return keywords
}

// Terms normalizes keywords to alphanumerics and adds naive singulars
// ("shirts" also yields "shirt"). Falls back to the message words when
// keywords is empty.
func (p *QueryPreprocessor) Terms(keywords []string, message string) []string {
	raw := keywords
	if len(raw) == 0 {
		raw = strings.Fields(strings.ToLower(message))
	}

	seen := make(map[string]bool, len(raw)*2)
	terms := make([]string, 0, len(raw)*2)
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	for _, t := range raw {
		w := termNoisePattern.ReplaceAllString(strings.ToLower(t), "")
		add(w)
		if len(w) > 3 && strings.HasSuffix(w, "s") {
			add(strings.TrimSuffix(w, "s"))
		}
	}
	return terms
}

// StorefrontQuery builds a storefront search query that matches any term
// in the title, handle, tags or product type
func (p *QueryPreprocessor) StorefrontQuery(terms []string, message string) string {
	clauses := make([]string, 0, len(terms))
	for _, t := range terms {
		safe := strings.NewReplacer(`"`, "", `'`, "").Replace(t)
		clauses = append(clauses,
			"(title:*"+safe+"* OR handle:*"+safe+"* OR tag:*"+safe+"* OR product_type:*"+safe+"*)")
	}
	if len(clauses) == 0 {
		return message
	}
	return strings.Join(clauses, " OR ")
}

// GenderPreference returns the gender filter, or the first gendered keyword
func (p *QueryPreprocessor) GenderPreference(intent domain.SearchIntent) string {
	if g := strings.ToLower(intent.Filters.Gender); g != "" {
		return g
	}
	for _, k := range intent.Keywords {
		if g := genderOf(strings.ToLower(k), true); g != "" {
			return g
		}
	}
	return ""
}

func genderOf(keyword string, allowUnisex bool) string {
	switch {
	case maleKeywords[keyword]:
		return "male"
	case femaleKeywords[keyword]:
		return "female"
	case allowUnisex && unisexKeywords[keyword]:
		return "unisex"
	}
	return ""
}

func isColor(word string) bool {
	for _, c := range colorWords {
		if c == word {
			return true
		}
	}
	return false
}

// parsePrice reads the number in a price fragment such as "rs 1,200.50"
func parsePrice(s string) *float64 {
	m := numberPattern.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// productText lowercases the searchable text fields of a product
func productText(p domain.Product) []string {
	return []string{
		strings.ToLower(p.Title),
		strings.ToLower(p.Description),
		strings.ToLower(p.Handle),
		strings.ToLower(strings.Join(p.Tags, " ")),
		strings.ToLower(p.ProductType),
	}
}

func containsAny(fields []string, words ...string) bool {
	for _, f := range fields {
		for _, w := range words {
			if w != "" && strings.Contains(f, w) {
				return true
			}
		}
	}
	return false
}
