package usecase

import (
	"regexp"
	"strings"

	"github.com/shopchat/backend/internal/domain"
)

var questionWords = []string{"why", "what", "how", "when", "where", "who", "did", "does", "do", "is", "are", "was", "were"}

// productVerbs are scanned in order; the first contained phrase decides
var productVerbs = []string{
	"show me", "show", "find me", "find", "search for", "search", "list", "browse",
	"search products", "show products", "show item", "show items",
}

var desirePattern = regexp.MustCompile(`(?i)\b(i want|i'd like|i would like|looking for|need|want|buy)\b`)

// Classify decides from the message text alone whether the user is asking
// for products. Precedence: question words, then product verbs, then
// desire phrases, then conversational.
func Classify(message string) domain.Intent {
	q := strings.ToLower(strings.TrimSpace(message))
	if q == "" {
		return domain.IntentConversational
	}

	for _, w := range questionWords {
		if q == w || strings.HasPrefix(q, w+" ") {
			return domain.IntentConversational
		}
	}

	for _, v := range productVerbs {
		if strings.Contains(q, v) {
			// a bare verb like "show" or "show?" is not a query
			if len(q) <= len(v)+1 {
				return domain.IntentConversational
			}
			return domain.IntentProductSearch
		}
	}

	if desirePattern.MatchString(q) {
		return domain.IntentProductSearch
	}

	return domain.IntentConversational
}
