package usecase

import (
	"regexp"
	"strings"

	"github.com/shopchat/backend/internal/domain"
	"github.com/shopchat/backend/internal/render"
)

const (
	// FallbackReply is shown when an upstream reply carries nothing usable
	FallbackReply = "Sorry, I didn't get a response. Please try again."

	// NoProductsReply replaces FallbackReply for product queries
	NoProductsReply = "I could not find matching products. Try different keywords."

	// ErrorReply is shown when the chat loop itself fails
	ErrorReply = "Sorry, something went wrong."

	defaultProductsHeader = "I found these products:"
)

var looksLikeHTMLPattern = regexp.MustCompile(`(?i)</?(img|a|div|span|button|href)\b|!\[.*\]\(https?://`)

// RenderPlanner turns normalized upstream replies into render plans
type RenderPlanner struct {
	storeDomain string
}

// NewRenderPlanner creates a planner whose product links point at storeDomain
func NewRenderPlanner(storeDomain string) *RenderPlanner {
	return &RenderPlanner{storeDomain: storeDomain}
}

// Plan decides how to render a normalized reply. Branches are evaluated in
// priority order and the first match is final: structured product data,
// then a plain reply string, then the fallback message for hint.
func (p *RenderPlanner) Plan(n domain.NormalizedResponse, hint domain.Intent) domain.RenderPlan {
	if plan, ok := p.Interpret(n); ok {
		return plan
	}
	return p.Fallback(hint)
}

// Interpret runs the structured and plain reply branches. ok is false when
// neither produced anything usable.
func (p *RenderPlanner) Interpret(n domain.NormalizedResponse) (domain.RenderPlan, bool) {
	before, hasBefore := n.ParsedOutput.StringField("before_message")
	after, hasAfter := n.ParsedOutput.StringField("after_message")

	if hasBefore || hasAfter || len(n.Products) > 0 {
		if len(n.Products) > 0 {
			header := before
			if !hasBefore {
				header = defaultProductsHeader
			}
			return p.ProductsPlan(header, n.Products, after), true
		}
		return TextPlan(joinNonEmpty(before, after)), true
	}

	if len(n.CandidateReplies) > 0 {
		reply := n.CandidateReplies[0]
		if looksLikeHTMLPattern.MatchString(reply) {
			return domain.RenderPlan{Kind: domain.PlanHTML, Content: reply, HTML: render.InlineMedia(reply)}, true
		}
		return TextPlan(reply), true
	}

	return domain.RenderPlan{}, false
}

// Fallback returns the no-reply message appropriate for hint
func (p *RenderPlanner) Fallback(hint domain.Intent) domain.RenderPlan {
	if hint == domain.IntentProductSearch {
		return TextPlan(NoProductsReply)
	}
	return TextPlan(FallbackReply)
}

// ProductsPlan builds a three-part product listing plan
func (p *RenderPlanner) ProductsPlan(header string, items []domain.Product, footer string) domain.RenderPlan {
	if len(items) > render.MaxProductCards {
		items = items[:render.MaxProductCards]
	}
	return domain.RenderPlan{
		Kind:   domain.PlanProducts,
		Header: header,
		Items:  items,
		Footer: footer,
		HTML:   render.ProductList(header, items, footer, p.storeDomain),
	}
}

// TextPlan wraps plain text
func TextPlan(content string) domain.RenderPlan {
	return domain.RenderPlan{Kind: domain.PlanText, Content: content}
}

// PlanSummary flattens a plan into plain text for the session transcript
func PlanSummary(plan domain.RenderPlan) string {
	switch plan.Kind {
	case domain.PlanProducts:
		titles := make([]string, 0, len(plan.Items))
		for _, item := range plan.Items {
			titles = append(titles, item.DisplayTitle())
		}
		return joinNonEmpty(plan.Header, strings.Join(titles, ", "), plan.Footer)
	default:
		return plan.Content
	}
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, s := range parts {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}
