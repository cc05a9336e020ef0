package usecase

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopchat/backend/internal/domain"
)

// embeddedJSONPattern is deliberately greedy: first "{" to last "}"
var embeddedJSONPattern = regexp.MustCompile(`(?s)\{.*\}`)

// productExtractor pulls a product array out of one known payload shape
type productExtractor struct {
	source  string
	extract func(work map[string]any, po domain.ParsedOutput) []any
}

// productExtractors are tried in order; the first non-empty array wins
var productExtractors = []productExtractor{
	{"products", func(w map[string]any, _ domain.ParsedOutput) []any {
		return arrayAt(w, "products")
	}},
	{"results", func(w map[string]any, _ domain.ParsedOutput) []any {
		return arrayAt(w, "results")
	}},
	{"results.results", func(w map[string]any, _ domain.ParsedOutput) []any {
		return arrayAt(objectAt(w, "results"), "results")
	}},
	{"data.products", func(w map[string]any, _ domain.ParsedOutput) []any {
		return arrayAt(objectAt(w, "data"), "products")
	}},
	{"parsedOutput.products", func(_ map[string]any, po domain.ParsedOutput) []any {
		if po.Kind != domain.ParsedObject {
			return nil
		}
		return arrayAt(po.Object, "products")
	}},
	{"parsedOutput", func(_ map[string]any, po domain.ParsedOutput) []any {
		if po.Kind != domain.ParsedArray || len(po.Array) == 0 {
			return nil
		}
		first, ok := po.Array[0].(map[string]any)
		if !ok {
			return nil
		}
		if _, ok := first["id"]; ok {
			return po.Array
		}
		if _, ok := first["title"]; ok {
			return po.Array
		}
		return nil
	}},
}

// Normalize turns any decoded upstream payload into the canonical response
// shape. It never panics: malformed or unexpected input degrades to plain
// text or to an empty result.
func Normalize(raw any) domain.NormalizedResponse {
	out := domain.NormalizedResponse{
		Fields:   map[string]any{},
		Products: []domain.Product{},
	}

	work := workingObject(raw)
	if work == nil {
		return out
	}
	out.Fields = work

	if rt, ok := work["rawText"].(string); ok {
		out.RawText = &rt
	}

	possible := ""
	if s, ok := work["output"].(string); ok {
		possible = s
	} else if out.RawText != nil {
		possible = *out.RawText
	}

	if possible != "" {
		out.ParsedOutput = parseEmbedded(possible)
	} else if v, ok := work["parsedOutput"]; ok {
		out.ParsedOutput = parsedFromValue(v)
	}

	for _, ex := range productExtractors {
		arr := ex.extract(work, out.ParsedOutput)
		if len(arr) == 0 {
			continue
		}
		out.Products = productsFromArray(arr)
		out.ProductSource = ex.source
		break
	}

	out.CandidateReplies = candidateReplies(work, out.ParsedOutput)
	return out
}

// workingObject picks the object the rest of normalization reads from
func workingObject(raw any) map[string]any {
	switch val := raw.(type) {
	case map[string]any:
		return val
	case []any:
		if len(val) == 0 {
			return nil
		}
		return workingObject(val[0])
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		return map[string]any{"rawText": val}
	default:
		return nil
	}
}

// parseEmbedded extracts a JSON object from free text, falling back to the
// text itself when no object is found or it does not parse.
func parseEmbedded(s string) domain.ParsedOutput {
	match := embeddedJSONPattern.FindString(s)
	if match != "" {
		var obj map[string]any
		if err := json.Unmarshal([]byte(match), &obj); err == nil && obj != nil {
			return domain.ParsedOutput{Kind: domain.ParsedObject, Object: obj}
		}
	}
	return domain.ParsedOutput{Kind: domain.ParsedText, Text: s}
}

func parsedFromValue(v any) domain.ParsedOutput {
	switch val := v.(type) {
	case map[string]any:
		return domain.ParsedOutput{Kind: domain.ParsedObject, Object: val}
	case string:
		return domain.ParsedOutput{Kind: domain.ParsedText, Text: val}
	case []any:
		return domain.ParsedOutput{Kind: domain.ParsedArray, Array: val}
	default:
		return domain.ParsedOutput{}
	}
}

var parsedReplyKeys = []string{"before_message", "reply", "response", "message"}
var topLevelReplyKeys = []string{"rawText", "output", "text", "reply", "response", "message"}

func candidateReplies(work map[string]any, po domain.ParsedOutput) []string {
	var replies []string
	for _, k := range parsedReplyKeys {
		if s, ok := po.StringField(k); ok {
			replies = append(replies, s)
		}
	}
	for _, k := range topLevelReplyKeys {
		if s, ok := domain.StringValue(work, k); ok {
			replies = append(replies, s)
		}
	}
	return replies
}

func objectAt(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	obj, _ := m[key].(map[string]any)
	return obj
}

func arrayAt(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	arr, _ := m[key].([]any)
	return arr
}
