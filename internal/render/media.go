package render

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

type segmentKind int

const (
	segText segmentKind = iota
	segImage
	segLink
)

// segment is a typed span of the output. Only text segments are eligible
// for further pattern matching; image and link spans are final.
type segment struct {
	kind  segmentKind
	text  string // raw text, or link label
	url   string
	alt   string
	class string
}

type mediaRule struct {
	pattern *regexp.Regexp
	build   func(groups []string) (segment, bool)
}

const cdnWindow = 1000

var (
	cdnStartPattern = regexp.MustCompile(`https?://cdn\.shopify\.com/`)
	imageExtTail    = regexp.MustCompile(`(?i)\.(?:png|jpe?g|gif|webp|svg)(?:\?[^\s<>"'()\[\]]*)?`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	urlPiece        = regexp.MustCompile(`^[A-Za-z0-9\-._~:/?#@!$&*+,;=%]+$`)
	urlTrim         = regexp.MustCompile(`^[("'\s]+|[)"'\s]+$`)
)

// mediaRules are applied in order; each only sees text not claimed earlier.
var mediaRules = []mediaRule{
	{
		// ![alt](url)
		pattern: regexp.MustCompile(`!\[([^\]]*)\]\s*\(\s*(https?://[^\s)]+)\s*\)`),
		build: func(g []string) (segment, bool) {
			return imageSegment(g[2], g[1])
		},
	},
	{
		// [text](url)
		pattern: regexp.MustCompile(`\[([^\]]+)\]\s*\(\s*(https?://[^\s)]+)\s*\)`),
		build: func(g []string) (segment, bool) {
			u := safeURL(g[2])
			if u == "" {
				return segment{}, false
			}
			return segment{kind: segLink, text: g[1], url: u, class: "chat-link"}, true
		},
	},
	{
		// [Image: url]
		pattern: regexp.MustCompile(`\[\s*(?i:image)\s*:\s*(https?://[^\]\s]+)\s*\]`),
		build: func(g []string) (segment, bool) {
			return imageSegment(g[1], "")
		},
	},
	{
		// bare image URL
		pattern: regexp.MustCompile(`(?i)https?://[^\s"'<>]+\.(?:png|jpe?g|gif|webp|svg)(?:\?[^\s"'<>]*)?`),
		build: func(g []string) (segment, bool) {
			return imageSegment(g[0], "")
		},
	},
	{
		// <href>url</href> checkout links
		pattern: regexp.MustCompile(`(?is)<href>\s*(.*?)\s*</href>`),
		build: func(g []string) (segment, bool) {
			u := safeURL(g[1])
			if u == "" {
				return segment{}, false
			}
			return segment{kind: segLink, text: "Proceed to Checkout", url: u, class: "checkout-link"}, true
		},
	},
}

var mediaPolicy = newMediaPolicy()

func newMediaPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	p.AllowElements("div", "span", "br", "p")
	p.AllowAttrs("src", "alt", "class", "loading").OnElements("img")
	p.AllowAttrs("href", "target", "rel", "class").OnElements("a")
	p.AllowAttrs("type", "class").OnElements("button")
	p.AllowAttrs("class").OnElements("div", "span", "p")
	p.AllowDataAttributes()
	return p
}

// Sanitize runs assembled markup through the allow-list policy
func Sanitize(markup string) string {
	return mediaPolicy.Sanitize(markup)
}

// InlineMedia converts markdown images, markdown links, bracketed image
// references, bare image URLs and <href> checkout wrappers into HTML.
// Surrounding text is escaped and otherwise preserved. When nothing
// matches, the escaped input is returned unchanged in content.
func InlineMedia(text string) string {
	segs := []segment{{kind: segText, text: reconstructCDNURLs(text)}}
	matched := false

	for _, rule := range mediaRules {
		next := make([]segment, 0, len(segs))
		for _, s := range segs {
			if s.kind != segText {
				next = append(next, s)
				continue
			}
			out, hit := applyRule(rule, s.text)
			if hit {
				matched = true
			}
			next = append(next, out...)
		}
		segs = next
	}

	if !matched {
		return html.EscapeString(text)
	}

	var b strings.Builder
	for _, s := range segs {
		writeSegment(&b, s)
	}
	return Sanitize(b.String())
}

func applyRule(rule mediaRule, text string) ([]segment, bool) {
	locs := rule.pattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return []segment{{kind: segText, text: text}}, false
	}

	var out []segment
	hit := false
	pos := 0
	for _, loc := range locs {
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}
		seg, ok := rule.build(groups)
		if !ok {
			continue
		}
		if loc[0] > pos {
			out = append(out, segment{kind: segText, text: text[pos:loc[0]]})
		}
		out = append(out, seg)
		pos = loc[1]
		hit = true
	}
	if pos < len(text) {
		out = append(out, segment{kind: segText, text: text[pos:]})
	}
	return out, hit
}

func writeSegment(b *strings.Builder, s segment) {
	switch s.kind {
	case segImage:
		b.WriteString(`<img src="`)
		b.WriteString(html.EscapeString(s.url))
		b.WriteString(`" alt="`)
		b.WriteString(html.EscapeString(s.alt))
		b.WriteString(`" class="`)
		b.WriteString(s.class)
		b.WriteString(`" loading="lazy">`)
	case segLink:
		b.WriteString(`<a href="`)
		b.WriteString(html.EscapeString(s.url))
		b.WriteString(`" target="_blank" rel="noopener noreferrer" class="`)
		b.WriteString(s.class)
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(s.text))
		b.WriteString(`</a>`)
	default:
		b.WriteString(html.EscapeString(s.text))
	}
}

func imageSegment(rawURL, alt string) (segment, bool) {
	u := safeURL(rawURL)
	if u == "" {
		return segment{}, false
	}
	if alt == "" {
		alt = "image"
	}
	return segment{kind: segImage, url: u, alt: alt, class: "chat-inline-image"}, true
}

// safeURL trims wrapping punctuation and accepts only http(s) URLs
func safeURL(raw string) string {
	u := urlTrim.ReplaceAllString(strings.TrimSpace(raw), "")
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return ""
	}
	return u
}

// reconstructCDNURLs rejoins storefront CDN image URLs that upstream text
// wrapping split across whitespace. A URL is only rejoined when it ends in
// an image extension within cdnWindow bytes and every piece looks like a
// URL fragment.
func reconstructCDNURLs(text string) string {
	starts := cdnStartPattern.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return text
	}

	var b strings.Builder
	pos := 0
	for _, loc := range starts {
		if loc[0] < pos {
			continue
		}
		end := loc[0] + cdnWindow
		if end > len(text) {
			end = len(text)
		}
		window := text[loc[0]:end]
		tail := imageExtTail.FindStringIndex(window)
		if tail == nil {
			continue
		}
		joined, ok := joinURLPieces(window[:tail[1]])
		if !ok {
			continue
		}
		b.WriteString(text[pos:loc[0]])
		b.WriteString(joined)
		pos = loc[0] + tail[1]
	}
	b.WriteString(text[pos:])
	return b.String()
}

func joinURLPieces(candidate string) (string, bool) {
	seps := whitespaceRun.FindAllStringIndex(candidate, -1)
	if len(seps) == 0 {
		return candidate, true
	}

	pieces := whitespaceRun.Split(candidate, -1)
	for _, p := range pieces {
		if !urlPiece.MatchString(p) {
			return "", false
		}
	}
	for i, sep := range seps {
		gap := candidate[sep[0]:sep[1]]
		if strings.Contains(gap, "\n") {
			continue
		}
		// a space between two words is prose, not a wrapped URL
		if endsWithLetter(pieces[i]) && startsWithLetter(pieces[i+1]) {
			return "", false
		}
	}
	return strings.Join(pieces, ""), true
}

func endsWithLetter(s string) bool {
	r := []rune(s)
	return len(r) > 0 && unicode.IsLetter(r[len(r)-1])
}

func startsWithLetter(s string) bool {
	r := []rune(s)
	return len(r) > 0 && unicode.IsLetter(r[0])
}
