package domain

import "strings"

// ParsedKind tags which variant a ParsedOutput holds
type ParsedKind int

const (
	ParsedNone ParsedKind = iota
	ParsedObject
	ParsedText
	ParsedArray
)

// ParsedOutput is the interpreted form of an upstream "output" field.
// Exactly one of Object, Text or Array is meaningful, selected by Kind.
type ParsedOutput struct {
	Kind   ParsedKind
	Object map[string]any
	Text   string
	Array  []any
}

// StringField returns a trimmed, non-empty string field of an object output
func (p ParsedOutput) StringField(key string) (string, bool) {
	if p.Kind != ParsedObject {
		return "", false
	}
	return StringValue(p.Object, key)
}

// Has reports whether an object output carries key with a non-empty string
func (p ParsedOutput) Has(key string) bool {
	_, ok := p.StringField(key)
	return ok
}

// Value returns the output as a plain value for JSON encoding
func (p ParsedOutput) Value() any {
	switch p.Kind {
	case ParsedObject:
		return p.Object
	case ParsedText:
		return p.Text
	case ParsedArray:
		return p.Array
	default:
		return nil
	}
}

// NormalizedResponse is the canonical shape of any upstream reply
type NormalizedResponse struct {
	// Fields holds the working object's original top-level fields
	Fields        map[string]any
	RawText       *string
	ParsedOutput  ParsedOutput
	Products      []Product
	ProductSource string
	// CandidateReplies are the non-empty reply strings in priority order
	CandidateReplies []string
}

// StringValue reads a trimmed, non-empty string field from a decoded JSON object
func StringValue(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// PlanKind tags a RenderPlan variant
type PlanKind string

const (
	PlanText     PlanKind = "text"
	PlanHTML     PlanKind = "html"
	PlanProducts PlanKind = "products"
)

// RenderPlan tells the widget what to insert for one assistant reply.
// Content is used by text and html plans; Header, Items and Footer by
// products plans. HTML is always sanitized markup ready for insertion.
type RenderPlan struct {
	Kind    PlanKind  `json:"kind"`
	Content string    `json:"content,omitempty"`
	Header  string    `json:"header,omitempty"`
	Items   []Product `json:"items,omitempty"`
	Footer  string    `json:"footer,omitempty"`
	HTML    string    `json:"html,omitempty"`
}

// ControlState is the interactive control an action toggles while in flight
type ControlState interface {
	SetBusy(label string)
	Restore()
}

// ButtonState models an action button's label and enabled state
type ButtonState struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`

	saved     bool
	origLabel string
}

// NewButtonState returns an enabled button with the given label
func NewButtonState(label string) *ButtonState {
	return &ButtonState{Label: label}
}

// SetBusy disables the button and swaps in label, remembering the original
func (b *ButtonState) SetBusy(label string) {
	if !b.saved {
		b.origLabel = b.Label
		b.saved = true
	}
	b.Label = label
	b.Disabled = true
}

// Restore puts back the label and enabled state captured by SetBusy
func (b *ButtonState) Restore() {
	if b.saved {
		b.Label = b.origLabel
		b.saved = false
	}
	b.Disabled = false
}
