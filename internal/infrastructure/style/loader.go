package style

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tokens maps a style token name (camelCase, as the widget CSS expects)
// to its CSS value
type Tokens map[string]string

// Defaults returns the built-in widget style tokens
func Defaults() Tokens {
	return Tokens{
		"primaryColor":           "#667eea",
		"secondaryColor":         "#764ba2",
		"textColor":              "#333",
		"textColorLight":         "#6b7280",
		"backgroundColor":        "#ffffff",
		"backgroundColorLight":   "#f8fafc",
		"borderColor":            "#e1e5e9",
		"userMessageBg":          "linear-gradient(135deg, #667eea 0%, #764ba2 100%)",
		"userMessageColor":       "#ffffff",
		"assistantMessageBg":     "#ffffff",
		"assistantMessageColor":  "#333",
		"inputBackground":        "#f3f4f6",
		"borderRadius":           "18px",
		"borderRadiusSmall":      "6px",
		"fontSize":               "14px",
		"fontSizeLarge":          "18px",
		"fontSizeSmall":          "12px",
		"padding":                "20px",
		"paddingSmall":           "12px",
		"chatBubbleSize":         "60px",
		"chatBubbleBorderRadius": "50%",
		"headerBackground":       "linear-gradient(135deg, #667eea 0%, #764ba2 100%)",
		"headerColor":            "#ffffff",
		"headerPadding":          "20px",
		"messageRadius":          "18px",
		"messagePadding":         "12px 16px",
		"messageBorderWidth":     "1px",
		"inputBorderRadius":      "26px",
		"inputPadding":           "12px 18px",
		"inputFontSize":          "15px",
		"buttonRadius":           "50%",
		"buttonSize":             "40px",
		"shadowSmall":            "0 2px 6px rgba(16, 24, 40, 0.03)",
		"shadowMedium":           "0 4px 20px rgba(102, 126, 234, 0.4)",
		"shadowLarge":            "0 10px 40px rgba(0, 0, 0, 0.15)",
		"transitionSpeed":        "0.3s",
	}
}

// Load reads token overrides from a YAML (or JSON) file and merges them
// over the defaults. An empty path yields the defaults.
func Load(path string) (Tokens, error) {
	tokens := Defaults()
	if path == "" {
		return tokens, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading style file: %w", err)
	}

	overrides, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing style file %s: %w", path, err)
	}
	maps.Copy(tokens, overrides)
	return tokens, nil
}

// Parse decodes a flat mapping of token overrides. Blank values are dropped.
func Parse(data []byte) (Tokens, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(Tokens, len(raw))
	for k, v := range raw {
		s := strings.TrimSpace(fmt.Sprint(v))
		if v == nil || s == "" {
			continue
		}
		out[k] = s
	}
	return out, nil
}

// WithColors applies the widget's primary and secondary colors unless the
// style file already changed them from the defaults
func (t Tokens) WithColors(primary, secondary string) Tokens {
	out := maps.Clone(t)
	defaults := Defaults()
	if primary != "" && out["primaryColor"] == defaults["primaryColor"] {
		out["primaryColor"] = primary
	}
	if secondary != "" && out["secondaryColor"] == defaults["secondaryColor"] {
		out["secondaryColor"] = secondary
	}
	return out
}
