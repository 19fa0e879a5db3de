package workflow

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderPattern matches {{NAME}} and {{NAME|default}}. Defaults may be empty but cannot contain '}'.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?:\|([^}]*))?\}\}`)

// Placeholder is one substitution variable found in a raw template.
type Placeholder struct {
	Name       string `json:"name"`
	Default    string `json:"default,omitempty"`
	HasDefault bool   `json:"has_default"`
}

// ScanPlaceholders lists placeholders in order of first appearance, one entry per name.
// A name written with two different defaults is an error; a bare {{NAME}} next to
// {{NAME|x}} inherits the default.
func ScanPlaceholders(raw string) ([]Placeholder, error) {
	var out []Placeholder
	index := make(map[string]int)
	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(raw, -1) {
		name := raw[m[2]:m[3]]
		p := Placeholder{Name: name}
		if m[4] >= 0 {
			p.Default = strings.TrimSpace(raw[m[4]:m[5]])
			p.HasDefault = true
		}
		i, ok := index[name]
		if !ok {
			index[name] = len(out)
			out = append(out, p)
			continue
		}
		prev := &out[i]
		switch {
		case !p.HasDefault:
		case !prev.HasDefault:
			prev.Default, prev.HasDefault = p.Default, true
		case prev.Default != p.Default:
			return nil, fmt.Errorf("%w: placeholder %q has conflicting defaults %q and %q",
				ErrInvalidTemplate, name, prev.Default, p.Default)
		}
	}
	return out, nil
}

// Defaults maps every placeholder that declares a default to that default.
func Defaults(placeholders []Placeholder) map[string]string {
	out := make(map[string]string, len(placeholders))
	for _, p := range placeholders {
		if p.HasDefault {
			out[p.Name] = p.Default
		}
	}
	return out
}
