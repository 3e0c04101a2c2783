package wrapped

import (
	"maps"
	"slices"
	"strings"
)

// Summary describes the placeholders of a scanned text.
type Summary struct {
	Elements     int                 `json:"elements"`
	Placeholders int                 `json:"placeholders"`
	ByKind       map[WrapperKind]int `json:"by_kind"`
	Keys         []string            `json:"keys"` // Distinct trimmed interiors, first-seen order
}

// Placeholders returns the items of all wrapped elements in scan order.
func Placeholders(elements []Element) []Item {
	var items []Item
	for _, el := range elements {
		if el.IsWrapped() {
			items = append(items, el.Item)
		}
	}
	return items
}

// Summarize counts placeholders per kind and collects their distinct keys.
func Summarize(elements []Element) Summary {
	summary := Summary{
		Elements: len(elements),
		ByKind:   make(map[WrapperKind]int),
		Keys:     []string{},
	}

	seen := make(map[string]struct{})
	for _, item := range Placeholders(elements) {
		summary.Placeholders++
		summary.ByKind[item.Wrapper]++

		key := strings.TrimSpace(item.Text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		summary.Keys = append(summary.Keys, key)
	}
	return summary
}

// distinctForms returns the canonical delimited form of each distinct
// placeholder in first-seen order
func distinctForms(catalog Catalog, elements []Element) []string {
	forms := []string{}
	seen := make(map[string]struct{})
	for _, item := range Placeholders(elements) {
		form := catalog.Wrap(item)
		if _, dup := seen[form]; dup {
			continue
		}
		seen[form] = struct{}{}
		forms = append(forms, form)
	}
	return forms
}

// HasKind reports whether at least one placeholder uses kind.
func (s Summary) HasKind(kind WrapperKind) bool {
	return s.ByKind[kind] > 0
}

// HasKey reports whether key is one of the distinct placeholder keys.
func (s Summary) HasKey(key string) bool {
	return slices.Contains(s.Keys, key)
}

// clone returns a deep copy of s
func (s *Summary) clone() *Summary {
	if s == nil {
		return nil
	}
	cp := *s
	cp.ByKind = maps.Clone(s.ByKind)
	cp.Keys = slices.Clone(s.Keys)
	return &cp
}
