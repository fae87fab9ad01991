package annotator

import (
	"fmt"
	"strings"
	"unicode"
)

// scanned is one visible candidate reported by the in-page scan.
type scanned struct {
	Key      string   `json:"key"`
	Category Category `json:"category"`
	Aria     string   `json:"aria"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
}

// cleanLabel keeps letters, numbers and spaces, collapsing runs of whitespace.
func cleanLabel(s string) string {
	var b strings.Builder
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
	}
	return b.String()
}

// collapseSpace trims s and folds inner whitespace runs to one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// clickableLabel prefers a non-blank aria-label over the element's text.
func clickableLabel(aria, text string) string {
	if a := collapseSpace(aria); a != "" {
		return a
	}
	return cleanLabel(text)
}

// assign turns scan results into elements with identifiers unique per
// category. Input order is document order within each category, so ordinals
// are stable for an unchanged DOM.
func assign(items []scanned) []Element {
	ordinals := make(map[Category]int, len(Categories))
	taken := make(map[Category]map[string]bool, len(Categories))

	elements := make([]Element, 0, len(items))
	for _, it := range items {
		n := ordinals[it.Category]
		ordinals[it.Category]++

		ordinal := fmt.Sprintf("%s-%d", it.Category.Prefix(), n)
		el := Element{Category: it.Category, key: it.Key}

		switch it.Category {
		case Clickable:
			el.Label = clickableLabel(it.Aria, it.Text)
			el.ID = el.Label
			if el.ID == "" {
				el.ID = ordinal
			}
		case Select:
			el.ID = ordinal
			el.Options = append([]string{}, it.Options...)
		default:
			el.ID = ordinal
		}

		if taken[it.Category] == nil {
			taken[it.Category] = make(map[string]bool)
		}
		el.ID = uniqueIn(taken[it.Category], el.ID)
		taken[it.Category][el.ID] = true

		if el.Label == "" {
			el.Label = el.ID
		}
		elements = append(elements, el)
	}
	return elements
}

// uniqueIn returns id, or id with the smallest numeric suffix not yet used.
func uniqueIn(used map[string]bool, id string) string {
	if !used[id] {
		return id
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s %d", id, i)
		if !used[candidate] {
			return candidate
		}
	}
}

const maxOverlayText = 24

// overlayText shortens id for the on-page label. The identifier attribute
// keeps the full value.
func overlayText(id string) string {
	r := []rune(id)
	if len(r) <= maxOverlayText {
		return id
	}
	return strings.TrimRightFunc(string(r[:maxOverlayText]), unicode.IsSpace) + "…"
}
