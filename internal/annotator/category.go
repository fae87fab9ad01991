package annotator

import "fmt"

// Category is one of the four kinds of interactive element the annotator marks.
type Category string

const (
	Clickable      Category = "clickable"
	TextInput      Category = "text-input"
	Select         Category = "select"
	ScrollableArea Category = "scrollable-area"
)

// Categories lists every category in scan order.
var Categories = []Category{Clickable, TextInput, Select, ScrollableArea}

// DOM attributes written by an annotation pass.
const (
	attrPrefix   = "data-pagepilot-"
	OverlayAttr  = attrPrefix + "overlay"
	outlineAttr  = attrPrefix + "outline"
	keyAttr      = attrPrefix + "key"
	linkAttr     = attrPrefix + "link"
	inputAttr    = attrPrefix + "input"
	selectAttr   = attrPrefix + "select"
	scrollAttr   = attrPrefix + "scroll"
	defaultMinPx = 5
)

// textInputTypes are the input types annotated as text inputs.
var textInputTypes = []string{"text", "search", "number", "email", "tel", "url", "password"}

// Attribute is the DOM attribute holding this category's identifiers.
func (c Category) Attribute() string {
	switch c {
	case Clickable:
		return linkAttr
	case TextInput:
		return inputAttr
	case Select:
		return selectAttr
	case ScrollableArea:
		return scrollAttr
	default:
		panic(fmt.Sprintf("annotator: unknown category %q", string(c)))
	}
}

// Prefix is the ordinal identifier prefix, e.g. "i" for i-3.
func (c Category) Prefix() string {
	switch c {
	case Clickable:
		return "c"
	case TextInput:
		return "i"
	case Select:
		return "s"
	case ScrollableArea:
		return "sa"
	default:
		return "x"
	}
}

// Color is the marker colour drawn around elements of this category.
func (c Category) Color() string {
	switch c {
	case Clickable:
		return "#FF0000"
	case TextInput:
		return "#FFC400"
	case Select:
		return "#007BFF"
	case ScrollableArea:
		return "#00B050"
	default:
		return "#FF00FF"
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func identifierAttributes() []string {
	attrs := make([]string, 0, len(Categories))
	for _, c := range Categories {
		attrs = append(attrs, c.Attribute())
	}
	return attrs
}
