// Package action defines the requests a decision loop can issue against a
// browser session, and the parse step that turns model output into one.
package action

import "fmt"

// Kind is the wire value of the "action" field.
type Kind string

const (
	KindNavigate Kind = "url"
	KindClick    Kind = "click"
	KindType     Kind = "type"
	KindSelect   Kind = "select"
	KindScroll   Kind = "scroll"
)

// Action is one of Navigate, Click, Type, Select or Scroll.
type Action interface {
	Kind() Kind
	// Describe renders the action for logs and transcripts.
	Describe() string
	sealed()
}

// Navigate loads a URL in the current tab.
type Navigate struct {
	URL string
}

// Click clicks the clickable element with the given identifier.
type Click struct {
	ID string
}

// Type sends keystrokes to a text input.
type Type struct {
	ID   string
	Text string
}

// Select chooses an option value on a select element.
type Select struct {
	ID    string
	Value string
}

// Scroll scrolls a scrollable area vertically. Amount is kept as the raw
// string; the session validates it.
type Scroll struct {
	ID     string
	Amount string
}

func (Navigate) Kind() Kind { return KindNavigate }
func (Click) Kind() Kind    { return KindClick }
func (Type) Kind() Kind     { return KindType }
func (Select) Kind() Kind   { return KindSelect }
func (Scroll) Kind() Kind   { return KindScroll }

func (a Navigate) Describe() string { return fmt.Sprintf("url %s", a.URL) }
func (a Click) Describe() string    { return fmt.Sprintf("click %q", a.ID) }
func (a Type) Describe() string     { return fmt.Sprintf("type %q into %s", a.Text, a.ID) }
func (a Select) Describe() string   { return fmt.Sprintf("select %q on %s", a.Value, a.ID) }
func (a Scroll) Describe() string   { return fmt.Sprintf("scroll %s by %spx", a.ID, a.Amount) }

func (Navigate) sealed() {}
func (Click) sealed()    {}
func (Type) sealed()     {}
func (Select) sealed()   {}
func (Scroll) sealed()   {}

// Request is the JSON shape the decision loop emits.
type Request struct {
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	Value  string `json:"value,omitempty"`
}

// ToRequest converts an action back to its wire shape.
func ToRequest(a Action) Request {
	switch a := a.(type) {
	case Navigate:
		return Request{Action: string(KindNavigate), Value: a.URL}
	case Click:
		return Request{Action: string(KindClick), ID: a.ID}
	case Type:
		return Request{Action: string(KindType), ID: a.ID, Value: a.Text}
	case Select:
		return Request{Action: string(KindSelect), ID: a.ID, Value: a.Value}
	case Scroll:
		return Request{Action: string(KindScroll), ID: a.ID, Value: a.Amount}
	default:
		return Request{}
	}
}
