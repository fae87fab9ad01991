package action

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformed matches every MalformedError.
var ErrMalformed = errors.New("malformed action")

// MalformedError reports text that should have carried an action request but
// could not be turned into one. Callers ask the model to resend.
type MalformedError struct {
	Raw    string
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed action: " + e.Reason
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

var actionKey = regexp.MustCompile(`\{\s*"action"\s*:`)

// Mentions reports whether text looks like it is trying to issue an action.
// Replies that do not are treated as a final answer by the agent.
func Mentions(text string) bool {
	return actionKey.MatchString(text)
}

// Parse extracts the first {"action": ...} object from text, or the first JSON
// object when none starts that way, and converts it into an Action.
// Surrounding prose and code fences are ignored.
func Parse(text string) (Action, error) {
	raw, ok := extractObject(text)
	if !ok {
		return nil, &MalformedError{Raw: text, Reason: "no JSON object found"}
	}
	if !gjson.Valid(raw) {
		return nil, &MalformedError{Raw: raw, Reason: "invalid JSON"}
	}

	doc := gjson.Parse(raw)
	kind := doc.Get("action")
	if kind.Type != gjson.String {
		return nil, &MalformedError{Raw: raw, Reason: `missing string field "action"`}
	}

	id := strings.TrimSpace(scalar(doc.Get("id")))
	value := scalar(doc.Get("value"))

	require := func(name, v string) error {
		if v == "" {
			return &MalformedError{Raw: raw, Reason: fmt.Sprintf("%s action requires %q", kind.String(), name)}
		}
		return nil
	}

	switch Kind(strings.ToLower(strings.TrimSpace(kind.String()))) {
	case KindNavigate:
		url := strings.TrimSpace(value)
		if err := require("value", url); err != nil {
			return nil, err
		}
		return Navigate{URL: url}, nil
	case KindClick:
		if err := require("id", id); err != nil {
			return nil, err
		}
		return Click{ID: id}, nil
	case KindType:
		if err := require("id", id); err != nil {
			return nil, err
		}
		return Type{ID: id, Text: value}, nil
	case KindSelect:
		if err := require("id", id); err != nil {
			return nil, err
		}
		return Select{ID: id, Value: value}, nil
	case KindScroll:
		if err := require("id", id); err != nil {
			return nil, err
		}
		if err := require("value", strings.TrimSpace(value)); err != nil {
			return nil, err
		}
		return Scroll{ID: id, Amount: strings.TrimSpace(value)}, nil
	default:
		return nil, &MalformedError{Raw: raw, Reason: fmt.Sprintf("unknown action %q", kind.String())}
	}
}

// scalar returns strings verbatim and numbers in their source form.
func scalar(r gjson.Result) string {
	switch r.Type {
	case gjson.String, gjson.Number:
		return r.String()
	default:
		return ""
	}
}

// extractObject returns the balanced {...} span starting at the first action
// object in s, or at the first brace when there is none. Braces inside JSON
// strings are skipped.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if loc := actionKey.FindStringIndex(s); loc != nil {
		start = loc[0]
	}
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
