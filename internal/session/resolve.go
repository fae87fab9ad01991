package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-rod/rod"

	"github.com/v0xg/pagepilot/internal/annotator"
)

// match picks the index of want in values. An exact match wins; otherwise
// the last value containing want is used. It returns -1 when nothing matches.
func match(values []string, want string) int {
	partial := -1
	for i, v := range values {
		if v == want {
			return i
		}
		if strings.Contains(v, want) {
			partial = i
		}
	}
	return partial
}

// resolve finds the live element of category cat carrying identifier id.
func (c *Controller) resolve(ctx context.Context, cat annotator.Category, id string) (*rod.Element, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &InvalidArgumentError{Name: "id", Value: id, Reason: "identifier is empty"}
	}

	attr := cat.Attribute()
	els, err := c.page.Context(ctx).Elements("[" + attr + "]")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s elements: %w", cat, err)
	}

	values := make([]string, len(els))
	for i, el := range els {
		v, err := el.Attribute(attr)
		if err != nil || v == nil {
			continue
		}
		values[i] = *v
	}

	i := match(values, id)
	if i < 0 {
		return nil, &NotFoundError{Category: cat, ID: id}
	}
	if values[i] != id {
		c.log.Debug("%s %q resolved to %q", cat, id, values[i])
	}
	return els[i], nil
}

// parsePixels reads a leading, optionally signed, integer from s the way a
// lenient integer parse would: "300", " -120px" and "+40" are accepted, "abc"
// and "" are not.
func parsePixels(s string) (int, error) {
	t := strings.TrimSpace(s)
	end := 0
	if end < len(t) && (t[end] == '-' || t[end] == '+') {
		end++
	}
	digits := end
	for end < len(t) && t[end] >= '0' && t[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, &InvalidArgumentError{Name: "scroll amount", Value: s, Reason: "not a number"}
	}
	n, err := strconv.Atoi(t[:end])
	if err != nil {
		return 0, &InvalidArgumentError{Name: "scroll amount", Value: s, Reason: "out of range"}
	}
	return n, nil
}
