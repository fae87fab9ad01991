package ai

import (
	"fmt"
	"strings"

	"github.com/v0xg/pagepilot/internal/annotator"
)

const systemPrompt = `You operate a web browser for the user. After every step you receive a screenshot of the current page with its interactive elements marked:

- red outline and red tag: something you can click (link, button). The tag shows the element's identifier, usually its text.
- yellow outline: a text field, identifier like i-0.
- blue outline: a dropdown, identifier like s-0. Its option values are listed under the screenshot because the closed dropdown does not show them.
- green outline: a scrollable area, identifier like sa-0.

To act, reply with exactly one JSON object and nothing else:

{"action": "url", "value": "https://example.com"}
{"action": "click", "id": "Sign in"}
{"action": "type", "id": "i-0", "value": "text to enter"}
{"action": "select", "id": "s-0", "value": "option value"}
{"action": "scroll", "id": "sa-0", "value": "400"}

Rules:
- Use only identifiers visible in the latest screenshot or listed under it. Identifiers change after every step.
- One action per reply. Wait for the next screenshot before deciding again.
- Typing replaces whatever the field contained. Include "\n" at the end to press Enter.
- Scroll values are pixels; negative values scroll up.
- If you do not know where to start, navigate to a search engine.
- When the task is done, or you need something from the user, answer in plain text without any JSON object.`

// Observation renders what the model should know about a snapshot besides
// the image itself.
func Observation(snap *annotator.Snapshot, header string) string {
	var b strings.Builder
	if header != "" {
		b.WriteString(header)
		b.WriteString("\n\n")
	}
	if snap.URL != "" {
		fmt.Fprintf(&b, "Current page: %s", snap.URL)
		if snap.Title != "" {
			fmt.Fprintf(&b, " (%s)", snap.Title)
		}
		b.WriteString("\n")
	}

	if len(snap.SelectOptions) > 0 {
		b.WriteString("\nDropdown options:\n")
		for _, s := range snap.SelectOptions {
			fmt.Fprintf(&b, "- %s: %s\n", s.ID, strings.Join(s.Options, ", "))
		}
	}

	var clickable []string
	for _, el := range snap.Elements {
		if el.Category == annotator.Clickable {
			clickable = append(clickable, fmt.Sprintf("%q", el.ID))
		}
	}
	if len(clickable) > 0 {
		fmt.Fprintf(&b, "\nClickable: %s\n", strings.Join(clickable, ", "))
	}
	fmt.Fprintf(&b, "Text fields: %d, dropdowns: %d, scrollable areas: %d\n",
		snap.Count(annotator.TextInput), snap.Count(annotator.Select), snap.Count(annotator.ScrollableArea))
	return strings.TrimSpace(b.String())
}

// MalformedReply asks the model to resend a broken action.
func MalformedReply(reason string) string {
	return fmt.Sprintf("Your last reply contained an action I could not read (%s). Reply again with exactly one valid JSON action object.", reason)
}

// FailedAction reports an action that could not be carried out. Once the
// model has used up its retries it is asked to explain instead.
func FailedAction(kind string, err error, giveUp bool) string {
	msg := fmt.Sprintf("Error: I was unable to %s (%v).", attempt(kind), err)
	if giveUp {
		return msg + " Do not try again. Explain to the user what you were trying to do and what went wrong, without any JSON."
	}
	return msg + " Try a different element or a different approach."
}

func attempt(kind string) string {
	switch kind {
	case "url":
		return "open that page"
	case "type":
		return "type into that element"
	case "select":
		return "select on that element"
	case "click", "scroll":
		return kind + " that element"
	default:
		return "do that"
	}
}
