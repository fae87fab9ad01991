package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func fixedClock() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(WARN, "agent", &buf)
	l.now = fixedClock

	l.Debug("hidden %d", 1)
	l.Info("hidden too")
	l.Warn("careful %s", "now")
	l.Error("broken")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[03:04:05] [agent] WARN  careful now")
	assert.Contains(t, out, "[agent] ERROR broken")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestLogger_WithPrefixSharesWriter(t *testing.T) {
	var buf bytes.Buffer
	root := NewWithWriter(DEBUG, "pagepilot", &buf)
	root.now = fixedClock

	child := root.WithPrefix("session")
	child.Info("click %q", "Docs")

	assert.Contains(t, buf.String(), `[pagepilot.session] INFO  click "Docs"`)
	assert.Equal(t, DEBUG, child.Level())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DEBUG,
		" WARN ":  WARN,
		"warning": WARN,
		"error":   ERROR,
		"":        INFO,
		"bogus":   INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing happens")
	assert.Greater(t, int(l.Level()), int(ERROR))
}
