package annotator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Docs", "Docs"},
		{"  Sign\n\tin  ", "Sign in"},
		{"Next →", "Next"},
		{"£25.00 / month!", "2500 month"},
		{"Café über", "Café über"},
		{"★★★", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanLabel(tt.in), "cleanLabel(%q)", tt.in)
	}
}

func TestClickableLabelPrefersAria(t *testing.T) {
	assert.Equal(t, "Close dialog", clickableLabel("  Close   dialog ", "×"))
	assert.Equal(t, "Read more", clickableLabel("   ", "Read more…"))
}

func TestAssignOrdinalsPerCategory(t *testing.T) {
	items := []scanned{
		{Key: "0", Category: Clickable, Text: "Docs"},
		{Key: "1", Category: Clickable, Text: "✕"},
		{Key: "2", Category: TextInput},
		{Key: "3", Category: TextInput},
		{Key: "4", Category: Select, Options: []string{"A", "B", "C"}},
		{Key: "5", Category: ScrollableArea},
	}

	got := assign(items)
	require.Len(t, got, 6)

	ids := make([]string, 0, len(got))
	for _, el := range got {
		ids = append(ids, el.ID)
	}
	assert.Equal(t, []string{"Docs", "c-1", "i-0", "i-1", "s-0", "sa-0"}, ids)
	assert.Equal(t, []string{"A", "B", "C"}, got[4].Options)
	assert.Equal(t, "i-0", got[2].Label)
	assert.Equal(t, "2", got[2].key)
}

func TestAssignDeduplicatesClickableLabels(t *testing.T) {
	got := assign([]scanned{
		{Key: "0", Category: Clickable, Text: "Edit"},
		{Key: "1", Category: Clickable, Text: "Edit"},
		{Key: "2", Category: Clickable, Aria: "Edit"},
		{Key: "3", Category: TextInput},
	})
	require.Len(t, got, 4)
	assert.Equal(t, "Edit", got[0].ID)
	assert.Equal(t, "Edit 2", got[1].ID)
	assert.Equal(t, "Edit 3", got[2].ID)
	assert.Equal(t, "Edit", got[1].Label)
}

func TestAssignIsDeterministic(t *testing.T) {
	items := []scanned{
		{Key: "0", Category: Clickable, Text: "Home"},
		{Key: "1", Category: ScrollableArea},
		{Key: "2", Category: ScrollableArea},
	}
	assert.Equal(t, assign(items), assign(items))
}

func TestAssignCopiesOptions(t *testing.T) {
	opts := []string{"x", "y"}
	got := assign([]scanned{{Key: "0", Category: Select, Options: opts}})
	opts[0] = "changed"
	assert.Equal(t, []string{"x", "y"}, got[0].Options)
}

func TestUniqueIn(t *testing.T) {
	used := map[string]bool{"Go": true, "Go 2": true}
	assert.Equal(t, "Go 3", uniqueIn(used, "Go"))
	assert.Equal(t, "Stop", uniqueIn(used, "Stop"))
}

func TestKeepMarked(t *testing.T) {
	elements := []Element{{ID: "a", key: "0"}, {ID: "b", key: "1"}, {ID: "c", key: "2"}}
	kept := keepMarked(elements, []string{"2", "0"})
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].ID)
	assert.Equal(t, "c", kept[1].ID)
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "i", TextInput.Prefix())
	assert.Equal(t, "sa", ScrollableArea.Prefix())
	assert.Equal(t, "#FF0000", Clickable.Color())
	assert.True(t, Select.Valid())
	assert.False(t, Category("radio").Valid())
	assert.Panics(t, func() { _ = Category("radio").Attribute() })

	attrs := identifierAttributes()
	assert.Len(t, attrs, len(Categories))
	seen := map[string]bool{}
	for _, a := range attrs {
		assert.False(t, seen[a], "duplicate attribute %s", a)
		seen[a] = true
	}
}

func TestSnapshotHelpers(t *testing.T) {
	s := &Snapshot{
		Screenshot: []byte{1, 2, 3},
		Format:     "jpeg",
		Elements: []Element{
			{Category: Clickable, ID: "Docs"},
			{Category: Select, ID: "s-0"},
			{Category: Clickable, ID: "Blog"},
		},
	}
	assert.Equal(t, "image/jpeg", s.MediaType())
	assert.Equal(t, "data:image/jpeg;base64,AQID", s.DataURI())
	assert.Equal(t, 2, s.Count(Clickable))
	assert.Equal(t, 0, s.Count(TextInput))
}

func TestNewNormalisesOptions(t *testing.T) {
	a := New(Options{Format: "JPG"}, nil)
	assert.Equal(t, "jpeg", a.opts.Format)
	assert.Equal(t, float64(defaultMinPx), a.opts.MinSize)

	a = New(Options{Format: "webp", MinSize: 10}, nil)
	assert.Equal(t, "png", a.opts.Format)
	assert.Equal(t, float64(10), a.opts.MinSize)
}

func TestOverlayText(t *testing.T) {
	assert.Equal(t, "Docs", overlayText("Docs"))
	assert.Equal(t, "i-12", overlayText("i-12"))
	assert.Equal(t, "exactly twenty-four char", overlayText("exactly twenty-four char"))

	long := "Read the full story about how we rebuilt the search index"
	got := overlayText(long)
	assert.Equal(t, "Read the full story abou…", got)
	assert.Len(t, []rune(got), maxOverlayText+1)

	assert.Equal(t, "Überblick über die neuen…", overlayText("Überblick über die neuen Funktionen"))
	assert.Equal(t, "twenty three characters…", overlayText("twenty three characters and more"))
}
