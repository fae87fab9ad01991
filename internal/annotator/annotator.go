// Package annotator labels the interactive elements of a live page and
// captures the screenshot a decision loop observes.
//
// A pass clears everything the previous pass wrote, scans the DOM for
// visible clickables, text inputs, selects and scrollable areas, assigns each
// an identifier unique within its category, outlines it and drops a small
// label overlay at its top-left corner. Identifiers are only valid for the
// snapshot they were produced with.
package annotator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/v0xg/pagepilot/internal/logger"
)

// Element is an annotated interactive element.
type Element struct {
	Category Category `json:"category"`
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Options  []string `json:"options,omitempty"`

	key string
}

// SelectOptions lists the option values of one select element, in source order.
type SelectOptions struct {
	ID      string   `json:"id"`
	Options []string `json:"options"`
}

// Snapshot is what one annotation pass produces.
type Snapshot struct {
	Screenshot    []byte          `json:"screenshot"`
	Format        string          `json:"format"`
	SelectOptions []SelectOptions `json:"selectOptions,omitempty"`
	Elements      []Element       `json:"elements,omitempty"`
	URL           string          `json:"url,omitempty"`
	Title         string          `json:"title,omitempty"`
}

// MediaType is the MIME type of the screenshot.
func (s *Snapshot) MediaType() string {
	if s.Format == "jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}

// DataURI encodes the screenshot as a data: URI.
func (s *Snapshot) DataURI() string {
	return "data:" + s.MediaType() + ";base64," + base64.StdEncoding.EncodeToString(s.Screenshot)
}

// Count returns the number of annotated elements of category c.
func (s *Snapshot) Count(c Category) int {
	n := 0
	for _, el := range s.Elements {
		if el.Category == c {
			n++
		}
	}
	return n
}

// Options configures screenshots and the visibility threshold.
type Options struct {
	Format   string // png or jpeg
	Quality  int    // jpeg only
	FullPage bool
	MinSize  float64 // elements must be wider and taller than this many pixels
}

// Annotator runs annotation passes. It holds no page state; the page passed
// to each call is the one annotated.
type Annotator struct {
	opts Options
	log  *logger.Logger
}

// New creates an annotator.
func New(opts Options, log *logger.Logger) *Annotator {
	switch strings.ToLower(opts.Format) {
	case "jpeg", "jpg":
		opts.Format = "jpeg"
	default:
		opts.Format = "png"
	}
	if opts.MinSize <= 0 {
		opts.MinSize = defaultMinPx
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Annotator{opts: opts, log: log}
}

func (a *Annotator) scriptOptions() scriptOptions {
	return scriptOptions{
		OverlayAttr: OverlayAttr,
		OutlineAttr: outlineAttr,
		KeyAttr:     keyAttr,
		Attrs:       identifierAttributes(),
		Categories:  Categories,
		TextTypes:   textInputTypes,
		MinSize:     a.opts.MinSize,
	}
}

// Annotate relabels page and captures a screenshot with the markers visible.
func (a *Annotator) Annotate(ctx context.Context, page *rod.Page) (*Snapshot, error) {
	elements, err := a.Mark(ctx, page)
	if err != nil {
		return nil, err
	}

	shot, err := a.Screenshot(ctx, page)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Screenshot: shot,
		Format:     a.opts.Format,
		Elements:   elements,
	}
	for _, el := range elements {
		if el.Category == Select {
			snap.SelectOptions = append(snap.SelectOptions, SelectOptions{ID: el.ID, Options: el.Options})
		}
	}
	if info, err := page.Context(ctx).Info(); err == nil {
		snap.URL = info.URL
		snap.Title = info.Title
	}
	return snap, nil
}

// Mark runs the clear, scan and label steps of a pass without a screenshot.
func (a *Annotator) Mark(ctx context.Context, page *rod.Page) ([]Element, error) {
	p := page.Context(ctx)
	opts := a.scriptOptions()

	if err := a.clear(p, opts); err != nil {
		return nil, err
	}

	res, err := p.Eval(scanScript, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to scan page: %w", err)
	}
	var items []scanned
	if err := decode(res.Value, &items); err != nil {
		return nil, fmt.Errorf("failed to decode scan result: %w", err)
	}

	elements := assign(items)
	marks := make([]mark, 0, len(elements))
	for _, el := range elements {
		marks = append(marks, mark{
			Key:      el.key,
			Category: el.Category,
			Attr:     el.Category.Attribute(),
			ID:       el.ID,
			Text:     overlayText(el.ID),
			Color:    el.Category.Color(),
		})
	}

	res, err = p.Eval(markScript, opts, marks)
	if err != nil {
		return nil, fmt.Errorf("failed to mark elements: %w", err)
	}
	var done []string
	if err := decode(res.Value, &done); err != nil {
		return nil, fmt.Errorf("failed to decode mark result: %w", err)
	}

	kept := keepMarked(elements, done)
	if dropped := len(elements) - len(kept); dropped > 0 {
		a.log.Debug("%d element(s) vanished between scan and mark", dropped)
	}
	if a.log.Level() <= logger.DEBUG {
		a.log.Debug("annotated %d element(s) on %s", len(kept), pageURL(p))
	}
	return kept, nil
}

// Clear removes every marker a previous pass left on page.
func (a *Annotator) Clear(ctx context.Context, page *rod.Page) error {
	return a.clear(page.Context(ctx), a.scriptOptions())
}

func (a *Annotator) clear(p *rod.Page, opts scriptOptions) error {
	if _, err := p.Eval(clearScript, opts); err != nil {
		return fmt.Errorf("failed to clear previous annotations: %w", err)
	}
	return nil
}

// Screenshot captures page in the configured format.
func (a *Annotator) Screenshot(ctx context.Context, page *rod.Page) ([]byte, error) {
	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	if a.opts.Format == "jpeg" {
		quality := a.opts.Quality
		if quality == 0 {
			quality = 90
		}
		req = &proto.PageCaptureScreenshot{
			Format:  proto.PageCaptureScreenshotFormatJpeg,
			Quality: &quality,
		}
	}

	data, err := page.Context(ctx).Screenshot(a.opts.FullPage, req)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return data, nil
}

func keepMarked(elements []Element, done []string) []Element {
	ok := make(map[string]bool, len(done))
	for _, k := range done {
		ok[k] = true
	}
	kept := make([]Element, 0, len(elements))
	for _, el := range elements {
		if ok[el.key] {
			kept = append(kept, el)
		}
	}
	return kept
}

// decode converts an evaluation result into out.
func decode(v gson.JSON, out interface{}) error {
	raw, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func pageURL(p *rod.Page) string {
	info, err := p.Info()
	if err != nil {
		return "page"
	}
	return info.URL
}
