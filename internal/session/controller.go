// Package session drives the browser tab a decision loop is looking at.
//
// A Controller owns the current page, resolves identifiers from the last
// annotation pass back to live elements, performs one action at a time and
// re-annotates the page so every action returns a fresh snapshot. When a
// click opens a new tab the controller follows it.
package session

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/v0xg/pagepilot/internal/action"
	"github.com/v0xg/pagepilot/internal/annotator"
	"github.com/v0xg/pagepilot/internal/browser"
	"github.com/v0xg/pagepilot/internal/config"
	"github.com/v0xg/pagepilot/internal/logger"
)

// Options holds the controller's timing and geometry.
type Options struct {
	Timeout    time.Duration // bounds every wait: network idle, load, new tab
	Settle     time.Duration // fixed pause after network idle for client rendering
	IdleWindow time.Duration // quiet period that counts as network idle
	Viewport   browser.Viewport
	FullPage   bool // snapshots are full-page captures
}

// Entry is one snapshot in the action log.
type Entry struct {
	Action   string
	Time     time.Time
	Snapshot *annotator.Snapshot
	// Pointer is where a click landed, in screenshot pixels of the snapshot
	// the click was chosen from.
	Pointer *image.Point
}

// Controller performs actions against the current tab. Methods are safe to
// call from several goroutines but run one at a time.
type Controller struct {
	browser   *rod.Browser
	page      *rod.Page
	annotator *annotator.Annotator
	opts      Options
	log       *logger.Logger

	mu      sync.Mutex
	state   TabState
	entries []Entry

	waitLoad      func(ctx context.Context, p *rod.Page) error
	applyViewport func(p *rod.Page) error
}

// New wraps an already open browser and page.
func New(b *rod.Browser, page *rod.Page, ann *annotator.Annotator, opts Options, log *logger.Logger) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}
	c := &Controller{
		browser:   b,
		page:      page,
		annotator: ann,
		opts:      opts,
		log:       log,
		state:     SingleTab,
	}
	c.waitLoad = func(ctx context.Context, p *rod.Page) error {
		return p.Context(ctx).WaitLoad()
	}
	c.applyViewport = func(p *rod.Page) error {
		return browser.ApplyViewport(p, c.opts.Viewport)
	}
	return c
}

// Open launches a browser from cfg and returns a controller on its first page.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Controller, error) {
	if log == nil {
		log = logger.Discard()
	}
	vp := browser.Viewport{
		Width:             cfg.Browser.Viewport.Width,
		Height:            cfg.Browser.Viewport.Height,
		DeviceScaleFactor: cfg.Browser.Viewport.DeviceScaleFactor,
	}

	b, page, err := browser.Launch(ctx, browser.Options{
		Headless:    cfg.Browser.Headless,
		Bin:         cfg.Browser.Bin,
		UserDataDir: cfg.Browser.UserDataDir,
		Stealth:     cfg.Browser.Stealth,
		Viewport:    vp,
	})
	if err != nil {
		return nil, err
	}

	ann := annotator.New(annotator.Options{
		Format:   cfg.Screenshot.Format,
		Quality:  cfg.Screenshot.Quality,
		FullPage: cfg.Screenshot.FullPage,
	}, log.WithPrefix("annotator"))

	return New(b, page, ann, Options{
		Timeout:    cfg.Session.Timeout,
		Settle:     cfg.Session.Settle,
		IdleWindow: cfg.Session.IdleWindow,
		Viewport:   vp,
		FullPage:   cfg.Screenshot.FullPage,
	}, log), nil
}

// Page returns the tab currently considered active.
func (c *Controller) Page() *rod.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// TabState reports the outcome of the last tab-follow.
func (c *Controller) TabState() TabState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Logs returns every snapshot captured so far, oldest first.
func (c *Controller) Logs() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.entries...)
}

// Close shuts the browser down.
func (c *Controller) Close() error {
	if c.browser == nil {
		return nil
	}
	return c.browser.Close()
}

// Do dispatches a to the matching action method.
func (c *Controller) Do(ctx context.Context, a action.Action) (*annotator.Snapshot, error) {
	switch a := a.(type) {
	case action.Navigate:
		return c.Navigate(ctx, a.URL)
	case action.Click:
		return c.Click(ctx, a.ID)
	case action.Type:
		return c.Type(ctx, a.ID, a.Text)
	case action.Select:
		return c.Select(ctx, a.ID, a.Value)
	case action.Scroll:
		return c.Scroll(ctx, a.ID, a.Amount)
	default:
		return nil, fmt.Errorf("unsupported action %T", a)
	}
}

// Snapshot annotates the current tab without acting on it.
func (c *Controller) Snapshot(ctx context.Context) (*annotator.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.observe(ctx, "observe", nil)
}

// Navigate loads url in the current tab.
func (c *Controller) Navigate(ctx context.Context, url string) (*annotator.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := action.Navigate{URL: url}
	c.log.Info("%s", a.Describe())
	if err := c.navigate(ctx, url); err != nil {
		return nil, err
	}
	return c.observe(ctx, a.Describe(), nil)
}

func (c *Controller) navigate(ctx context.Context, url string) error {
	idleCtx, cancelIdle := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancelIdle()

	page := c.page.Context(idleCtx)
	waitIdle := page.WaitRequestIdle(c.opts.IdleWindow, nil, nil, nil)
	if err := page.Navigate(url); err != nil {
		return &NavigationError{URL: url, Err: err}
	}

	_, timedOut, err := firstOf(ctx, c.opts.Timeout, func() (struct{}, error) {
		waitIdle()
		return struct{}{}, idleCtx.Err()
	})
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	// Busy pages (polling, analytics) often never go idle; the load race below decides failure.
	if timedOut {
		c.log.Warn("network still busy after %s on %s", c.opts.Timeout, url)
	}

	if err := sleep(ctx, c.opts.Settle); err != nil {
		return &NavigationError{URL: url, Err: err}
	}

	loadCtx, cancelLoad := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancelLoad()
	_, timedOut, err = firstOf(ctx, c.opts.Timeout, func() (struct{}, error) {
		return struct{}{}, c.waitLoad(loadCtx, c.page)
	})
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	if timedOut {
		return &NavigationError{URL: url, Err: errLoadTimeout}
	}

	if annotator.IsClientRendered(ctx, c.page) {
		c.log.Debug("client-rendered page, waiting for interactive elements")
		annotator.WaitInteractive(ctx, c.page, c.opts.Timeout)
	}
	return nil
}

// Click clicks the clickable element matching id and follows a tab the click
// opens.
func (c *Controller) Click(ctx context.Context, id string) (*annotator.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := action.Click{ID: id}
	c.log.Info("%s", a.Describe())
	el, err := c.resolve(ctx, annotator.Clickable, id)
	if err != nil {
		return nil, err
	}
	pointer := c.pointer(ctx, el)

	openCtx, cancelOpen := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancelOpen()
	waitOpen := c.armNewTab(openCtx)

	clickCtx, cancelClick := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancelClick()
	if err := el.Context(clickCtx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("failed to click %q: %w", id, err)
	}

	if err := c.followNewTab(ctx, waitOpen); err != nil {
		return nil, err
	}
	return c.observe(ctx, a.Describe(), pointer)
}

// Type replaces the value of the text input matching id by typing text.
func (c *Controller) Type(ctx context.Context, id, text string) (*annotator.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := action.Type{ID: id, Text: text}
	c.log.Info("%s", a.Describe())
	el, err := c.resolve(ctx, annotator.TextInput, id)
	if err != nil {
		return nil, err
	}

	el = el.Context(ctx)
	if err := el.Focus(); err != nil {
		return nil, fmt.Errorf("failed to focus %s: %w", id, err)
	}
	if err := el.SelectAllText(); err != nil {
		return nil, fmt.Errorf("failed to select text in %s: %w", id, err)
	}
	if err := c.typeText(ctx, text); err != nil {
		return nil, fmt.Errorf("failed to type into %s: %w", id, err)
	}
	return c.observe(ctx, a.Describe(), nil)
}

// typeText sends keystrokes for every character the keyboard layout knows and
// inserts the rest as text.
func (c *Controller) typeText(ctx context.Context, text string) error {
	var (
		keys  []input.Key
		other strings.Builder
	)
	flushKeys := func() error {
		if len(keys) == 0 {
			return nil
		}
		err := typeKeys(ctx, c.page.Context(ctx).Keyboard, keys)
		keys = keys[:0]
		return err
	}
	flushText := func() error {
		if other.Len() == 0 {
			return nil
		}
		err := c.page.Context(ctx).InsertText(other.String())
		other.Reset()
		return err
	}

	for _, r := range text {
		if k, ok := keyFor(r); ok {
			if err := flushText(); err != nil {
				return err
			}
			keys = append(keys, k)
			continue
		}
		if err := flushKeys(); err != nil {
			return err
		}
		other.WriteRune(r)
	}
	if err := flushKeys(); err != nil {
		return err
	}
	return flushText()
}

type keyTyper interface {
	Type(keys ...input.Key) error
}

// typeKeys sends keys one at a time and stops once ctx is done. A page's
// Keyboard stays bound to the page it was created with, so ctx is checked here.
func typeKeys(ctx context.Context, kb keyTyper, keys []input.Key) error {
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := kb.Type(k); err != nil {
			return err
		}
	}
	return nil
}

func keyFor(r rune) (input.Key, bool) {
	switch {
	case r == '\n':
		return input.Enter, true
	case r == '\t':
		return input.Tab, true
	case r >= ' ' && r <= '~':
		return input.Key(r), true
	default:
		return 0, false
	}
}

// Select chooses value on the select element matching id.
func (c *Controller) Select(ctx context.Context, id, value string) (*annotator.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := action.Select{ID: id, Value: value}
	c.log.Info("%s", a.Describe())
	el, err := c.resolve(ctx, annotator.Select, id)
	if err != nil {
		return nil, err
	}

	selector := `[value="` + cssEscape(value) + `"]`
	if err := el.Context(ctx).Select([]string{selector}, true, rod.SelectorTypeCSSSector); err != nil {
		return nil, fmt.Errorf("failed to select %q on %s: %w", value, id, err)
	}
	return c.observe(ctx, a.Describe(), nil)
}

func cssEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// Scroll scrolls the scrollable area matching id vertically by amount pixels.
func (c *Controller) Scroll(ctx context.Context, id, amount string) (*annotator.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := action.Scroll{ID: id, Amount: amount}
	c.log.Info("%s", a.Describe())
	el, err := c.resolve(ctx, annotator.ScrollableArea, id)
	if err != nil {
		return nil, err
	}
	delta, err := parsePixels(amount)
	if err != nil {
		return nil, err
	}

	if _, err := el.Context(ctx).Eval(`(dy) => this.scrollBy(0, dy)`, delta); err != nil {
		return nil, fmt.Errorf("failed to scroll %s: %w", id, err)
	}
	return c.observe(ctx, a.Describe(), nil)
}

func (c *Controller) observe(ctx context.Context, what string, pointer *image.Point) (*annotator.Snapshot, error) {
	snap, err := c.annotator.Annotate(ctx, c.page)
	if err != nil {
		return nil, fmt.Errorf("failed to annotate page: %w", err)
	}
	c.entries = append(c.entries, Entry{
		Action:   what,
		Time:     time.Now(),
		Snapshot: snap,
		Pointer:  pointer,
	})
	return snap, nil
}

// pointer returns the centre of el in screenshot pixels, or nil when the
// element has no box.
func (c *Controller) pointer(ctx context.Context, el *rod.Element) *image.Point {
	shape, err := el.Context(ctx).Shape()
	if err != nil || len(shape.Quads) == 0 {
		return nil
	}

	quad := shape.Quads[0]
	x := (quad[0] + quad[2] + quad[4] + quad[6]) / 4
	y := (quad[1] + quad[3] + quad[5] + quad[7]) / 4

	if c.opts.FullPage {
		res, err := c.page.Context(ctx).Eval(`() => [window.scrollX, window.scrollY]`)
		if err == nil {
			if offset := res.Value.Arr(); len(offset) == 2 {
				x += offset[0].Num()
				y += offset[1].Num()
			}
		}
	}

	scale := c.opts.Viewport.DeviceScaleFactor
	if scale == 0 {
		scale = 1
	}
	return &image.Point{X: int(x * scale), Y: int(y * scale)}
}
