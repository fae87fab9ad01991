package session

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// TabState tracks whether the last click moved the session to a new tab.
type TabState int

const (
	// SingleTab: the current page is the one the session has been driving.
	SingleTab TabState = iota
	// AwaitingNewTab: a click was dispatched and the session is watching for
	// a target opened by the current page.
	AwaitingNewTab
	// Switched: the last click opened a tab and the session adopted it.
	Switched
)

func (s TabState) String() string {
	switch s {
	case SingleTab:
		return "single-tab"
	case AwaitingNewTab:
		return "awaiting-new-tab"
	case Switched:
		return "switched"
	default:
		return fmt.Sprintf("TabState(%d)", int(s))
	}
}

// armNewTab starts watching for a page target opened by the current page.
// The returned wait blocks until one appears or ctx ends. The page is attached
// through the session's browser so it outlives ctx.
func (c *Controller) armNewTab(ctx context.Context) func() (*rod.Page, error) {
	opener := c.page.TargetID
	var opened proto.TargetTargetID
	wait := c.browser.Context(ctx).EachEvent(func(e *proto.TargetTargetCreated) bool {
		if e.TargetInfo.OpenerID != opener || e.TargetInfo.Type != proto.TargetTargetInfoTypePage {
			return false
		}
		opened = e.TargetInfo.TargetID
		return true
	})

	return func() (*rod.Page, error) {
		wait()
		if opened == "" {
			return nil, ctx.Err()
		}
		return c.browser.PageFromTarget(opened)
	}
}

// followNewTab waits for the tab a click may have opened and adopts it.
// wait must be armed before the click and bounded by the driver timeout.
// No tab within the window is the common case and is not an error.
func (c *Controller) followNewTab(ctx context.Context, wait func() (*rod.Page, error)) error {
	c.state = AwaitingNewTab

	opened, timedOut, err := firstOf(ctx, c.opts.Timeout, wait)
	switch {
	case timedOut:
		c.state = SingleTab
		c.log.Debug("no new tab within %s", c.opts.Timeout)
		return nil
	case err != nil:
		c.state = SingleTab
		return fmt.Errorf("failed waiting for new tab: %w", err)
	case opened == nil || opened.TargetID == c.page.TargetID:
		c.state = SingleTab
		return nil
	}

	loadCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	_, timedOut, err = firstOf(ctx, c.opts.Timeout, func() (struct{}, error) {
		return struct{}{}, c.waitLoad(loadCtx, opened)
	})
	if err != nil {
		c.state = SingleTab
		return fmt.Errorf("failed waiting for new tab to load: %w", err)
	}
	if timedOut {
		c.log.Warn("new tab still loading after %s, switching anyway", c.opts.Timeout)
	}

	if err := c.applyViewport(opened); err != nil {
		c.log.Warn("new tab keeps its own viewport: %v", err)
	}

	c.page = opened
	c.state = Switched
	c.log.Info("switched to new tab %s", opened.TargetID)
	return nil
}
