// Package browser launches the Chromium process a session drives.
package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Viewport is the emulated window size of every page the session uses.
type Viewport struct {
	Width             int
	Height            int
	DeviceScaleFactor float64
}

// Options configures the launched browser.
type Options struct {
	Headless    bool
	Bin         string // Chrome/Chromium binary; looked up when empty
	UserDataDir string // Chrome/Chromium profile directory for authenticated sessions
	Stealth     bool
	Viewport    Viewport
}

// Launch starts a browser and opens its first page with the configured
// viewport. The caller owns both and must close the browser.
func Launch(ctx context.Context, opts Options) (*rod.Browser, *rod.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	bin := opts.Bin
	if bin == "" {
		path, found := launcher.LookPath()
		if found {
			bin = path
		}
	}

	l := launcher.New().Headless(opts.Headless)
	if bin != "" {
		l = l.Bin(bin)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(browser); err != nil {
		_ = browser.Close()
		return nil, nil, fmt.Errorf("failed to enable target discovery: %w", err)
	}

	page, err := NewPage(browser, opts)
	if err != nil {
		_ = browser.Close()
		return nil, nil, err
	}
	return browser, page, nil
}

// NewPage opens a blank page with the configured viewport.
func NewPage(browser *rod.Browser, opts Options) (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if opts.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := ApplyViewport(page, opts.Viewport); err != nil {
		return nil, err
	}
	return page, nil
}

// ApplyViewport sets the device metrics of page. A zero viewport is a no-op.
func ApplyViewport(page *rod.Page, vp Viewport) error {
	if vp.Width == 0 || vp.Height == 0 {
		return nil
	}
	scale := vp.DeviceScaleFactor
	if scale == 0 {
		scale = 1
	}
	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: scale,
		Mobile:            false,
	})
	if err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}
	return nil
}
