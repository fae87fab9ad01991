// Package browsertest provides a headless browser and a local site for tests
// that need a real page.
package browsertest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/v0xg/pagepilot/internal/browser"
)

// Viewport used by every test page.
var Viewport = browser.Viewport{Width: 1280, Height: 720, DeviceScaleFactor: 1}

// Launch starts a headless browser, skipping the test when none is installed
// or when running with -short.
func Launch(t *testing.T) (*rod.Browser, *rod.Page) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test skipped in -short mode")
	}
	if _, found := launcher.LookPath(); !found {
		t.Skip("no Chrome/Chromium binary found")
	}

	b, page, err := browser.Launch(context.Background(), browser.Options{
		Headless: true,
		Viewport: Viewport,
	})
	if err != nil {
		t.Skipf("browser unavailable: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b, page
}

// Site serves each path -> HTML pair from a local HTTP server.
func Site(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, html := range pages {
		body := html
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != path && path != "/" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// Open navigates page to url and waits for the load event.
func Open(t *testing.T, page *rod.Page, url string) {
	t.Helper()
	if err := page.Navigate(url); err != nil {
		t.Fatalf("navigate %s: %v", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		t.Fatalf("wait load %s: %v", url, err)
	}
}
