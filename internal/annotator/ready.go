package annotator

import (
	"context"
	"time"

	"github.com/go-rod/rod"
)

const spaScript = `() => {
	// React
	if (window.__REACT_DEVTOOLS_GLOBAL_HOOK__ || document.querySelector('[data-reactroot]') || document.querySelector('#__next')) return true;
	// Vue
	if (window.__VUE__ || document.querySelector('[data-v-app]')) return true;
	// Angular
	if (window.ng || document.querySelector('[ng-version]') || document.querySelector('app-root')) return true;
	// Svelte
	if (document.querySelector('[class*="svelte-"]')) return true;
	return false;
}`

const interactiveCountScript = `() => {
	let visible = 0;
	document.querySelectorAll('a, button, [role=button], input, textarea, select').forEach((el) => {
		if (el.offsetParent) visible++;
	});
	return visible;
}`

// IsClientRendered reports whether page carries markers of a client-side
// rendering framework.
func IsClientRendered(ctx context.Context, page *rod.Page) bool {
	res, err := page.Context(ctx).Eval(spaScript)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// WaitInteractive polls until at least one interactive element is rendered or
// timeout elapses. It never fails; a page without controls is still a page.
func WaitInteractive(ctx context.Context, page *rod.Page, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	const checkInterval = 200 * time.Millisecond

	for time.Now().Before(deadline) {
		res, err := page.Context(ctx).Eval(interactiveCountScript)
		if err == nil && res.Value.Int() > 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(checkInterval):
		}
	}
}
