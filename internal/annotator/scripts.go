package annotator

// scriptOptions is passed to every in-page script.
type scriptOptions struct {
	OverlayAttr string     `json:"overlayAttr"`
	OutlineAttr string     `json:"outlineAttr"`
	KeyAttr     string     `json:"keyAttr"`
	Attrs       []string   `json:"attrs"`
	Categories  []Category `json:"categories"`
	TextTypes   []string   `json:"textTypes"`
	MinSize     float64    `json:"minSize"`
}

// mark is one element the Go side wants labelled.
type mark struct {
	Key      string   `json:"key"`
	Category Category `json:"category"`
	Attr     string   `json:"attr"`
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Color    string   `json:"color"`
}

// clearScript removes every overlay node and identifier attribute left by a
// previous pass and restores the outlines it replaced.
const clearScript = `(opts) => {
	document.querySelectorAll('[' + opts.overlayAttr + ']').forEach((n) => n.remove());
	document.querySelectorAll('[' + opts.outlineAttr + ']').forEach((el) => {
		el.style.outline = el.getAttribute(opts.outlineAttr);
		el.removeAttribute(opts.outlineAttr);
	});
	for (const attr of opts.attrs.concat([opts.keyAttr])) {
		document.querySelectorAll('[' + attr + ']').forEach((el) => el.removeAttribute(attr));
	}
}`

// scanScript walks the candidates of each category in document order, keeps
// the visible ones, tags them with a provisional key and reports what the Go
// side needs to build identifiers. A failure on one node skips that node only.
const scanScript = `(opts) => {
	const styleVisible = (el) => {
		const s = window.getComputedStyle(el);
		return s.width !== '0px' &&
			s.height !== '0px' &&
			s.opacity !== '0' &&
			s.display !== 'none' &&
			s.visibility !== 'hidden';
	};

	const visible = (el) => {
		const r = el.getBoundingClientRect();
		if (!(r.width > opts.minSize && r.height > opts.minSize)) return false;
		for (let n = el; n; n = n.parentElement) {
			if (!styleVisible(n)) return false;
		}
		const vh = window.innerHeight || document.documentElement.clientHeight;
		const vw = window.innerWidth || document.documentElement.clientWidth;
		return r.top >= 0 && r.left >= 0 && r.bottom <= vh && r.right <= vw;
	};

	const scrolls = (overflow) => overflow === 'auto' || overflow === 'scroll';
	const scrollable = (el) => {
		const s = window.getComputedStyle(el);
		return (scrolls(s.overflowY) && el.scrollHeight - el.clientHeight > 1) ||
			(scrolls(s.overflowX) && el.scrollWidth - el.clientWidth > 1);
	};

	const candidates = {
		'clickable': () => Array.from(document.querySelectorAll('a, button, [role=button], [role=treeitem]')),
		'text-input': () => Array.from(document.querySelectorAll('textarea, input')).filter((el) =>
			el.tagName === 'TEXTAREA' || opts.textTypes.includes((el.type || 'text').toLowerCase())),
		'select': () => Array.from(document.querySelectorAll('select')),
		'scrollable-area': () => Array.from(document.querySelectorAll('*')).filter((el) => {
			try {
				return !el.hasAttribute(opts.overlayAttr) && scrollable(el);
			} catch (e) {
				return false;
			}
		}),
	};

	const found = [];
	let next = 0;
	for (const category of opts.categories) {
		let list = [];
		try {
			list = candidates[category]();
		} catch (e) {
			continue;
		}
		for (const el of list) {
			try {
				if (!visible(el)) continue;
				const item = { key: String(next++), category: category, aria: '', text: '', options: null };
				if (category === 'clickable') {
					item.aria = el.getAttribute('aria-label') || '';
					item.text = el.textContent || '';
				}
				if (category === 'select') {
					item.options = Array.from(el.options).map((o) => o.value);
				}
				const prev = el.getAttribute(opts.keyAttr);
				el.setAttribute(opts.keyAttr, prev ? prev + ' ' + item.key : item.key);
				found.push(item);
			} catch (e) {
				// node went away or threw mid-scan
			}
		}
	}
	return found;
}`

// markScript writes identifiers, outlines and one label overlay per element,
// then drops the provisional keys. It returns the keys actually marked.
const markScript = `(opts, marks) => {
	const root = document.documentElement;
	const done = [];
	for (const m of marks) {
		try {
			const el = document.querySelector('[' + opts.keyAttr + '~="' + m.key + '"]');
			if (!el) continue;

			el.setAttribute(m.attr, m.id);
			if (!el.hasAttribute(opts.outlineAttr)) {
				el.setAttribute(opts.outlineAttr, el.style.outline || '');
			}
			el.style.outline = '2px solid ' + m.color;

			const r = el.getBoundingClientRect();
			const tag = document.createElement('div');
			tag.setAttribute(opts.overlayAttr, m.category);
			tag.textContent = m.text;
			Object.assign(tag.style, {
				position: 'absolute',
				top: (r.top + window.scrollY) + 'px',
				left: (r.left + window.scrollX) + 'px',
				background: m.color,
				color: '#FFFFFF',
				font: 'bold 11px/13px monospace',
				padding: '0 2px',
				margin: '0',
				border: 'none',
				zIndex: '2147483647',
				pointerEvents: 'none',
				whiteSpace: 'nowrap',
			});
			root.appendChild(tag);
			done.push(m.key);
		} catch (e) {
			// skip this element only
		}
	}
	document.querySelectorAll('[' + opts.keyAttr + ']').forEach((el) => el.removeAttribute(opts.keyAttr));
	return done;
}`
