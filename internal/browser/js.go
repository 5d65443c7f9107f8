// File: internal/browser/js.go
package browser

import (
	"encoding/json"
	"fmt"
)

// The query scripts share one convention: the chosen node is pinned by writing
// a unique token into the data-stepright-ref attribute, and the caller
// addresses it afterwards with refSelector(token). Pinning survives re-renders
// that keep the node alive, which is all a handle needs.

const refAttr = "data-stepright-ref"

func refSelector(token string) string {
	return fmt.Sprintf(`[%s=%q]`, refAttr, token)
}

// jsonEncode safely encodes a value (especially strings) for JS injection.
func jsonEncode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}

// jsHelpers is prepended to every query script. It provides match collection
// for CSS and XPath, visibility checks, accessible-name computation, and
// css/xpath generation for the attribute refresh.
const jsHelpers = `
    const REF_ATTR = ` + `'` + refAttr + `'` + `;

    const pin = (node, token) => {
        if (!node) return 0;
        node.setAttribute(REF_ATTR, token);
        return 1;
    };

    const collect = (expr) => {
        // XPath expressions start with '/', './' or '('. Everything else is CSS.
        if (/^\s*(\/|\.\/|\()/.test(expr)) {
            const out = [];
            const it = document.evaluate(expr, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
            for (let i = 0; i < it.snapshotLength; i++) {
                const n = it.snapshotItem(i);
                if (n.nodeType === Node.ELEMENT_NODE) out.push(n);
            }
            return out;
        }
        return Array.from(document.querySelectorAll(expr));
    };

    const visible = (node) => {
        if (!node || !node.getBoundingClientRect) return false;
        const rect = node.getBoundingClientRect();
        const style = window.getComputedStyle(node);
        return rect.width > 0 && rect.height > 0 &&
            style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0';
    };

    const labelFor = (node) => {
        if (node.id) {
            const l = document.querySelector('label[for="' + CSS.escape(node.id) + '"]');
            if (l) return l.textContent.trim();
        }
        const wrap = node.closest('label');
        return wrap ? wrap.textContent.trim() : '';
    };

    const accessibleName = (node) => {
        const aria = node.getAttribute('aria-label');
        if (aria) return aria.trim();
        const labelled = node.getAttribute('aria-labelledby');
        if (labelled) {
            const parts = labelled.split(/\s+/)
                .map(id => { const n = document.getElementById(id); return n ? n.textContent.trim() : ''; })
                .filter(Boolean);
            if (parts.length) return parts.join(' ');
        }
        const byLabel = labelFor(node);
        if (byLabel) return byLabel;
        return (node.textContent || '').trim();
    };

    const implicitRole = (node) => {
        const tag = node.tagName.toLowerCase();
        const type = (node.getAttribute('type') || '').toLowerCase();
        switch (tag) {
            case 'a': return node.hasAttribute('href') ? 'link' : '';
            case 'button': return 'button';
            case 'select': return 'combobox';
            case 'textarea': return 'textbox';
            case 'h1': case 'h2': case 'h3': case 'h4': case 'h5': case 'h6': return 'heading';
            case 'img': return 'img';
            case 'nav': return 'navigation';
            case 'input':
                if (type === 'checkbox') return 'checkbox';
                if (type === 'radio') return 'radio';
                if (type === 'button' || type === 'submit' || type === 'reset') return 'button';
                if (type === 'search') return 'searchbox';
                return 'textbox';
        }
        return '';
    };

    const roleOf = (node) => node.getAttribute('role') || implicitRole(node);

    const cssPath = (node) => {
        const tag = node.tagName.toLowerCase();
        const testAttrs = ['data-test-id', 'data-testid', 'data-test', 'data-qa', 'data-cy'];
        for (const attr of testAttrs) {
            const val = node.getAttribute(attr);
            if (val) return tag + '[' + attr + '="' + val + '"]';
        }
        if (node.id && /^[A-Za-z][\w-]*$/.test(node.id)) return '#' + node.id;
        const name = node.getAttribute('name');
        if (name && ['input', 'select', 'textarea', 'button'].includes(tag)) {
            return tag + '[name="' + name + '"]';
        }
        // Positional fallback, anchored at the nearest ancestor with an id.
        const parts = [];
        let cur = node;
        while (cur && cur.nodeType === Node.ELEMENT_NODE && cur !== document.documentElement) {
            let part = cur.tagName.toLowerCase();
            if (cur.id && /^[A-Za-z][\w-]*$/.test(cur.id)) {
                parts.unshift('#' + cur.id);
                return parts.join(' > ');
            }
            const siblings = cur.parentNode ? Array.from(cur.parentNode.children).filter(c => c.tagName === cur.tagName) : [];
            if (siblings.length > 1) part += ':nth-of-type(' + (siblings.indexOf(cur) + 1) + ')';
            parts.unshift(part);
            cur = cur.parentNode;
        }
        return parts.join(' > ');
    };

    const xpathOf = (node) => {
        if (node.id && /^[A-Za-z][\w-]*$/.test(node.id)) {
            return '//*[@id="' + node.id + '"]';
        }
        const parts = [];
        let cur = node;
        while (cur && cur.nodeType === Node.ELEMENT_NODE) {
            let idx = 1;
            for (let sib = cur.previousElementSibling; sib; sib = sib.previousElementSibling) {
                if (sib.tagName === cur.tagName) idx++;
            }
            parts.unshift(cur.tagName.toLowerCase() + '[' + idx + ']');
            cur = cur.parentNode;
        }
        return '/' + parts.join('/');
    };
`

// buildQueryScript locates by CSS/XPath, pins the first match, and returns the
// match count. A malformed expression makes the evaluation throw, which the
// session surfaces as an error.
func buildQueryScript(selector, token string) string {
	return fmt.Sprintf(`
        (() => {
            %s
            const matches = collect(%s);
            if (matches.length === 0) return 0;
            pin(matches[0], %s);
            return matches.length;
        })()`, jsHelpers, jsonEncode(selector), jsonEncode(token))
}

// buildLabelQueryScript locates the control associated with a label whose text
// equals the given text. Both label[for] association and label wrapping count.
func buildLabelQueryScript(text, token string) string {
	return fmt.Sprintf(`
        (() => {
            %s
            const wanted = %s.trim();
            const controls = [];
            for (const label of document.querySelectorAll('label')) {
                if (label.textContent.trim() !== wanted) continue;
                let control = null;
                const forID = label.getAttribute('for');
                if (forID) control = document.getElementById(forID);
                if (!control) control = label.querySelector('input, select, textarea, button');
                if (control && !controls.includes(control)) controls.push(control);
            }
            if (controls.length === 0) return 0;
            pin(controls[0], %s);
            return controls.length;
        })()`, jsHelpers, jsonEncode(text), jsonEncode(token))
}

// buildRoleQueryScript locates elements by accessibility role, narrowing by
// accessible name when one is given.
func buildRoleQueryScript(role, accessibleName, token string) string {
	return fmt.Sprintf(`
        (() => {
            %s
            const wantRole = %s;
            const wantName = %s;
            const matches = [];
            for (const node of document.querySelectorAll('*')) {
                if (roleOf(node) !== wantRole) continue;
                if (wantName && accessibleName(node) !== wantName) continue;
                matches.push(node);
            }
            if (matches.length === 0) return 0;
            pin(matches[0], %s);
            return matches.length;
        })()`, jsHelpers, jsonEncode(role), jsonEncode(accessibleName), jsonEncode(token))
}

// buildProximityQueryScript finds the element of the wanted tag closest in the
// DOM tree to a text node containing nearbyText. Distance is measured in
// traversal steps up from the text node's parent, preferring descendants of
// the closest shared ancestor. This is a DOM-proximity heuristic, not a
// full-text search.
func buildProximityQueryScript(tag, nearbyText, token string) string {
	return fmt.Sprintf(`
        (() => {
            %s
            const wantTag = %s.toUpperCase();
            const wanted = %s;
            const anchors = [];
            const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
            while (walker.nextNode()) {
                const t = walker.currentNode.textContent.trim();
                if (t && t.includes(wanted)) anchors.push(walker.currentNode.parentElement);
            }
            let best = null;
            let bestDist = Infinity;
            for (const anchor of anchors) {
                let scope = anchor;
                for (let depth = 0; scope && depth < 6; depth++, scope = scope.parentElement) {
                    for (const cand of scope.querySelectorAll(wantTag.toLowerCase())) {
                        if (cand.tagName !== wantTag) continue;
                        if (depth < bestDist) { best = cand; bestDist = depth; }
                    }
                    if (best && depth >= bestDist) break;
                }
            }
            if (!best) return 0;
            pin(best, %s);
            return 1;
        })()`, jsHelpers, jsonEncode(tag), jsonEncode(nearbyText), jsonEncode(token))
}

// buildClassQueryScript counts elements carrying one class token and pins the
// first. The caller applies the ambiguity bounds.
func buildClassQueryScript(classToken, pinToken string) string {
	return fmt.Sprintf(`
        (() => {
            %s
            const matches = Array.from(document.getElementsByClassName(%s));
            if (matches.length === 0) return 0;
            pin(matches[0], %s);
            return matches.length;
        })()`, jsHelpers, jsonEncode(classToken), jsonEncode(pinToken))
}

// buildDescribeScript reads the full identifying attribute set of the first
// element matching selector, including generated css/xpath expressions.
// Returns null when nothing matches.
func buildDescribeScript(selector string) string {
	return fmt.Sprintf(`
        (() => {
            %s
            const matches = collect(%s);
            if (matches.length === 0) return null;
            const node = matches[0];
            const attr = (name) => node.getAttribute(name) || '';
            const text = (node.innerText || node.textContent || '').trim();
            return {
                tagType: node.tagName.toLowerCase(),
                id: node.id || '',
                name: attr('name'),
                selector: cssPath(node),
                cssSelector: cssPath(node),
                xpath: xpathOf(node),
                text: text.length > 120 ? text.slice(0, 120) : text,
                placeholder: attr('placeholder'),
                dataTestId: attr('data-test-id') || attr('data-testid'),
                ariaLabel: attr('aria-label'),
                role: roleOf(node),
                title: attr('title'),
                alt: attr('alt'),
                className: (typeof node.className === 'string') ? node.className.trim() : '',
                value: (node.value !== undefined && node.value !== null) ? String(node.value) : '',
                href: attr('href'),
                src: attr('src')
            };
        })()`, jsHelpers, jsonEncode(selector))
}

// buildStateScript evaluates whether the first match of selector is in the
// given state right now.
func buildStateScript(selector string, state ElementState) string {
	var predicate string
	switch state {
	case StateVisible:
		predicate = `matches.length > 0 && visible(matches[0])`
	case StateHidden:
		predicate = `matches.length === 0 || !visible(matches[0])`
	default:
		predicate = `matches.length > 0`
	}
	return fmt.Sprintf(`
        (() => {
            %s
            let matches = [];
            try { matches = collect(%s); } catch (e) { matches = []; }
            return %s;
        })()`, jsHelpers, jsonEncode(selector), predicate)
}

// buildCenterScript returns the viewport center point of the first match, or
// null. Used for CDP mouse gestures (drag and drop).
func buildCenterScript(selector string) string {
	return fmt.Sprintf(`
        (() => {
            %s
            const matches = collect(%s);
            if (matches.length === 0) return null;
            matches[0].scrollIntoView({block: 'center', inline: 'center'});
            const rect = matches[0].getBoundingClientRect();
            return {x: rect.left + rect.width / 2, y: rect.top + rect.height / 2};
        })()`, jsHelpers, jsonEncode(selector))
}

// buildSelectOptionScript selects a dropdown option by value, falling back to
// matching visible option text, and fires input/change events.
func buildSelectOptionScript(selector, value string) string {
	return fmt.Sprintf(`
        (() => {
            %s
            const matches = collect(%s);
            if (matches.length === 0) return 'no select element';
            const node = matches[0];
            if (node.tagName.toLowerCase() !== 'select') return 'element is not a select';
            const wanted = %s;
            let found = false;
            for (const opt of node.options) {
                const optValue = opt.value || opt.textContent.trim();
                if (opt.value === wanted || opt.textContent.trim() === wanted || optValue === wanted) {
                    node.value = opt.value;
                    found = true;
                    break;
                }
            }
            if (!found) return 'option not found: ' + wanted;
            node.dispatchEvent(new Event('input', {bubbles: true}));
            node.dispatchEvent(new Event('change', {bubbles: true}));
            return '';
        })()`, jsHelpers, jsonEncode(selector), jsonEncode(value))
}

// buildSetCheckedScript drives a checkbox or radio to the wanted state and
// fires events only on an actual transition.
func buildSetCheckedScript(selector string, checked bool) string {
	return fmt.Sprintf(`
        (() => {
            %s
            const matches = collect(%s);
            if (matches.length === 0) return 'no element';
            const node = matches[0];
            if (node.checked !== %t) {
                node.click();
            }
            return node.checked === %t ? '' : 'state did not change';
        })()`, jsHelpers, jsonEncode(selector), checked, checked)
}
