package minify

import (
	"bytes"
	"io"
	"regexp"
	"sync"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"

	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
)

const (
	mimeHTML = "text/html"
	mimeCSS  = "text/css"
	mimeSVG  = "image/svg+xml"
)

var (
	// scriptMimeRe also matches the bare "module" type of <script type="module">.
	scriptMimeRe = regexp.MustCompile(`^((application|text)/(x-)?(java|ecma)script|module)$`)
	jsonMimeRe   = regexp.MustCompile(`[/+]json$`)
)

// markupMinifier collapses whitespace between tags and strips comments but keeps
// <html>/<head>/<body>, closing tags and attribute quotes.
var markupMinifier = &html.Minifier{
	KeepDocumentTags: true,
	KeepEndTags:      true,
	KeepQuotes:       true,
}

// embedded records failures of nested transforms. tdewolff writes the original
// text back when a nested minifier fails, so the markup call checks it afterwards.
type embedded struct {
	mu   sync.Mutex
	errs []error
}

func (e *embedded) record(err error) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

func (e *embedded) first() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.errs) == 0 {
		return nil
	}
	return e.errs[0]
}

// inline reports whether tdewolff is handing over an attribute value
// (style="..." or an on* handler) rather than element content.
func inline(params map[string]string) bool {
	return params != nil && params["inline"] == "1"
}

// route wraps an esbuild transform as a tdewolff minifier. Attribute values go to
// fallback, since esbuild parses neither bare declaration lists nor a top-level return.
func route(name string, transform Func, fallback tdminify.MinifierFunc, failures *embedded) tdminify.MinifierFunc {
	return func(m *tdminify.M, w io.Writer, r io.Reader, params map[string]string) error {
		if inline(params) {
			if err := fallback(m, w, r, params); err != nil {
				failures.record(foundation.TransformError("invalid inline attribute").
					WithCause(err).WithContext("file", name).Build())
				return err
			}
			return nil
		}
		src, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		out, err := transform(name, src)
		if err != nil {
			failures.record(err)
			return err
		}
		_, err = w.Write(out)
		return err
	}
}

// recorded passes a tdewolff minifier through, noting its failures.
func recorded(name, kind string, fn tdminify.MinifierFunc, failures *embedded) tdminify.MinifierFunc {
	return func(m *tdminify.M, w io.Writer, r io.Reader, params map[string]string) error {
		if err := fn(m, w, r, params); err != nil {
			failures.record(foundation.TransformError("invalid embedded "+kind).
				WithCause(err).WithContext("file", name).Build())
			return err
		}
		return nil
	}
}

func newMarkupMinifier(name string, failures *embedded) *tdminify.M {
	m := tdminify.New()
	m.Add(mimeHTML, markupMinifier)
	m.AddFunc(mimeCSS, route(name, Stylesheet, css.Minify, failures))
	m.AddFuncRegexp(scriptMimeRe, route(name, Script, js.Minify, failures))
	m.AddFuncRegexp(jsonMimeRe, recorded(name, "JSON", json.Minify, failures))
	m.AddFunc(mimeSVG, recorded(name, "SVG", svg.Minify, failures))
	return m
}

// Markup minifies an HTML document, including its embedded stylesheets, scripts,
// JSON blocks and inline SVG.
func Markup(name string, src []byte) ([]byte, error) {
	failures := &embedded{}
	m := newMarkupMinifier(name, failures)

	var buf bytes.Buffer
	if err := m.Minify(mimeHTML, &buf, bytes.NewReader(src)); err != nil {
		if first := failures.first(); first != nil {
			return nil, first
		}
		return nil, foundation.TransformError("invalid HTML").
			WithCause(err).WithContext("file", name).Build()
	}
	if first := failures.first(); first != nil {
		return nil, first
	}
	return guard(src, buf.Bytes()), nil
}
