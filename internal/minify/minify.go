// Package minify holds the three text transforms of a build: scripts and stylesheets
// through esbuild's transform API, markup through tdewolff/minify with embedded
// <script> and <style> content routed back through the esbuild transforms.
package minify

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"

	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebundle/internal/manifest"
)

// Func minifies one source text. name is used only for diagnostics.
type Func func(name string, src []byte) ([]byte, error)

// For returns the transform for a source category.
func For(c manifest.Category) (Func, error) {
	switch c {
	case manifest.CategoryScript:
		return Script, nil
	case manifest.CategoryStylesheet:
		return Stylesheet, nil
	case manifest.CategoryMarkup:
		return Markup, nil
	default:
		return nil, foundation.InternalError("no minifier for category").
			WithContext("category", string(c)).Build()
	}
}

// guard keeps src when the transform did not make it smaller.
func guard(src, out []byte) []byte {
	out = bytes.TrimSuffix(out, []byte("\n"))
	if len(out) > len(src) {
		return src
	}
	return out
}

// messageError converts the first esbuild diagnostic into a transform error
// carrying the file position.
func messageError(kind, name string, msg api.Message, total int) error {
	b := foundation.TransformError(fmt.Sprintf("invalid %s", kind)).
		WithCause(errors.New(msg.Text)).
		WithContext("file", name)
	if msg.Location != nil {
		b = b.WithContext("line", msg.Location.Line).
			WithContext("column", msg.Location.Column)
	}
	if total > 1 {
		b = b.WithContext("problems", total)
	}
	return b.Build()
}
