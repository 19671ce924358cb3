package minify

import "github.com/evanw/esbuild/pkg/api"

// cssSyntaxError is the esbuild message id for rules it had to discard.
const cssSyntaxError = "css-syntax-error"

// stylesheetEngines is the browser floor for CSS output. Listing several engines
// keeps esbuild from using syntax only one of them understands.
var stylesheetEngines = []api.Engine{
	{Name: api.EngineChrome, Version: "80"},
	{Name: api.EngineEdge, Version: "80"},
	{Name: api.EngineFirefox, Version: "78"},
	{Name: api.EngineSafari, Version: "13"},
	{Name: api.EngineIOS, Version: "13"},
}

// Stylesheet minifies CSS source. Rules esbuild cannot parse fail the transform
// instead of being dropped from the output.
func Stylesheet(name string, src []byte) ([]byte, error) {
	result := api.Transform(string(src), api.TransformOptions{
		Loader:           api.LoaderCSS,
		Sourcefile:       name,
		MinifyWhitespace: true,
		MinifySyntax:     true,
		Charset:          api.CharsetUTF8,
		Engines:          stylesheetEngines,
		LogLevel:         api.LogLevelSilent,
	})

	problems := append([]api.Message(nil), result.Errors...)
	for _, w := range result.Warnings {
		if w.ID == cssSyntaxError {
			problems = append(problems, w)
		}
	}
	if len(problems) > 0 {
		return nil, messageError("CSS", name, problems[0], len(problems))
	}
	return guard(src, result.Code), nil
}
