package minify

import "github.com/evanw/esbuild/pkg/api"

// scriptOptions strips console and debugger statements, drops dead branches and
// shortens local identifiers. No Target is set so nothing is lowered, and top-level
// names of a classic script stay intact because transform mode has no module scope.
func scriptOptions(name string) api.TransformOptions {
	return api.TransformOptions{
		Loader:            api.LoaderJS,
		Sourcefile:        name,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		Drop:              api.DropConsole | api.DropDebugger,
		Charset:           api.CharsetUTF8,
		LogLevel:          api.LogLevelSilent,
	}
}

// Script minifies JavaScript source.
func Script(name string, src []byte) ([]byte, error) {
	result := api.Transform(string(src), scriptOptions(name))
	if len(result.Errors) > 0 {
		return nil, messageError("JavaScript", name, result.Errors[0], len(result.Errors))
	}
	return guard(src, result.Code), nil
}
