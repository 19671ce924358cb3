// Package errors provides the classified error primitives used across sitebundle.
//
// Every failure that can reach the command layer is a ClassifiedError carrying a
// category (filesystem, not_found, transform, validation, config, ...), a severity and
// structured context. The CLI adapter maps categories to process exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryTransform, "minify failed").
//		WithContext("file", "script.js").
//		WithContext("line", 12).
//		Build()
package errors
