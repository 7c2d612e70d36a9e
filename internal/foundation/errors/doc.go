// Package errors provides the classified error primitives used across blogbuilder.
//
// Every failure that can end a build carries a category (what went wrong),
// a severity (whether the build must stop) and a context map naming the
// offending source, field or slug. A fluent builder keeps construction
// uniform:
//
//	err := errors.DocumentParseError("missing required field").
//		WithContext("source", "posts/hello.md").
//		WithContext("field", "title").
//		Build()
//
// The CLI adapter turns a classified error into an exit code and a
// user-facing message.
package errors
