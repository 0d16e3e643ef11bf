package validator

import (
	"github.com/studiowebux/restspec/internal/types"
)

// BodyValidator compares an actual body against an expected one
type BodyValidator interface {
	Validate(expected, actual string) error
}

// StringValidator requires byte-for-byte equality
type StringValidator struct{}

// Validate implements BodyValidator
func (StringValidator) Validate(expected, actual string) error {
	if expected == actual {
		return nil
	}
	return types.AssertionFailure("body mismatch\nexpected body: %s\nactual body: %s", quote(expected), quote(actual))
}

// ForContentType picks the JSON comparator for JSON media types, else exact string comparison
func ForContentType(contentType string, mode Mode) BodyValidator {
	if types.IsJSON(contentType) {
		return JSONValidator{Mode: mode}
	}
	return StringValidator{}
}

// Body validates the actual body. An empty expected body, or an empty
// effective content type, skips the check.
func Body(expected *types.Response, actual *types.Result, contentType string, mode Mode) error {
	if expected.Body == "" || contentType == "" {
		return nil
	}
	return ForContentType(contentType, mode).Validate(expected.Body, actual.Body)
}
