package validator

import (
	"github.com/studiowebux/restspec/internal/types"
)

const (
	expectedContentTypeMissing = "Content-Type missing from expected response. Content-Type is required."
	actualContentTypeMissing   = "Content-Type missing from actual response."
	mismatchedContentType      = "Content-Type on actual not matching expected.\n Wanted: %s\n but found: %s"
)

// ContentType returns the effective content type used to pick a body comparator.
//
//   - an expected body without an expected Content-Type fails
//   - no expected Content-Type returns "" and body checks are skipped
//   - an expected Content-Type the target did not send fails
//   - otherwise both values must be equal strings
func ContentType(expected *types.Response, actual *types.Result) (string, error) {
	if expected.Body != "" && !expected.HasContentType() {
		return "", types.AssertionFailure(expectedContentTypeMissing)
	}
	if !expected.HasContentType() {
		return "", nil
	}
	if !actual.HasContentType() {
		return "", types.AssertionFailure(actualContentTypeMissing)
	}

	want := expected.ContentType()
	got := actual.ContentType()
	if want != got {
		return "", types.AssertionFailure(mismatchedContentType, want, got)
	}
	return want, nil
}
