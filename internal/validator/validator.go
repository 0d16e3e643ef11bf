package validator

import (
	"fmt"
	"strings"

	"github.com/studiowebux/restspec/internal/types"
)

// Mode selects how JSON arrays are compared
type Mode int

const (
	// Strict requires array elements in the same order
	Strict Mode = iota
	// Loose compares arrays as multisets
	Loose
)

func (m Mode) String() string {
	if m == Loose {
		return "loose"
	}
	return "strict"
}

// ParseMode parses "strict" or "loose". An empty string selects Strict.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "loose", "lenient":
		return Loose, nil
	}
	return Strict, types.Errorf(types.KindConfiguration, "parse mode", "unknown JSON comparison mode '%s' (want strict or loose)", s)
}

// Response checks the status code, then the content type, then the body.
// The first failing check is returned as an assertion error.
func Response(expected *types.Response, actual *types.Result, mode Mode) error {
	if err := Status(expected, actual); err != nil {
		return err
	}

	contentType, err := ContentType(expected, actual)
	if err != nil {
		return err
	}

	return Body(expected, actual, contentType, mode)
}

// Status compares status codes and attaches the actual body on mismatch
func Status(expected *types.Response, actual *types.Result) error {
	if expected.Status.Code == actual.StatusCode {
		return nil
	}
	return types.AssertionFailure("expected status %d but got %d\nactual body: %s",
		expected.Status.Code, actual.StatusCode, actual.Body)
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
