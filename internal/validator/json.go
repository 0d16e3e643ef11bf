package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/jsonc"

	"github.com/studiowebux/restspec/internal/types"
)

const (
	// WholeBodyWildcard as the expected body accepts any non-empty actual body
	WholeBodyWildcard = "{...}"
	// ValueWildcard as an expected JSON string accepts any actual value at that position
	ValueWildcard = "..."
)

// strippedSequences are removed, in this order, before comparison: line
// endings (literal and escaped), tabs and spaces. Whitespace inside string
// values is removed too.
var strippedSequences = []string{
	`\\r\\n`,
	`\r\n`,
	"\r\n",
	`\\n`,
	`\n`,
	"\n",
	"\t",
	" ",
}

// JSONValidator compares JSON bodies with wildcard support
type JSONValidator struct {
	Mode Mode
}

// Validate implements BodyValidator
func (v JSONValidator) Validate(expected, actual string) error {
	if strings.TrimSpace(expected) == "" || strings.TrimSpace(actual) == "" {
		return types.AssertionFailure("JSON body required")
	}

	normalizedExpected := Normalize(string(jsonc.ToJSON([]byte(expected))))
	if normalizedExpected == WholeBodyWildcard {
		return nil
	}
	normalizedActual := Normalize(actual)

	want, err := decodeJSON(normalizedExpected)
	if err != nil {
		return jsonFailure(expected, actual, fmt.Errorf("expected body is not valid JSON: %w", err), "")
	}
	got, err := decodeJSON(normalizedActual)
	if err != nil {
		return jsonFailure(expected, actual, fmt.Errorf("actual body is not valid JSON: %w", err), "")
	}

	if err := v.compare("$", want, got); err != nil {
		return jsonFailure(expected, actual, err, cmp.Diff(want, got))
	}
	return nil
}

// Normalize applies the line-ending and whitespace stripping used before comparison
func Normalize(s string) string {
	for _, seq := range strippedSequences {
		s = strings.ReplaceAll(s, seq, "")
	}
	return s
}

func jsonFailure(expected, actual string, cause error, diff string) error {
	var b strings.Builder
	b.WriteString("\nIncorrect JSON result\n")
	b.WriteString("expected json: " + expected + "\n")
	b.WriteString("actual json: " + actual + "\n")
	b.WriteString("exception: " + cause.Error())
	if diff != "" {
		b.WriteString("\ndiff (-expected +actual):\n" + diff)
	}
	return types.AssertionFailure("%s", b.String())
}

func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return v, nil
}

func (v JSONValidator) compare(path string, expected, actual any) error {
	if s, ok := expected.(string); ok && s == ValueWildcard {
		return nil
	}

	switch want := expected.(type) {
	case map[string]any:
		got, ok := actual.(map[string]any)
		if !ok {
			return mismatch(path, expected, actual)
		}
		return v.compareObjects(path, want, got)

	case []any:
		got, ok := actual.([]any)
		if !ok {
			return mismatch(path, expected, actual)
		}
		if len(want) != len(got) {
			return fmt.Errorf("%s: expected %d elements but got %d", path, len(want), len(got))
		}
		if v.Mode == Loose {
			return v.compareUnordered(path, want, got)
		}
		for i := range want {
			if err := v.compare(fmt.Sprintf("%s[%d]", path, i), want[i], got[i]); err != nil {
				return err
			}
		}
		return nil

	case json.Number:
		got, ok := actual.(json.Number)
		if !ok || !numbersEqual(want, got) {
			return mismatch(path, expected, actual)
		}
		return nil

	default:
		if expected != actual {
			return mismatch(path, expected, actual)
		}
		return nil
	}
}

func (v JSONValidator) compareObjects(path string, want, got map[string]any) error {
	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		value, ok := got[k]
		if !ok {
			return fmt.Errorf("%s: expected field %q but none found", path, k)
		}
		if err := v.compare(path+"."+k, want[k], value); err != nil {
			return err
		}
	}

	var unexpected []string
	for k := range got {
		if _, ok := want[k]; !ok {
			unexpected = append(unexpected, k)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return fmt.Errorf("%s: unexpected field(s) %s", path, strings.Join(unexpected, ", "))
	}
	return nil
}

// compareUnordered pairs every expected element with a distinct actual
// element, using augmenting paths so wildcards cannot starve later matches.
func (v JSONValidator) compareUnordered(path string, want, got []any) error {
	matches := make([][]bool, len(want))
	for i := range want {
		matches[i] = make([]bool, len(got))
		for j := range got {
			matches[i][j] = v.compare(path, want[i], got[j]) == nil
		}
	}

	owner := make([]int, len(got))
	for j := range owner {
		owner[j] = -1
	}

	var assign func(i int, seen []bool) bool
	assign = func(i int, seen []bool) bool {
		for j := range got {
			if !matches[i][j] || seen[j] {
				continue
			}
			seen[j] = true
			if owner[j] == -1 || assign(owner[j], seen) {
				owner[j] = i
				return true
			}
		}
		return false
	}

	for i := range want {
		if !assign(i, make([]bool, len(got))) {
			return fmt.Errorf("%s: expected element %s has no match in actual array", path, render(want[i]))
		}
	}
	return nil
}

func numbersEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	fa, errA := strconv.ParseFloat(string(a), 64)
	fb, errB := strconv.ParseFloat(string(b), 64)
	return errA == nil && errB == nil && fa == fb
}

func mismatch(path string, expected, actual any) error {
	return fmt.Errorf("%s: expected %s but got %s", path, render(expected), render(actual))
}

func render(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(buf.String())
}
