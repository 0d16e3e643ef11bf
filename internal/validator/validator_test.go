package validator

import (
	"strings"
	"testing"

	"github.com/studiowebux/restspec/internal/types"
)

func expectedResponse(code int, contentType, body string) *types.Response {
	resp := &types.Response{Status: types.StatusInfo{Code: code}, Body: body}
	if contentType != "" {
		resp.Headers.Add("Content-Type", contentType)
	}
	return resp
}

func actualResult(code int, contentType, body string) *types.Result {
	res := &types.Result{StatusCode: code, Body: body}
	if contentType != "" {
		res.Headers.Add("Content-Type", contentType)
	}
	return res
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name     string
		expected *types.Response
		actual   *types.Result
		want     string
		wantErr  string
	}{
		{
			name:     "expected body without content type",
			expected: expectedResponse(200, "", "hello"),
			actual:   actualResult(200, "text/plain", "hello"),
			wantErr:  "Content-Type missing from expected response. Content-Type is required.",
		},
		{
			name:     "actual missing content type",
			expected: expectedResponse(200, "application/json", "{}"),
			actual:   actualResult(200, "", "{}"),
			wantErr:  "Content-Type missing from actual response.",
		},
		{
			name:     "no expected content type and no body",
			expected: expectedResponse(204, "", ""),
			actual:   actualResult(204, "text/html", "ignored"),
			want:     "",
		},
		{
			name:     "mismatch",
			expected: expectedResponse(200, "application/json", "{}"),
			actual:   actualResult(200, "text/plain", "{}"),
			wantErr:  "Content-Type on actual not matching expected.\n Wanted: application/json\n but found: text/plain",
		},
		{
			name:     "match",
			expected: expectedResponse(200, "application/json", "{}"),
			actual:   actualResult(200, "application/json", "{}"),
			want:     "application/json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContentType(tt.expected, tt.actual)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("Expected error %q, got: %v", tt.wantErr, err)
				}
				if !types.IsKind(err, types.KindAssertion) {
					t.Errorf("Expected assertion kind, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got: %q", tt.want, got)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	err := Status(expectedResponse(200, "", ""), actualResult(500, "", "boom"))
	if err == nil {
		t.Fatal("Expected status mismatch")
	}
	msg := err.Error()
	if !strings.Contains(msg, "expected status 200 but got 500") || !strings.Contains(msg, "boom") {
		t.Errorf("Expected message with both codes and the actual body, got: %s", msg)
	}
}

func TestBody_Dispatch(t *testing.T) {
	if _, ok := ForContentType("application/json", Strict).(JSONValidator); !ok {
		t.Error("Expected JSON validator for application/json")
	}
	if _, ok := ForContentType("application/problem+json", Loose).(JSONValidator); !ok {
		t.Error("Expected JSON validator for application/problem+json")
	}
	if _, ok := ForContentType("text/plain", Strict).(StringValidator); !ok {
		t.Error("Expected string validator for text/plain")
	}
}

func TestBody_EmptyExpectedSkips(t *testing.T) {
	err := Body(expectedResponse(200, "application/json", ""), actualResult(200, "application/json", "not json"), "application/json", Strict)
	if err != nil {
		t.Errorf("Expected empty expected body to skip, got: %v", err)
	}
}

func TestStringValidator(t *testing.T) {
	v := StringValidator{}
	if err := v.Validate("hello\nworld", "hello\nworld"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	err := v.Validate("hello", "hello ")
	if err == nil {
		t.Fatal("Expected mismatch for trailing space")
	}
	if !strings.Contains(err.Error(), `"hello "`) {
		t.Errorf("Expected actual value quoted, got: %v", err)
	}
}

func TestJSONValidator_Basics(t *testing.T) {
	v := JSONValidator{Mode: Strict}

	pass := []struct{ expected, actual string }{
		{`{"a":1,"b":"x"}`, `{"b":"x","a":1}`},
		{"{\n  \"a\": 1\n}", `{"a":1}`},
		{`{"a":1.0}`, `{"a":1}`},
		{`{"status":"..."}`, `{"status":"up"}`},
		{`{"status":"..."}`, `{"status":{"deep":[1,2]}}`},
		{`{"items":[{"id":"...","name":"a"}]}`, `{"items":[{"id":7,"name":"a"}]}`},
		{`{"a b":"c d"}`, `{"ab":"cd"}`},
		{`{"a":null,"b":true}`, `{"a":null,"b":true}`},
		{"{\n  // comment\n  \"a\": 1,\n}", `{"a":1}`},
		{`{"text":"line\nbreak"}`, `{"text":"linebreak"}`},
	}
	for _, tt := range pass {
		if err := v.Validate(tt.expected, tt.actual); err != nil {
			t.Errorf("Expected %s to match %s, got: %v", tt.expected, tt.actual, err)
		}
	}

	fail := []struct{ expected, actual string }{
		{`{"a":1}`, `{"a":2}`},
		{`{"a":1}`, `{"a":1,"b":2}`},
		{`{"a":1,"b":2}`, `{"a":1}`},
		{`{"a":"..."}`, `{"b":1}`},
		{`{"a":[1,2]}`, `{"a":[1,2,3]}`},
		{`{"a":"1"}`, `{"a":1}`},
		{`{"a":1}`, `not json`},
		{`not json`, `{"a":1}`},
	}
	for _, tt := range fail {
		err := v.Validate(tt.expected, tt.actual)
		if err == nil {
			t.Errorf("Expected %s not to match %s", tt.expected, tt.actual)
			continue
		}
		if !types.IsKind(err, types.KindAssertion) {
			t.Errorf("Expected assertion kind, got: %v", err)
		}
	}
}

func TestJSONValidator_WildcardReplacesAnyScalar(t *testing.T) {
	v := JSONValidator{}
	expected := `{"id":"...","name":"moose","tags":["a","..."]}`
	for _, leaf := range []string{`1`, `"x"`, `true`, `null`, `2.5`} {
		actual := `{"id":` + leaf + `,"name":"moose","tags":["a",` + leaf + `]}`
		if err := v.Validate(expected, actual); err != nil {
			t.Errorf("Expected wildcard to accept %s, got: %v", leaf, err)
		}
	}

	if err := v.Validate(expected, `{"id":1,"name":"moose","tags":["a","b"],"extra":1}`); err == nil {
		t.Error("Expected added key to fail")
	}
	if err := v.Validate(expected, `{"name":"moose","tags":["a","b"]}`); err == nil {
		t.Error("Expected removed key to fail")
	}
}

func TestJSONValidator_WholeBodyWildcard(t *testing.T) {
	v := JSONValidator{}
	for _, actual := range []string{`{"a":1}`, `[1,2,3]`, `definitely not json`} {
		if err := v.Validate("{...}", actual); err != nil {
			t.Errorf("Expected {...} to accept %q, got: %v", actual, err)
		}
	}
	if err := v.Validate("{ ... }\n", `x`); err != nil {
		t.Errorf("Expected normalized {...} to match, got: %v", err)
	}
}

func TestJSONValidator_BlankBodies(t *testing.T) {
	v := JSONValidator{}
	for _, tt := range []struct{ expected, actual string }{
		{"", `{"a":1}`},
		{`{"a":1}`, ""},
		{"{...}", "  "},
	} {
		err := v.Validate(tt.expected, tt.actual)
		if err == nil || err.Error() != "JSON body required" {
			t.Errorf("Expected JSON body required for %q/%q, got: %v", tt.expected, tt.actual, err)
		}
	}
}

func TestJSONValidator_StrictVersusLoose(t *testing.T) {
	expected := `[2,1]`
	actual := `[1,2]`

	if err := (JSONValidator{Mode: Strict}).Validate(expected, actual); err == nil {
		t.Error("Expected strict mode to reject reordered array")
	}
	if err := (JSONValidator{Mode: Loose}).Validate(expected, actual); err != nil {
		t.Errorf("Expected loose mode to accept reordered array, got: %v", err)
	}

	if err := (JSONValidator{Mode: Loose}).Validate(`[1,1,2]`, `[1,2,2]`); err == nil {
		t.Error("Expected loose mode to compare multisets, not sets")
	}
	if err := (JSONValidator{Mode: Loose}).Validate(`{"a":1}`, `{"a":1,"b":2}`); err == nil {
		t.Error("Expected loose mode to still reject extra keys")
	}
}

func TestJSONValidator_LooseWildcardMatching(t *testing.T) {
	v := JSONValidator{Mode: Loose}
	if err := v.Validate(`["...", "a"]`, `["a", "b"]`); err != nil {
		t.Errorf("Expected wildcard not to starve the literal match, got: %v", err)
	}
}

func TestJSONValidator_FailureMessage(t *testing.T) {
	err := JSONValidator{}.Validate(`{"a":1}`, `{"a":2}`)
	if err == nil {
		t.Fatal("Expected mismatch")
	}
	msg := err.Error()
	for _, want := range []string{
		"Incorrect JSON result",
		`expected json: {"a":1}`,
		`actual json: {"a":2}`,
		"exception: $.a: expected 1 but got 2",
		"diff (-expected +actual)",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected message to contain %q, got: %s", want, msg)
		}
	}
}

func TestResponse_Order(t *testing.T) {
	expected := expectedResponse(200, "application/json", `{"status":"..."}`)

	if err := Response(expected, actualResult(200, "application/json", `{"status":"up"}`), Strict); err != nil {
		t.Errorf("Expected pass, got: %v", err)
	}

	err := Response(expected, actualResult(500, "text/plain", "oops"), Strict)
	if err == nil || !strings.Contains(err.Error(), "expected status 200 but got 500") {
		t.Errorf("Expected status failure first, got: %v", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != Strict {
		t.Errorf("Expected default strict, got: %v %v", m, err)
	}
	if m, err := ParseMode("LOOSE"); err != nil || m != Loose {
		t.Errorf("Expected loose, got: %v %v", m, err)
	}
	if _, err := ParseMode("fuzzy"); !types.IsKind(err, types.KindConfiguration) {
		t.Errorf("Expected configuration error, got: %v", err)
	}
}

func TestNormalize(t *testing.T) {
	in := "{\r\n\t\"a\" : \"x y\",\\r\\n\"b\":\\n1}"
	if got := Normalize(in); got != `{"a":"xy","b":1}` {
		t.Errorf("Unexpected normalization: %q", got)
	}
}
