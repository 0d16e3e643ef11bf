/*
Package types defines the data model shared by every restspec package.

# Overview

The types package provides:
  - HTTP methods and request lines
  - Ordered, case-insensitive header multi-maps
  - Status codes validated against their reason phrases
  - Parsed request and expected-response models
  - The error taxonomy used across loading and execution

# Request Types

Request:
  - Parsed from a request text block
  - Request line (method, URI, ordered query pairs)
  - Headers in written order
  - Body, kept for every method; only POST, PUT and PATCH send it

# Response Types

Response:
  - Parsed from a response text block
  - StatusInfo (code and reason phrase)
  - Headers and body used as the expectation

# Headers

Headers keeps every pair in insertion order. Lookups ignore case:

	h := types.NewHeaders(types.Header{Name: "X", Value: "a"})
	h.Add("x", "b")
	h.Values("X") // [a b]

# Errors

Every failure is an *Error with one of these kinds:
  - invalid_request: malformed request line, unknown method, bad URI
  - invalid_header: header line without a colon
  - invalid_response: malformed status line or code/phrase mismatch
  - scenario_parsing: a spec document could not be decoded
  - assertion: the actual response did not match the expectation
  - configuration: missing or invalid run configuration

Use IsKind to classify:

	if types.IsKind(err, types.KindAssertion) {
		// scenario failed, keep running
	}

# Immutability

Values are parsed once and never mutated afterwards. Headers exposes
copies through All so callers cannot alter a parsed message.
*/
package types
