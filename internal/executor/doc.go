/*
Package executor sends scenario requests to the target and captures responses.

# Overview

The executor package provides:
  - Outbound request construction from a parsed types.Request
  - A pooled, concurrency-safe HTTP client
  - Optional request rate limiting
  - TLS/mTLS configuration

# Request Construction

BuildRequest rebuilds the URL from the target base and the request line:
  - Scheme, host and port come from the target endpoint
  - The path comes from the request URI
  - Query pairs are re-encoded in written order, duplicates kept

Every header is copied with Header.Add, so repeated names keep all values.
A Host header sets the request host instead. GET, DELETE, HEAD, OPTIONS and
TRACE requests never carry a body.

# Client

A Client is shared by every goroutine of a run:
  - Client-level timeout (default 30s) bounds hung calls
  - Redirects are not followed, the first response is what gets validated
  - Keep-alive connection pool sized by MaxConnsPerHost

Rate limiting uses golang.org/x/time/rate. With RequestsPerSecond set, each
Execute waits for a token before dialing.

# Errors

Transport failures (connection refused, timeouts, TLS errors) are returned
as errors. Non-2xx responses are not errors; they are captured in
types.Result for validation.

# Example Usage

	client, err := executor.NewClient(executor.Options{Timeout: 5 * time.Second})
	if err != nil {
		return err
	}
	base, _ := url.Parse("http://localhost:8080")
	result, err := client.Execute(ctx, base, scenario.Request)
*/
package executor
