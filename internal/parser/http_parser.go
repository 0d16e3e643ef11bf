package parser

import (
	"bufio"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/studiowebux/restspec/internal/types"
)

const (
	// maxLineSize bounds a single line of a request or response block
	maxLineSize = 10 * 1024 * 1024
)

// invalidURIChars are rejected anywhere in a request URI
const invalidURIChars = "\"<>\\^`{|}"

// ParseRequest parses a request text block:
//
//	<METHOD> <URI>
//	<Header-Name>: <value>
//
//	<body>
//
// The body is kept for every method; only dispatch drops it for body-less ones.
func ParseRequest(text string) (*types.Request, error) {
	lines, err := splitLines(text)
	if err != nil {
		return nil, types.Wrap(types.KindInvalidRequest, "parse request", err, "failed to read request text")
	}
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, types.Errorf(types.KindInvalidRequest, "parse request", "request text is empty")
	}

	line, err := ParseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}

	headers, rest, err := ParseHeaders(lines[1:])
	if err != nil {
		return nil, err
	}

	req := &types.Request{
		Line:    line,
		Headers: headers,
		Body:    ParseBody(rest),
		Text:    text,
	}
	return req, nil
}

// ParseResponse parses an expected-response text block:
//
//	<STATUS-CODE> <REASON PHRASE>
//	<Header-Name>: <value>
//
//	<body>
func ParseResponse(text string) (*types.Response, error) {
	lines, err := splitLines(text)
	if err != nil {
		return nil, types.Wrap(types.KindInvalidResponse, "parse response", err, "failed to read response text")
	}
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, types.Errorf(types.KindInvalidResponse, "parse response", "response text is empty")
	}

	status, err := ParseStatusLine(lines[0])
	if err != nil {
		return nil, err
	}

	headers, rest, err := ParseHeaders(lines[1:])
	if err != nil {
		return nil, err
	}

	return &types.Response{
		Status:  status,
		Headers: headers,
		Body:    ParseBody(rest),
		Text:    text,
	}, nil
}

// ParseRequestLine parses "<METHOD> <URI>". Exactly one space must separate the two tokens.
func ParseRequestLine(line string) (types.RequestLine, error) {
	const op = "parse request line"

	parts := strings.Split(strings.TrimRight(line, " \t\r"), " ")
	if len(parts) != 2 {
		return types.RequestLine{}, types.Errorf(types.KindInvalidRequest, op,
			"request line %q must contain only the HTTP method and request URI", line)
	}

	method, ok := types.ParseMethod(parts[0])
	if !ok {
		return types.RequestLine{}, types.Errorf(types.KindInvalidRequest, op, "'%s' is not a valid HTTP method", parts[0])
	}

	uri, err := parseURI(parts[1])
	if err != nil {
		return types.RequestLine{}, types.Wrap(types.KindInvalidRequest, op, err,
			fmt.Sprintf("URI '%s' has an invalid format", parts[1]))
	}

	return types.RequestLine{
		Method: method,
		URI:    uri,
		Query:  parseQuery(uri.RawQuery),
	}, nil
}

func parseURI(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty URI")
	}
	for _, r := range raw {
		if r < 0x20 || r == 0x7f {
			return nil, fmt.Errorf("control character in URI")
		}
		if strings.ContainsRune(invalidURIChars, r) {
			return nil, fmt.Errorf("illegal character %q in URI", r)
		}
	}
	return url.Parse(raw)
}

// parseQuery splits a raw query into ordered pairs on '&' and the first '='.
// Values that fail to decode are kept as written.
func parseQuery(raw string) []types.Header {
	if raw == "" {
		return nil
	}

	var pairs []types.Header
	for _, segment := range strings.Split(raw, "&") {
		if segment == "" {
			continue
		}
		name, value, _ := strings.Cut(segment, "=")
		pairs = append(pairs, types.Header{Name: unescape(name), Value: unescape(value)})
	}
	return pairs
}

func unescape(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// ParseStatusLine parses "<CODE> <REASON PHRASE>". The phrase must be the
// canonical text of the code, e.g. "404 Not Found".
func ParseStatusLine(line string) (types.StatusInfo, error) {
	const op = "parse status line"

	codeText, phrase, _ := strings.Cut(strings.TrimRight(line, " \t\r"), " ")

	code, err := strconv.Atoi(codeText)
	if err != nil {
		return types.StatusInfo{}, types.Errorf(types.KindInvalidResponse, op, "'%s' is not a valid status code", codeText)
	}
	canonical, ok := types.ReasonPhrase(code)
	if !ok {
		return types.StatusInfo{}, types.Errorf(types.KindInvalidResponse, op, "'%s' is not a valid status code", codeText)
	}

	if _, ok := types.StatusCodeByName(phrase); !ok {
		return types.StatusInfo{}, types.Errorf(types.KindInvalidResponse, op, "'%s' is not a valid reason phrase", phrase)
	}

	if canonical != phrase {
		return types.StatusInfo{}, types.Errorf(types.KindInvalidResponse, op,
			"status code %d and reason phrase '%s' do not match, expected '%s'", code, phrase, canonical)
	}

	return types.StatusInfo{Code: code, ReasonPhrase: phrase}, nil
}

// ParseHeaders reads "Name: value" lines until a blank line or the end of
// input. Only the first colon separates name from value. It returns the lines
// following the blank separator; when there is no separator, rest is empty.
func ParseHeaders(lines []string) (headers types.Headers, rest []string, err error) {
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			return headers, lines[i+1:], nil
		}

		name, value, found := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return types.Headers{}, nil, types.Errorf(types.KindInvalidHeader, "parse headers", "cannot parse header: %s", line)
		}
		headers.Add(name, strings.TrimSpace(value))
	}
	return headers, nil, nil
}

// ParseBody joins the remaining lines with "\n" and trims exactly one
// trailing separator. Interior blank lines are kept.
func ParseBody(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Join(lines, "\n"), "\n")
}

// splitLines splits text on line endings. A trailing "\r" is dropped from each line.
func splitLines(text string) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading text: %w", err)
	}
	return lines, nil
}
