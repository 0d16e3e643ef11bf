package types

import (
	"fmt"
	"net/http"
	"strings"
)

// StatusInfo is a validated status code and its reason phrase
type StatusInfo struct {
	Code         int    `json:"code"`
	ReasonPhrase string `json:"reasonPhrase"`
}

func (s StatusInfo) String() string {
	return fmt.Sprintf("%d %s", s.Code, s.ReasonPhrase)
}

// statusNames maps a normalized reason phrase (upper case, spaces as
// underscores) to its registered code.
var statusNames = buildStatusNames()

func buildStatusNames() map[string]int {
	names := make(map[string]int)
	for code := 100; code <= 599; code++ {
		text := http.StatusText(code)
		if text == "" {
			continue
		}
		names[NormalizeReasonPhrase(text)] = code
	}
	return names
}

// NormalizeReasonPhrase upper-cases a phrase and replaces spaces with underscores
func NormalizeReasonPhrase(phrase string) string {
	return strings.ToUpper(strings.ReplaceAll(phrase, " ", "_"))
}

// ReasonPhrase returns the canonical phrase of a registered code
func ReasonPhrase(code int) (string, bool) {
	if code < 100 || code > 599 {
		return "", false
	}
	text := http.StatusText(code)
	return text, text != ""
}

// StatusCodeByName resolves a phrase, compared after normalization, to its code
func StatusCodeByName(phrase string) (int, bool) {
	code, ok := statusNames[NormalizeReasonPhrase(phrase)]
	return code, ok
}
