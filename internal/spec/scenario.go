package spec

import (
	"strings"
	"unicode"

	"github.com/studiowebux/restspec/internal/types"
)

// Scenario is one named request and its expected response
type Scenario struct {
	Name        string
	Description string
	Request     *types.Request
	Response    *types.Response
}

// ID returns the URL-safe identifier of the scenario
func (s Scenario) ID() string {
	return ScenarioID(s.Name)
}

// strippedIDChars are reserved or unsafe in URLs and dropped from scenario ids
const strippedIDChars = "!*'();:@&=+$,/?#[]\\<>{}|^~`\"%"

// ScenarioID lower-cases name, turns spaces into hyphens, drops control and
// reserved URL characters, and collapses repeated hyphens.
func ScenarioID(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r == ' ' || r == '-':
			if !lastHyphen && b.Len() > 0 {
				b.WriteRune('-')
				lastHyphen = true
			}
		case unicode.IsControl(r), strings.ContainsRune(strippedIDChars, r):
		default:
			b.WriteRune(r)
			lastHyphen = false
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
