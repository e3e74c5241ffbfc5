// Package capability parses the execution attributes embedded in test case
// names of the form:
//
//	login_test [Capabilities [{platform=WINDOWS, browserName=chrome, version=90}]]
//
// The bracket literals and the ", " separator are part of the grammar.
package capability

import (
	"regexp"
	"strings"
)

// Well-known capability keys.
const (
	KeyPlatform = "platform"
	KeyBrowser  = "browserName"
	KeyVersion  = "version"
)

// Capabilities maps attribute name to value. Keys are case-sensitive.
type Capabilities map[string]string

var (
	fullRe = regexp.MustCompile(`^(.*?)\s?\[Capabilities\s?\[\{(.*)\}\]\]$`)
	baseRe = regexp.MustCompile(`^(.*?)\s?\[Capabilities.*\]$`)
)

// Parsed is the result of parsing one case name.
type Parsed struct {
	Base      string       // name before the capabilities suffix; empty when unmatched
	Matched   bool         // the full grammar matched
	Caps      Capabilities // never nil
	Malformed []string     // tokens skipped because they lack '='
}

// Parse extracts capabilities from a case name. A name that does not match
// the grammar yields empty Capabilities, an empty Base and Matched false;
// BaseName then still recovers the base from a loosely formed suffix.
func Parse(name string) Parsed {
	p := Parsed{Caps: Capabilities{}}
	m := fullRe.FindStringSubmatch(name)
	if m == nil {
		return p
	}
	p.Base, p.Matched = strings.TrimSpace(m[1]), true
	if m[2] == "" {
		return p
	}
	for _, tok := range strings.Split(m[2], ", ") {
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			p.Malformed = append(p.Malformed, tok)
			continue
		}
		p.Caps[k] = v
	}
	return p
}

// BaseName returns the leading test name of a case name carrying any
// [Capabilities...] tail. It is looser than Parse: the tail need not be
// well formed. ok is false when there is no such tail.
func BaseName(name string) (base string, ok bool) {
	m := baseRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
