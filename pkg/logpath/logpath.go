// Package logpath recovers the per-run artifact subdirectory that a test
// suite reports in its captured output, e.g.
//
//	[Save TestResult] C:\work\results\2016_01_01_12_00_00\LoginTest\result.json
//
// yields "2016_01_01_12_00_00\LoginTest".
package logpath

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultMarker precedes the result path in suite output.
const DefaultMarker = "[Save TestResult]"

var (
	// ErrMarkerNotFound means the output never mentions the marker.
	ErrMarkerNotFound = errors.New("log marker not found")
	// ErrNoMatch means the text after the last marker holds no result path.
	ErrNoMatch = errors.New("no result path after log marker")
)

// tokenRe captures "<19 digits or underscores>\<anything>" ahead of \result.json.
var tokenRe = regexp.MustCompile(`\\((?:\d|_){19}\\.*)\\result\.json`)

// Extract returns the artifact directory token from stdout using DefaultMarker.
func Extract(stdout string) (string, error) {
	return ExtractAfter(stdout, DefaultMarker)
}

// ExtractAfter returns the artifact directory token following the last
// occurrence of marker. Earlier occurrences belong to superseded runs.
func ExtractAfter(stdout, marker string) (string, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	i := strings.LastIndex(stdout, marker)
	if i < 0 {
		return "", fmt.Errorf("%w: %q", ErrMarkerNotFound, marker)
	}
	tail := stdout[i:]
	m := tokenRe.FindStringSubmatch(tail)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrNoMatch, firstLine(tail))
	}
	return m[1], nil
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}
