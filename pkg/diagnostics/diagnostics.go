// Package diagnostics classifies a test outcome and, for failures, pulls the
// exception kind and first source location out of the stack trace.
package diagnostics

import (
	"regexp"
	"strings"

	"github.com/dkoosis/shotlink/pkg/testresult"
)

// Manifest attribute keys and sentinel values.
const (
	KeyErrName     = "errName"
	KeyErrLocation = "errLocation"

	Success = "SUCCESS"
	Skipped = "SKIPPED"
)

var (
	lineSplitRe = regexp.MustCompile(`\r?\n`)
	frameRe     = regexp.MustCompile(`^\t?at\s?(.+)`)
)

// Diagnostics describes why a case ended the way it did.
type Diagnostics struct {
	ErrName     string
	ErrLocation string
}

// Extract returns diagnostics for an outcome. The trace is read only for
// failed cases. A failed trace without an "at" frame yields an empty
// location.
func Extract(outcome testresult.Outcome, trace string) Diagnostics {
	switch outcome {
	case testresult.Skipped:
		return Diagnostics{ErrName: Skipped, ErrLocation: Skipped}
	case testresult.Passed:
		return Diagnostics{ErrName: Success, ErrLocation: Success}
	}

	lines := lineSplitRe.Split(trace, -1)
	d := Diagnostics{}
	d.ErrName, _, _ = strings.Cut(lines[0], ":")
	for _, line := range lines {
		if m := frameRe.FindStringSubmatch(line); m != nil {
			d.ErrLocation = m[1]
			break
		}
	}
	return d
}

// Attributes returns the manifest leaf entries for d.
func (d Diagnostics) Attributes() map[string]string {
	return map[string]string{
		KeyErrName:     d.ErrName,
		KeyErrLocation: d.ErrLocation,
	}
}
