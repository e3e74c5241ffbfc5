package correlate

import (
	"errors"

	"github.com/dkoosis/shotlink/pkg/index"
	"github.com/dkoosis/shotlink/pkg/testresult"
)

// Status says how correlation went for one case.
type Status string

const (
	StatusMatched      Status = "matched"       // at least one screenshot copied
	StatusNoMatch      Status = "no-match"      // scanned, nothing matched
	StatusNameMismatch Status = "name-mismatch" // case name has no [Capabilities] suffix
	StatusLogMismatch  Status = "log-mismatch"  // suite output has no usable result path
	StatusMissingDir   Status = "missing-dir"   // run directory absent
	StatusCopyError    Status = "copy-error"    // some copies or the destination failed
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusMatched, StatusNoMatch, StatusNameMismatch,
	StatusLogMismatch, StatusMissingDir, StatusCopyError,
}

// ErrNameMismatch is reported for cases whose name carries no capabilities.
var ErrNameMismatch = errors.New("case name has no [Capabilities] suffix")

// CaseReport is the per-case outcome of a correlation pass.
type CaseReport struct {
	Package string
	Class   string
	Case    string
	Outcome testresult.Outcome
	Pattern string
	Files   []string
	Status  Status
	Err     error
}

// Failed reports whether correlation hit an error rather than simply
// finding nothing.
func (r CaseReport) Failed() bool {
	return r.Status != StatusMatched && r.Status != StatusNoMatch
}

// Result is everything a correlation pass produced.
type Result struct {
	Tree       *index.Tree
	Cases      []CaseReport
	Duplicates int
}

// Count returns the number of cases with status s.
func (r *Result) Count(s Status) int {
	n := 0
	for _, c := range r.Cases {
		if c.Status == s {
			n++
		}
	}
	return n
}
