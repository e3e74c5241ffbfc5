// Package render formats correlation run summaries for terminals, plain
// text consumers and automation.
package render

import (
	"sort"

	"github.com/dkoosis/shotlink/pkg/correlate"
	"github.com/dkoosis/shotlink/pkg/testresult"
)

// Renderer converts a run summary to formatted output.
type Renderer interface {
	Render(s *Summary) string
}

// StatusCount is the number of cases that ended in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Issue is a case whose correlation failed.
type Issue struct {
	Package string `json:"package"`
	Class   string `json:"class"`
	Case    string `json:"case"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Summary is the display model of one correlation run.
type Summary struct {
	Suites     int           `json:"suites"`
	Cases      int           `json:"cases"`
	Files      int           `json:"files"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Duplicates int           `json:"duplicates"`
	Statuses   []StatusCount `json:"statuses"`
	Issues     []Issue       `json:"issues"`
	Manifest   string        `json:"manifest,omitempty"`

	// Index is the package/class/case file view, emitted only by JSON.
	Index map[string]map[string]map[string][]string `json:"index"`
}

// NewSummary builds the display model for res. manifest is the path the
// manifest was written to, or empty when it was not written.
func NewSummary(suites []testresult.Suite, res *correlate.Result, manifest string) *Summary {
	s := &Summary{
		Suites:   len(suites),
		Manifest: manifest,
		Statuses: []StatusCount{},
		Issues:   []Issue{},
	}
	if res == nil {
		return s
	}
	s.Cases = len(res.Cases)
	s.Duplicates = res.Duplicates
	if res.Tree != nil {
		s.Files = res.Tree.FileCount()
		s.Index = res.Tree.Files()
	}
	for _, c := range res.Cases {
		switch c.Outcome {
		case testresult.Passed:
			s.Passed++
		case testresult.Failed:
			s.Failed++
		case testresult.Skipped:
			s.Skipped++
		}
		if c.Failed() {
			is := Issue{Package: c.Package, Class: c.Class, Case: c.Case, Status: string(c.Status)}
			if c.Err != nil {
				is.Message = c.Err.Error()
			}
			s.Issues = append(s.Issues, is)
		}
	}
	for _, st := range correlate.Statuses {
		if n := res.Count(st); n > 0 {
			s.Statuses = append(s.Statuses, StatusCount{Status: string(st), Count: n})
		}
	}
	sort.SliceStable(s.Issues, func(i, j int) bool {
		a, b := s.Issues[i], s.Issues[j]
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		return a.Case < b.Case
	})
	return s
}

// Matched returns the number of cases with at least one screenshot.
func (s *Summary) Matched() int {
	for _, st := range s.Statuses {
		if st.Status == string(correlate.StatusMatched) {
			return st.Count
		}
	}
	return 0
}

// Coverage is the fraction of cases with at least one screenshot.
func (s *Summary) Coverage() float64 {
	if s.Cases == 0 {
		return 0
	}
	return float64(s.Matched()) / float64(s.Cases)
}
