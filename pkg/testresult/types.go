// Package testresult defines the test execution records shotlink correlates.
// Readers (junitxml, testjson) produce these; correlate consumes them.
package testresult

import "strings"

// Outcome is the terminal state of a single test case.
type Outcome string

const (
	Passed  Outcome = "passed"
	Failed  Outcome = "failed"
	Skipped Outcome = "skipped"
)

// RootPackage names the package of a class that has no dotted prefix.
const RootPackage = "(root)"

// Case is one executed test case.
type Case struct {
	Package    string
	Class      string // fully qualified, e.g. "com.example.LoginTest"
	Name       string // raw name, may carry a [Capabilities ...] suffix
	Outcome    Outcome
	StackTrace string // set only when Outcome is Failed
}

// Suite groups cases that share one captured output log.
type Suite struct {
	Name   string
	Stdout string
	Cases  []Case
}

// PackageOf returns the package part of a fully qualified class name.
func PackageOf(class string) string {
	if i := strings.LastIndex(class, "."); i > 0 {
		return class[:i]
	}
	return RootPackage
}

// CountCases returns the number of cases across all suites.
func CountCases(suites []Suite) int {
	n := 0
	for _, s := range suites {
		n += len(s.Cases)
	}
	return n
}
