package testjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dkoosis/shotlink/pkg/testresult"
)

// ParseStream parses go test -json NDJSON from a reader, line by line.
// Returns the suites, the number of malformed lines skipped, and any error.
//
// Each package becomes a suite whose captured output is everything the
// package printed. The class is the import path and the package its parent
// path, so screenshots land under <parent>/<import path>/<test>/.
func ParseStream(r io.Reader) ([]testresult.Suite, int, error) {
	agg := newAggregator()
	scanner := bufio.NewScanner(r)
	// Allow large lines for verbose test output
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var malformed int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event TestEvent
		if err := json.Unmarshal(line, &event); err != nil {
			malformed++
			continue
		}
		agg.processEvent(event)
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed, fmt.Errorf("scanning test output: %w", err)
	}
	return agg.results(), malformed, nil
}

// ParseBytes is a convenience for parsing from a byte slice.
func ParseBytes(data []byte) ([]testresult.Suite, int, error) {
	return ParseStream(bytes.NewReader(data))
}

type aggregator struct {
	packages map[string]*pkgState
	order    []string
}

type pkgState struct {
	name      string
	output    strings.Builder
	tests     map[string]*testState
	testOrder []string
	// Track output for tests in progress
	outputBuf map[string][]string
}

type testState struct {
	name    string
	outcome testresult.Outcome
	output  []string
}

func newAggregator() *aggregator {
	return &aggregator{
		packages: make(map[string]*pkgState),
	}
}

func (a *aggregator) getOrCreate(name string) *pkgState {
	if pkg, ok := a.packages[name]; ok {
		return pkg
	}
	pkg := &pkgState{
		name:      name,
		tests:     make(map[string]*testState),
		outputBuf: make(map[string][]string),
	}
	a.packages[name] = pkg
	a.order = append(a.order, name)
	return pkg
}

func (a *aggregator) processEvent(e TestEvent) {
	pkg := a.getOrCreate(e.Package)

	switch e.Action {
	case ActionPass:
		if e.Test != "" {
			pkg.getOrCreateTest(e.Test).outcome = testresult.Passed
		}

	case ActionFail:
		if e.Test != "" {
			ts := pkg.getOrCreateTest(e.Test)
			ts.outcome = testresult.Failed
			ts.output = pkg.outputBuf[e.Test]
		}

	case ActionSkip:
		if e.Test != "" {
			pkg.getOrCreateTest(e.Test).outcome = testresult.Skipped
		}

	case ActionOutput:
		pkg.output.WriteString(e.Output)
		output := strings.TrimRight(e.Output, "\n")
		if output == "" || e.Test == "" {
			return
		}
		if isFramingLine(output) {
			return
		}
		pkg.outputBuf[e.Test] = append(pkg.outputBuf[e.Test], strings.TrimSpace(output))
	}
}

// isFramingLine reports lines go test prints around every test.
func isFramingLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range []string{"=== RUN", "=== PAUSE", "=== CONT", "--- PASS", "--- FAIL", "--- SKIP"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

func (pkg *pkgState) getOrCreateTest(name string) *testState {
	if ts, ok := pkg.tests[name]; ok {
		return ts
	}
	ts := &testState{name: name}
	pkg.tests[name] = ts
	pkg.testOrder = append(pkg.testOrder, name)
	return ts
}

func (a *aggregator) results() []testresult.Suite {
	suites := make([]testresult.Suite, 0, len(a.order))
	for _, name := range a.order {
		pkg := a.packages[name]
		// Skip packages with no test activity
		if len(pkg.testOrder) == 0 {
			continue
		}

		s := testresult.Suite{
			Name:   pkg.name,
			Stdout: pkg.output.String(),
			Cases:  make([]testresult.Case, 0, len(pkg.testOrder)),
		}
		for _, testName := range pkg.testOrder {
			ts := pkg.tests[testName]
			c := testresult.Case{
				Package: packageOf(pkg.name),
				Class:   pkg.name,
				Name:    ts.name,
				Outcome: ts.outcome,
			}
			if ts.outcome == testresult.Failed {
				c.StackTrace = strings.Join(ts.output, "\n")
			}
			s.Cases = append(s.Cases, c)
		}
		suites = append(suites, s)
	}
	return suites
}

// packageOf returns the parent of an import path.
func packageOf(importPath string) string {
	if dir := path.Dir(importPath); dir != "." {
		return dir
	}
	return testresult.RootPackage
}
