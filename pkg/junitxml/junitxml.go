// Package junitxml reads JUnit XML reports (Surefire, Gradle, go-junit-report)
// into test suites.
package junitxml

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	junit "github.com/joshdk/go-junit"

	"github.com/dkoosis/shotlink/pkg/testresult"
)

// Read parses one JUnit XML document.
func Read(r io.Reader) ([]testresult.Suite, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading junit xml: %w", err)
	}
	suites, err := junit.Ingest(data)
	if err != nil {
		return nil, fmt.Errorf("parsing junit xml: %w", err)
	}
	return convert(suites, ""), nil
}

// ReadFiles parses each report file in order. A suite whose report carries
// no captured output falls back to the Surefire side file
// <dir>/<suite>-output.txt when present.
func ReadFiles(paths []string) ([]testresult.Suite, error) {
	var out []testresult.Suite
	for _, path := range paths {
		suites, err := junit.IngestFile(path)
		if err != nil {
			return nil, fmt.Errorf("parsing junit xml %s: %w", path, err)
		}
		out = append(out, convert(suites, filepath.Dir(path))...)
	}
	return out, nil
}

// ReadPaths expands directories to the *.xml files they contain (sorted)
// and parses everything.
func ReadPaths(paths []string) ([]testresult.Suite, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading report path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := reportFiles(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return ReadFiles(files)
}

func reportFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".xml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing reports in %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func convert(in []junit.Suite, dir string) []testresult.Suite {
	var out []testresult.Suite
	for _, s := range in {
		out = appendSuite(out, s, dir)
	}
	return out
}

// appendSuite flattens nested suites; each keeps its own captured output.
func appendSuite(out []testresult.Suite, s junit.Suite, dir string) []testresult.Suite {
	if len(s.Tests) > 0 {
		suite := testresult.Suite{
			Name:   s.Name,
			Stdout: suiteOutput(s, dir),
			Cases:  make([]testresult.Case, 0, len(s.Tests)),
		}
		for _, t := range s.Tests {
			suite.Cases = append(suite.Cases, convertTest(s, t))
		}
		out = append(out, suite)
	}
	for _, child := range s.Suites {
		out = appendSuite(out, child, dir)
	}
	return out
}

// suiteOutput returns the suite's <system-out>, else its cases' output
// joined in order, else the Surefire side file.
func suiteOutput(s junit.Suite, dir string) string {
	if strings.TrimSpace(s.SystemOut) != "" {
		return s.SystemOut
	}
	var sb strings.Builder
	for _, t := range s.Tests {
		if t.SystemOut != "" {
			sb.WriteString(t.SystemOut)
			sb.WriteByte('\n')
		}
	}
	if sb.Len() > 0 {
		return sb.String()
	}
	if dir == "" || s.Name == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(dir, s.Name+"-output.txt"))
	if err != nil {
		return ""
	}
	return string(data)
}

func convertTest(s junit.Suite, t junit.Test) testresult.Case {
	class := t.Classname
	if class == "" {
		class = s.Name
	}
	c := testresult.Case{
		Package: testresult.PackageOf(class),
		Class:   class,
		Name:    t.Name,
	}
	switch t.Status {
	case junit.StatusSkipped:
		c.Outcome = testresult.Skipped
	case junit.StatusFailed, junit.StatusError:
		c.Outcome = testresult.Failed
		c.StackTrace = stackTrace(t)
	default:
		c.Outcome = testresult.Passed
	}
	return c
}

// stackTrace prefers the element body, which holds the full trace, over the
// one-line message attribute.
func stackTrace(t junit.Test) string {
	if t.Error != nil {
		if body := strings.TrimSpace(t.Error.Error()); body != "" {
			return body
		}
	}
	return t.Message
}
