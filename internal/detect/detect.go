// Package detect sniffs report input to determine its format.
package detect

import (
	"bytes"
	"encoding/json"
)

// Format represents a recognized input format.
type Format int

const (
	Unknown    Format = iota
	JUnitXML          // JUnit / Surefire XML report
	GoTestJSON        // go test -json NDJSON stream
)

func (f Format) String() string {
	switch f {
	case JUnitXML:
		return "junit-xml"
	case GoTestJSON:
		return "go-test-json"
	default:
		return "unknown"
	}
}

// Sniff examines the first bytes of input to determine format.
// Returns the detected format. Input must contain at least the first line.
func Sniff(data []byte) Format {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return Unknown
	}

	switch data[0] {
	case '<':
		if isJUnitXML(data) {
			return JUnitXML
		}
	case '{':
		if isGoTestJSON(data) {
			return GoTestJSON
		}
	}
	return Unknown
}

// isJUnitXML looks for a testsuite or testcase element anywhere in the
// sniffed prefix.
func isJUnitXML(data []byte) bool {
	return bytes.Contains(data, []byte("<testsuite")) ||
		bytes.Contains(data, []byte("<testcase"))
}

func isGoTestJSON(data []byte) bool {
	// Find first complete line
	firstLine := data
	if end := bytes.IndexByte(data, '\n'); end >= 0 {
		firstLine = data[:end]
	}

	var event struct {
		Action  string `json:"Action"`
		Package string `json:"Package"`
	}
	if err := json.Unmarshal(firstLine, &event); err != nil {
		return false
	}

	validActions := map[string]bool{
		"start": true, "run": true, "pause": true, "cont": true,
		"pass": true, "bench": true, "fail": true, "output": true, "skip": true,
	}
	return validActions[event.Action]
}
