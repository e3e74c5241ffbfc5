package render

import (
	"encoding/json"

	"github.com/dkoosis/shotlink/internal/version"
)

// JSON renders summaries as structured JSON for automation.
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON {
	return &JSON{}
}

type jsonOutput struct {
	Version string   `json:"version"`
	Summary *Summary `json:"summary"`
}

// Render formats s as indented JSON.
func (j *JSON) Render(s *Summary) string {
	out := jsonOutput{Version: version.Version, Summary: s}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		errJSON, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(errJSON)
	}
	return string(data) + "\n"
}
