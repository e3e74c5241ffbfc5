// Package manifest writes the diagnostics tree as a script the report page
// can load with a <script> tag:
//
//	var resultdata={"pkg":{"pkg.Class":{"case":{"errName":"SUCCESS",...}}}};
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dkoosis/shotlink/pkg/index"
)

// FileName is the manifest's name inside the storage root.
const FileName = "result.js"

const (
	prefix = "var resultdata="
	suffix = ";\n"
)

// Encode writes the manifest document for tree to w.
func Encode(w io.Writer, tree *index.Tree) error {
	data, err := Marshal(tree)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal returns the complete manifest document.
func Marshal(tree *index.Tree) ([]byte, error) {
	body, err := json.Marshal(tree.Manifest())
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(prefix) + len(body) + len(suffix))
	buf.WriteString(prefix)
	buf.Write(body)
	buf.WriteString(suffix)
	return buf.Bytes(), nil
}

// Write builds the document in memory and writes it to path in one call,
// creating the parent directory.
func Write(path string, tree *index.Tree) error {
	data, err := Marshal(tree)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Decode parses a manifest document back into its nested map form.
func Decode(data []byte) (map[string]map[string]map[string]map[string]string, error) {
	body := bytes.TrimSpace(data)
	if !bytes.HasPrefix(body, []byte(prefix)) {
		return nil, fmt.Errorf("manifest: missing %q prefix", prefix)
	}
	body = bytes.TrimSuffix(bytes.TrimPrefix(body, []byte(prefix)), []byte(";"))
	var out map[string]map[string]map[string]map[string]string
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return out, nil
}
