package screenshot

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrArtifactDirMissing means the run directory named by the log token
	// does not exist under the artifact root.
	ErrArtifactDirMissing = errors.New("artifact directory does not exist")
	// ErrTokenOutsideRoot means the log token climbs out of the artifact
	// root (absolute, or with ".." segments).
	ErrTokenOutsideRoot = errors.New("artifact directory outside the artifact root")
	// ErrBadPattern wraps an invalid glob.
	ErrBadPattern = errors.New("invalid screenshot pattern")
)

// Match returns the files under dir matching pattern, as slash-separated
// paths relative to dir, in lexical order. Matching is case-sensitive.
func Match(dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", dir, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Scanner resolves run directories under an artifact root and copies
// matching screenshots out of them. It holds no state between calls.
type Scanner struct {
	Root string
}

// NewScanner returns a scanner rooted at root.
func NewScanner(root string) *Scanner {
	return &Scanner{Root: root}
}

// Dir resolves a log token (which may use '\' separators) under the root.
// Tokens that would leave the root return ErrTokenOutsideRoot.
func (s *Scanner) Dir(token string) (string, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(token, `\`, "/"))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrTokenOutsideRoot, token)
	}
	return filepath.Join(s.Root, rel), nil
}

// Collect copies every file matching pattern under Dir(token) into dest,
// keeping relative subpaths, and returns the names it copied. Existing
// copies are overwritten.
//
// A missing run directory returns no names and ErrArtifactDirMissing; a
// token escaping the root returns no names and ErrTokenOutsideRoot.
// Files that fail to copy are left out of the result and their errors are
// joined into the returned error; the remaining files are still copied.
func (s *Scanner) Collect(token, pattern, dest string) ([]string, error) {
	dir, err := s.Dir(token)
	if err != nil {
		return []string{}, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, fmt.Errorf("%w: %s", ErrArtifactDirMissing, dir)
		}
		return []string{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return []string{}, fmt.Errorf("%w: %s is not a directory", ErrArtifactDirMissing, dir)
	}

	matches, err := Match(dir, pattern)
	if err != nil {
		return []string{}, err
	}

	copied := make([]string, 0, len(matches))
	var errs []error
	for _, rel := range matches {
		src := filepath.Join(dir, filepath.FromSlash(rel))
		dst := filepath.Join(dest, filepath.FromSlash(rel))
		if err := copyFile(src, dst); err != nil {
			errs = append(errs, err)
			continue
		}
		copied = append(copied, rel)
	}
	return copied, errors.Join(errs...)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	return nil
}
