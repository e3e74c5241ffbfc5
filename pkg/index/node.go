package index

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Scope is the depth of a report node.
type Scope int

const (
	ScopeRun Scope = iota
	ScopePackage
	ScopeClass
	ScopeCase
)

func (s Scope) String() string {
	switch s {
	case ScopeRun:
		return "run"
	case ScopePackage:
		return "package"
	case ScopeClass:
		return "class"
	case ScopeCase:
		return "case"
	default:
		return "unknown"
	}
}

// Node addresses a report node. Only the names up to Scope are read.
type Node struct {
	Scope   Scope
	Package string
	Class   string
	Case    string
}

// RunNode addresses the whole run.
func RunNode() Node { return Node{Scope: ScopeRun} }

// PackageNode addresses one package.
func PackageNode(pkg string) Node { return Node{Scope: ScopePackage, Package: pkg} }

// ClassNode addresses one class.
func ClassNode(pkg, cls string) Node { return Node{Scope: ScopeClass, Package: pkg, Class: cls} }

// CaseNode addresses one case.
func CaseNode(pkg, cls, name string) Node {
	return Node{Scope: ScopeCase, Package: pkg, Class: cls, Case: name}
}

// Attachments returns the storage-relative paths of every file under n, as
// "<package>/<class>/<case>/<file>". Unknown names yield nil.
func (t *Tree) Attachments(n Node) []string {
	var out []string
	for _, p := range t.Packages {
		if n.Scope >= ScopePackage && p.Name != n.Package {
			continue
		}
		for _, k := range p.Classes {
			if n.Scope >= ScopeClass && k.Name != n.Class {
				continue
			}
			for _, c := range k.Cases {
				if n.Scope >= ScopeCase && c.Name != n.Case {
					continue
				}
				dir := CaseDir(p.Name, k.Name, c.Name)
				for _, f := range c.Files {
					out = append(out, path.Join(dir, f))
				}
			}
		}
	}
	return out
}

// CaseDir returns the slash-separated storage directory of a case relative
// to the storage root.
func CaseDir(pkg, cls, name string) string {
	return path.Join(SafeName(pkg), SafeName(cls), SafeName(name))
}

var unsafeChars = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "?", "_", "#", "_",
	"%", "_", "<", "_", ">", "_", "*", "_", `"`, "_", "|", "_",
)

// SafeName turns a package, class or case name into a single path segment.
func SafeName(s string) string {
	s = unsafeChars.Replace(norm.NFC.String(s))
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
