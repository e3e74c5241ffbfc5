// Package index holds the package → class → case tree built by a
// correlation pass. Each case node carries its matched screenshot files and
// its manifest attributes, so both output views come from one structure.
package index

// Tree is the root of a correlation index. The zero value is not usable;
// call New.
type Tree struct {
	Packages []*Package
	byName   map[string]*Package
}

// Package groups classes.
type Package struct {
	Name    string
	Classes []*Class
	byName  map[string]*Class
}

// Class groups cases.
type Class struct {
	Name   string
	Cases  []*Case
	byName map[string]*Case
}

// Case is a leaf: one test case and what was correlated with it.
type Case struct {
	Name       string
	Files      []string          // matched screenshot names, scanner order
	Attributes map[string]string // capabilities plus errName/errLocation
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{byName: make(map[string]*Package)}
}

// Case returns the node for (pkg, cls, name), creating it and any missing
// parents on first use. created is false when the node already existed.
func (t *Tree) Case(pkg, cls, name string) (c *Case, created bool) {
	p, ok := t.byName[pkg]
	if !ok {
		p = &Package{Name: pkg, byName: make(map[string]*Class)}
		t.byName[pkg] = p
		t.Packages = append(t.Packages, p)
	}
	k, ok := p.byName[cls]
	if !ok {
		k = &Class{Name: cls, byName: make(map[string]*Case)}
		p.byName[cls] = k
		p.Classes = append(p.Classes, k)
	}
	c, ok = k.byName[name]
	if !ok {
		c = &Case{Name: name, Files: []string{}, Attributes: map[string]string{}}
		k.byName[name] = c
		k.Cases = append(k.Cases, c)
		return c, true
	}
	return c, false
}

// Lookup finds an existing case without creating it.
func (t *Tree) Lookup(pkg, cls, name string) (*Case, bool) {
	p, ok := t.byName[pkg]
	if !ok {
		return nil, false
	}
	k, ok := p.byName[cls]
	if !ok {
		return nil, false
	}
	c, ok := k.byName[name]
	return c, ok
}

// Len returns the number of case nodes.
func (t *Tree) Len() int {
	n := 0
	for _, p := range t.Packages {
		for _, k := range p.Classes {
			n += len(k.Cases)
		}
	}
	return n
}

// Files returns the correlation index view: pkg → class → case → files.
func (t *Tree) Files() map[string]map[string]map[string][]string {
	out := make(map[string]map[string]map[string][]string, len(t.Packages))
	for _, p := range t.Packages {
		classes := make(map[string]map[string][]string, len(p.Classes))
		for _, k := range p.Classes {
			cases := make(map[string][]string, len(k.Cases))
			for _, c := range k.Cases {
				cases[c.Name] = append([]string{}, c.Files...)
			}
			classes[k.Name] = cases
		}
		out[p.Name] = classes
	}
	return out
}

// Manifest returns the manifest view: pkg → class → case → attributes.
func (t *Tree) Manifest() map[string]map[string]map[string]map[string]string {
	out := make(map[string]map[string]map[string]map[string]string, len(t.Packages))
	for _, p := range t.Packages {
		classes := make(map[string]map[string]map[string]string, len(p.Classes))
		for _, k := range p.Classes {
			cases := make(map[string]map[string]string, len(k.Cases))
			for _, c := range k.Cases {
				attrs := make(map[string]string, len(c.Attributes))
				for key, v := range c.Attributes {
					attrs[key] = v
				}
				cases[c.Name] = attrs
			}
			classes[k.Name] = cases
		}
		out[p.Name] = classes
	}
	return out
}

// FileCount returns the total number of matched files.
func (t *Tree) FileCount() int {
	n := 0
	for _, p := range t.Packages {
		for _, k := range p.Classes {
			for _, c := range k.Cases {
				n += len(c.Files)
			}
		}
	}
	return n
}
