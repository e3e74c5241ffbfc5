package index

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Tree {
	t := New()
	c, _ := t.Case("com.ex", "com.ex.Login", "ok [Capabilities [{platform=WINDOWS}]]")
	c.Files = []string{"ok_1_WINDOWS_.png"}
	c.Attributes["platform"] = "WINDOWS"
	c2, _ := t.Case("com.ex", "com.ex.Login", "bad")
	c2.Attributes["errName"] = "AssertionError"
	c3, _ := t.Case("org.other", "org.other.Search", "find")
	c3.Files = []string{"a.png", "sub/b.png"}
	return t
}

func TestCase_CreatesOnFirstUse(t *testing.T) {
	t.Parallel()

	tree := New()
	c, created := tree.Case("p", "p.C", "x")
	require.True(t, created)
	c.Files = append(c.Files, "f.png")

	again, created := tree.Case("p", "p.C", "x")

	assert.False(t, created)
	assert.Same(t, c, again)
	assert.Len(t, tree.Packages, 1)
	assert.Equal(t, 1, tree.Len())
}

func TestCase_PreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	tree := New()
	tree.Case("b", "b.X", "2")
	tree.Case("a", "a.X", "1")
	tree.Case("b", "b.X", "1")

	require.Len(t, tree.Packages, 2)
	assert.Equal(t, "b", tree.Packages[0].Name)
	assert.Equal(t, "a", tree.Packages[1].Name)
	assert.Equal(t, "2", tree.Packages[0].Classes[0].Cases[0].Name)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	tree := sampleTree()

	c, ok := tree.Lookup("com.ex", "com.ex.Login", "bad")
	require.True(t, ok)
	assert.Equal(t, "AssertionError", c.Attributes["errName"])

	_, ok = tree.Lookup("com.ex", "com.ex.Missing", "bad")
	assert.False(t, ok)
	assert.Equal(t, 3, tree.Len(), "Lookup must not create nodes")
}

func TestFilesView(t *testing.T) {
	t.Parallel()

	got := sampleTree().Files()

	want := map[string]map[string]map[string][]string{
		"com.ex": {"com.ex.Login": {
			"ok [Capabilities [{platform=WINDOWS}]]": {"ok_1_WINDOWS_.png"},
			"bad":                                    {},
		}},
		"org.other": {"org.other.Search": {"find": {"a.png", "sub/b.png"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Files() mismatch (-want +got):\n%s", diff)
	}
}

func TestManifestView(t *testing.T) {
	t.Parallel()

	got := sampleTree().Manifest()

	want := map[string]map[string]map[string]map[string]string{
		"com.ex": {"com.ex.Login": {
			"ok [Capabilities [{platform=WINDOWS}]]": {"platform": "WINDOWS"},
			"bad":                                    {"errName": "AssertionError"},
		}},
		"org.other": {"org.other.Search": {"find": {}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Manifest() mismatch (-want +got):\n%s", diff)
	}
}

func TestFileCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, sampleTree().FileCount())
	assert.Equal(t, 0, New().FileCount())
}
