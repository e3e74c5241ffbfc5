package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachments_ByScope(t *testing.T) {
	t.Parallel()

	tree := sampleTree()
	okDir := "com.ex/com.ex.Login/ok [Capabilities [{platform=WINDOWS}]]"

	tests := []struct {
		name string
		node Node
		want []string
	}{
		{"run", RunNode(), []string{
			okDir + "/ok_1_WINDOWS_.png",
			"org.other/org.other.Search/find/a.png",
			"org.other/org.other.Search/find/sub/b.png",
		}},
		{"package", PackageNode("org.other"), []string{
			"org.other/org.other.Search/find/a.png",
			"org.other/org.other.Search/find/sub/b.png",
		}},
		{"class", ClassNode("com.ex", "com.ex.Login"), []string{okDir + "/ok_1_WINDOWS_.png"}},
		{"case", CaseNode("com.ex", "com.ex.Login", "ok [Capabilities [{platform=WINDOWS}]]"), []string{okDir + "/ok_1_WINDOWS_.png"}},
		{"case without files", CaseNode("com.ex", "com.ex.Login", "bad"), nil},
		{"unknown package", PackageNode("nope"), nil},
		{"unknown class", ClassNode("com.ex", "nope"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tree.Attachments(tt.node))
		})
	}
}

func TestAttachments_IgnoresNamesBelowScope(t *testing.T) {
	t.Parallel()

	tree := sampleTree()
	n := PackageNode("org.other")
	n.Class = "ignored"
	n.Case = "ignored"

	assert.Len(t, tree.Attachments(n), 2)
}

func TestSafeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"com.example.Login", "com.example.Login"},
		{"a/b\\c:d", "a_b_c_d"},
		{"q?#%<>*\"|", "_________"},
		{"", "_"},
		{"..", "_"},
		{"cafe\u0301", "caf\u00e9"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeName(tt.in), "SafeName(%q)", tt.in)
	}
}

func TestScopeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "run", ScopeRun.String())
	assert.Equal(t, "case", ScopeCase.String())
	assert.Equal(t, "unknown", Scope(42).String())
}
