package testresult

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackageOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class string
		want  string
	}{
		{"com.example.LoginTest", "com.example"},
		{"LoginTest", RootPackage},
		{".Hidden", RootPackage},
		{"", RootPackage},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PackageOf(tt.class), "class %q", tt.class)
	}
}

func TestCountCases(t *testing.T) {
	t.Parallel()

	suites := []Suite{
		{Cases: []Case{{Name: "a"}, {Name: "b"}}},
		{},
		{Cases: []Case{{Name: "c"}}},
	}
	assert.Equal(t, 3, CountCases(suites))
}
