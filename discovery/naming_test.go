package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type locationProbe struct{}

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, "a/b/c/plugins/my_plugin", QualifiedName("a/b/c", "my_plugin"))
	assert.Equal(t, "a/b/c/plugins/my_plugin", QualifiedName("a/b/c/", "my_plugin"))
}

func TestUnitOf(t *testing.T) {
	tests := []struct {
		name     string
		owner    string
		qualName string
		wantUnit string
		wantOK   bool
	}{
		{name: "direct unit", owner: "x/y", qualName: "x/y/plugins/foo", wantUnit: "foo", wantOK: true},
		{name: "other owner", owner: "x/z", qualName: "x/y/plugins/foo"},
		{name: "nested unit", owner: "x/y", qualName: "x/y/plugins/foo/bar"},
		{name: "location itself", owner: "x/y", qualName: "x/y/plugins/"},
		{name: "owner prefix only", owner: "x/y", qualName: "x/yy/plugins/foo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, ok := UnitOf(tt.owner, tt.qualName)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantUnit, unit)
		})
	}
}

func TestIsOrganizational(t *testing.T) {
	for _, unit := range []string{"", "__init__", "__init__.cpython", "_hidden", ".git", "doc", "all"} {
		assert.True(t, IsOrganizational(unit), unit)
	}
	for _, unit := range []string{"my_plugin", "echo", "init"} {
		assert.False(t, IsOrganizational(unit), unit)
	}
}

func TestLocationOf(t *testing.T) {
	want := "github.com/BaSui01/pluginfamily/discovery"
	assert.Equal(t, want, LocationOf(locationProbe{}))
	assert.Equal(t, want, LocationOf(&locationProbe{}))
	assert.Equal(t, want, LocationOf([]*locationProbe{}))
	assert.Equal(t, "", LocationOf(nil))
	assert.Equal(t, "", LocationOf(func() {}))
}
