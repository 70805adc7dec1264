package discovery

import (
	"reflect"
	"strings"
)

// PluginsDir is the location, relative to a registry owner, holding its units.
const PluginsDir = "plugins"

// QualifiedName derives the fully qualified name of unit for the registry
// owned by owner.
func QualifiedName(owner, unit string) string {
	return strings.TrimSuffix(owner, "/") + "/" + PluginsDir + "/" + unit
}

// UnitOf reports the unit name if name is a direct unit of owner's plugin
// location.
func UnitOf(owner, name string) (string, bool) {
	prefix := QualifiedName(owner, "")
	if !strings.HasPrefix(name, prefix) {
		return "", false
	}
	unit := strings.TrimPrefix(name, prefix)
	if unit == "" || strings.Contains(unit, "/") {
		return "", false
	}
	return unit, true
}

// IsOrganizational reports whether unit is an internal or organizational
// unit rather than a plugin.
func IsOrganizational(unit string) bool {
	switch {
	case unit == "":
		return true
	case strings.Contains(unit, "__init__"):
		return true
	case strings.HasPrefix(unit, "_"), strings.HasPrefix(unit, "."):
		return true
	case unit == "doc", unit == "all":
		return true
	}
	return false
}

// LocationOf returns the import path of the package declaring v's type.
// Pointer, slice and map types are unwrapped to their element type.
func LocationOf(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Name() == "" {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
			t = t.Elem()
		default:
			return ""
		}
	}
	if t == nil {
		return ""
	}
	return t.PkgPath()
}
