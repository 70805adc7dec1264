package discovery

import (
	"context"
	"fmt"

	"github.com/BaSui01/pluginfamily/plugin"
)

// Candidate is a loaded, not yet validated, plugin implementation.
type Candidate struct {
	// Unit is the short unit name, e.g. "my_plugin".
	Unit string
	// Name is the fully qualified unit name, see QualifiedName.
	Name string
	// Source names the Source that produced the candidate.
	Source string
	// New constructs a plugin value.
	New plugin.Constructor
	// CodeHint is the code declared outside the constructor, if any.
	CodeHint string
}

// Source produces candidates for a registry owner.
type Source interface {
	Name() string
	// Discover returns the candidates visible to owner. A missing location
	// yields no candidates and no error.
	Discover(ctx context.Context, owner string) ([]Candidate, error)
}

// LoadError reports a candidate unit that could not be loaded.
type LoadError struct {
	Unit string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load plugin unit %s (%s): %v", e.Unit, e.Path, e.Err)
	}
	return fmt.Sprintf("load plugin unit %s: %v", e.Unit, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
