package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/BaSui01/pluginfamily/plugin"
)

type catalogEntry struct {
	name     string
	ctor     plugin.Constructor
	codeHint string
}

// Catalog is a compile-time registration table of plugin units. Entries are
// kept in registration order and never removed.
type Catalog struct {
	mu      sync.RWMutex
	entries []catalogEntry
	index   map[string]int
}

// DefaultCatalog receives registrations made through the package-level
// Register functions.
var DefaultCatalog = NewCatalog()

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Register adds unit under owner's plugin location. Registering the same
// qualified name twice panics.
func (c *Catalog) Register(owner, unit string, ctor plugin.Constructor) {
	c.RegisterWithCode(owner, unit, "", ctor)
}

// RegisterWithCode is Register with a declared code, used when the
// constructor cannot run without arguments.
func (c *Catalog) RegisterWithCode(owner, unit, code string, ctor plugin.Constructor) {
	if ctor == nil {
		panic(fmt.Sprintf("discovery: nil constructor for unit %q", unit))
	}
	name := QualifiedName(owner, unit)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.index[name]; exists {
		panic(fmt.Sprintf("discovery: plugin unit %q already registered", name))
	}
	c.index[name] = len(c.entries)
	c.entries = append(c.entries, catalogEntry{name: name, ctor: ctor, codeHint: code})
}

// Units returns every registered qualified name in registration order.
func (c *Catalog) Units() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.name)
	}
	return names
}

// Name implements Source.
func (c *Catalog) Name() string { return "catalog" }

// Discover implements Source.
func (c *Catalog) Discover(ctx context.Context, owner string) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Candidate
	for _, e := range c.entries {
		unit, ok := UnitOf(owner, e.name)
		if !ok || IsOrganizational(unit) {
			continue
		}
		out = append(out, Candidate{
			Unit:     unit,
			Name:     e.name,
			Source:   c.Name(),
			New:      e.ctor,
			CodeHint: e.codeHint,
		})
	}
	return out, nil
}

// Register adds unit to DefaultCatalog. It is meant to be called from init().
func Register(owner, unit string, ctor plugin.Constructor) {
	DefaultCatalog.Register(owner, unit, ctor)
}

// RegisterWithCode adds unit with a declared code to DefaultCatalog.
func RegisterWithCode(owner, unit, code string, ctor plugin.Constructor) {
	DefaultCatalog.RegisterWithCode(owner, unit, code, ctor)
}
