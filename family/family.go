// Package family is a concrete plugin family. Plugins live under
// family/plugins and register themselves with the default catalog; import
// family/all to link every one of them in.
package family

import (
	"github.com/BaSui01/pluginfamily/discovery"
	"github.com/BaSui01/pluginfamily/factory"
	"github.com/BaSui01/pluginfamily/plugin"
	"github.com/BaSui01/pluginfamily/registry"
)

// Plugin is the capability every member of the family provides.
type Plugin interface {
	plugin.Plugin
	// Describe returns a short human-readable description.
	Describe() string
}

type marker struct{}

// Owner is the qualified location plugin units register under.
var Owner = discovery.LocationOf(marker{})

// NewRegistry creates an uninitialised registry for the family.
func NewRegistry(opts ...registry.Option) *registry.Registry[Plugin] {
	return registry.New[Plugin](Owner, opts...)
}

// New creates a Factory for the family. Without options it discovers plugins
// from discovery.DefaultCatalog.
func New(opts ...registry.Option) *factory.Factory[Plugin] {
	return factory.New(NewRegistry(opts...))
}
