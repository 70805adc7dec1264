// Package discovery locates candidate plugin implementations for a registry.
//
// Every registry has an owner: the import path of the package that owns it.
// Candidate units live under the owner's "plugins" location and are named
//
//	<owner>/plugins/<unit>
//
// so two registries in one process never pick up each other's units, even
// when unit names collide. Units whose name marks them as organizational
// (doc, all, __init__, or a leading "_" or ".") are never candidates.
//
// Sources:
//
//   - Catalog: compile-time self-registration; plugin packages call Register
//     from init() and a blank-import list links them in.
//   - DirSource: runtime loading of Go shared objects (*.so) from a directory.
//   - ManifestSource: a YAML manifest selecting which units are enabled.
//   - Static and Multi: explicit lists and concurrent composition.
//
// Discovery only produces candidates. Validation and indexing belong to the
// registry package.
package discovery
