// Package registry validates discovered plugin candidates and indexes the
// valid ones by code.
//
// A Registry is an explicit object owned by the application's composition
// root. It is typed by the capability it hands out:
//
//	reg := registry.New[shapes.Shape](shapes.Owner, registry.WithLogger(logger))
//	if err := reg.Initialise(ctx); err != nil {
//		return err
//	}
//	s, ok, err := reg.Instantiate(ctx, "circle", 2.0)
//
// Initialise runs discovery and registration at most once until Reset.
// Registration rebuilds the whole index: each candidate is probed with a
// zero-argument construction, candidates that do not yield a T with a
// non-empty code are logged and skipped, and the constructor (never the
// probe instance) is stored under the plugin's code. When two plugins share
// a code the last one wins and a warning is logged.
//
// Queries are safe for concurrent use. A rebuilt index replaces the old one
// in a single step, so readers see either the old or the new index.
package registry
