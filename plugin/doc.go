// Package plugin defines the capability contract every pluginfamily plugin
// satisfies.
//
// A plugin is any value with a stable, non-empty Code. Its display form
// defaults to that code unless the plugin implements fmt.Stringer:
//
//	type Circle struct{ plugin.Named }
//
//	func NewCircle(args ...any) (any, error) {
//		return &Circle{Named: "circle"}, nil
//	}
//
// Constructors receive the caller's arguments verbatim. Keyword-style
// arguments are passed as a Kwargs value among the positional ones.
package plugin
