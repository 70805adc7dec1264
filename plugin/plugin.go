package plugin

import (
	"errors"
	"fmt"
)

// ErrIncomplete marks a constructor that cannot produce a value satisfying
// the capability contract. Validation skips such candidates.
var ErrIncomplete = errors.New("plugin does not implement the capability contract")

// Plugin is the capability contract.
type Plugin interface {
	// Code returns the unique code identifying this plugin. It must be
	// stable and non-empty.
	Code() string
}

// Constructor builds a new plugin value from an opaque argument list.
// The returned value is checked against the registry's capability type.
type Constructor func(args ...any) (any, error)

// Kwargs carries keyword-style arguments through a Constructor.
type Kwargs map[string]any

// Named is an embeddable helper implementing Plugin and fmt.Stringer from a
// fixed code.
type Named string

// Code returns the stored code.
func (n Named) Code() string { return string(n) }

// String returns the stored code.
func (n Named) String() string { return string(n) }

// Display returns the human-readable form of p: p.String() when p
// implements fmt.Stringer, p.Code() otherwise.
func Display(p Plugin) string {
	if p == nil {
		return ""
	}
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return p.Code()
}

// SplitArgs separates keyword arguments from positional ones. Later Kwargs
// values override earlier ones for the same key.
func SplitArgs(args []any) ([]any, Kwargs) {
	var (
		positional []any
		kwargs     Kwargs
	)
	for _, a := range args {
		kw, ok := a.(Kwargs)
		if !ok {
			positional = append(positional, a)
			continue
		}
		if kwargs == nil {
			kwargs = make(Kwargs, len(kw))
		}
		for k, v := range kw {
			kwargs[k] = v
		}
	}
	return positional, kwargs
}

// Func adapts a typed zero-argument constructor into a Constructor.
func Func[T any](fn func() T) Constructor {
	return func(args ...any) (any, error) {
		return fn(), nil
	}
}
