// Package fixtures provides discovery candidates covering the validation
// cases of a plugin registry.
package fixtures

import (
	"errors"
	"fmt"

	"github.com/BaSui01/pluginfamily/discovery"
	"github.com/BaSui01/pluginfamily/plugin"
)

// ErrNeedsArgs is returned by NeedsArgs candidates built without arguments.
var ErrNeedsArgs = errors.New("fixture: arguments required")

// Widget is a complete plugin. It records the arguments it was built with.
type Widget struct {
	ID   string
	Args []any
}

func (w *Widget) Code() string { return w.ID }

func (w *Widget) String() string { return fmt.Sprintf("widget(%s)", w.ID) }

// Unit pairs a unit name with its candidate.
type Unit struct {
	Name      string
	Candidate discovery.Candidate
}

// Complete builds a Widget with code.
func Complete(code string) Unit {
	return Unit{Name: code, Candidate: discovery.Candidate{
		New: func(args ...any) (any, error) {
			return &Widget{ID: code, Args: args}, nil
		},
	}}
}

// Incomplete declares itself incomplete through plugin.ErrIncomplete.
func Incomplete(unit string) Unit {
	return Unit{Name: unit, Candidate: discovery.Candidate{
		New: func(args ...any) (any, error) {
			return nil, fmt.Errorf("%s: %w", unit, plugin.ErrIncomplete)
		},
	}}
}

// NotAPlugin constructs a value that has no Code method.
func NotAPlugin(unit string) Unit {
	return Unit{Name: unit, Candidate: discovery.Candidate{
		New: func(args ...any) (any, error) { return struct{ Name string }{unit}, nil },
	}}
}

// EmptyCode constructs a plugin whose code is empty.
func EmptyCode(unit string) Unit {
	return Unit{Name: unit, Candidate: discovery.Candidate{
		New: func(args ...any) (any, error) { return &Widget{}, nil },
	}}
}

// NeedsArgs fails its zero-argument probe but declares code as its hint, so
// a skipping registry still indexes it.
func NeedsArgs(code string) Unit {
	return Unit{Name: code, Candidate: discovery.Candidate{
		CodeHint: code,
		New: func(args ...any) (any, error) {
			if len(args) == 0 {
				return nil, ErrNeedsArgs
			}
			return &Widget{ID: code, Args: args}, nil
		},
	}}
}

// Panicking panics when constructed.
func Panicking(unit string) Unit {
	return Unit{Name: unit, Candidate: discovery.Candidate{
		New: func(args ...any) (any, error) { panic("fixture: " + unit) },
	}}
}

// Source returns a Static source holding units in order.
func Source(units ...Unit) *discovery.Static {
	s := discovery.NewStatic("fixtures")
	for _, u := range units {
		s.Add(u.Name, u.Candidate)
	}
	return s
}
