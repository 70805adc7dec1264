// Package greeting is a plugin that cannot be built without a name. It
// declares its code at registration so the registry can index it without a
// successful zero-argument construction.
package greeting

import (
	"errors"
	"fmt"

	"github.com/BaSui01/pluginfamily/discovery"
	"github.com/BaSui01/pluginfamily/family"
)

// Code identifies the plugin.
const Code = "greeting"

// ErrNoName is returned when New gets no name.
var ErrNoName = errors.New("greeting: a name is required")

func init() {
	discovery.RegisterWithCode(family.Owner, "greeting", Code, New)
}

// Greeting greets one person.
type Greeting struct {
	Name string
}

// New builds a Greeting. The first argument is the name.
func New(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, ErrNoName
	}
	name, ok := args[0].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("greeting: name must be a non-empty string, got %v", args[0])
	}
	return &Greeting{Name: name}, nil
}

func (g *Greeting) Code() string { return Code }

func (g *Greeting) Describe() string { return "hello, " + g.Name }
