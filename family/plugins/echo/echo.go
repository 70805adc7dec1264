// Package echo is a plugin that repeats the arguments it was built with.
//
// Positional arguments become the echoed words. A plugin.Kwargs argument may
// set "prefix" (string) and "upper" (bool).
package echo

import (
	"fmt"
	"strings"

	"github.com/BaSui01/pluginfamily/discovery"
	"github.com/BaSui01/pluginfamily/family"
	"github.com/BaSui01/pluginfamily/plugin"
)

// Code identifies the plugin.
const Code = "echo"

func init() {
	discovery.Register(family.Owner, "echo", New)
}

// Echo holds the words it repeats.
type Echo struct {
	Words  []string
	Prefix string
	Upper  bool
}

// New builds an Echo from args.
func New(args ...any) (any, error) {
	positional, kwargs := plugin.SplitArgs(args)

	e := &Echo{Prefix: "echo:"}
	for _, a := range positional {
		e.Words = append(e.Words, fmt.Sprint(a))
	}

	if v, ok := kwargs["prefix"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("echo: prefix must be a string, got %T", v)
		}
		e.Prefix = s
	}
	if v, ok := kwargs["upper"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("echo: upper must be a bool, got %T", v)
		}
		e.Upper = b
	}
	return e, nil
}

func (e *Echo) Code() string { return Code }

// Describe returns the echoed text.
func (e *Echo) Describe() string {
	text := strings.Join(e.Words, " ")
	if e.Upper {
		text = strings.ToUpper(text)
	}
	if e.Prefix == "" {
		return text
	}
	return strings.TrimSpace(e.Prefix + " " + text)
}

func (e *Echo) String() string {
	return fmt.Sprintf("echo(%d words)", len(e.Words))
}
