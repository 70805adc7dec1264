package registry

import (
	"fmt"

	"github.com/BaSui01/pluginfamily/plugin"
)

// Descriptor records a registered plugin implementation.
type Descriptor[T plugin.Plugin] struct {
	// Code is the plugin's code, the registry key.
	Code string `json:"code"`
	// Unit is the fully qualified unit the plugin was loaded from.
	Unit string `json:"unit"`
	// Source names the discovery source.
	Source string `json:"source"`
	// Display is the display form of the probe instance, or Code when the
	// plugin was registered under a declared code.
	Display string `json:"display"`

	ctor plugin.Constructor
}

// New constructs a fresh plugin instance, forwarding args verbatim.
func (d Descriptor[T]) New(args ...any) (T, error) {
	var zero T
	v, err := construct(d.ctor, args)
	if err != nil {
		return zero, fmt.Errorf("construct plugin %s: %w", d.Code, err)
	}
	p, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("construct plugin %s: got %T: %w", d.Code, v, plugin.ErrIncomplete)
	}
	return p, nil
}

func construct(ctor plugin.Constructor, args []any) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructor panicked: %v", r)
		}
	}()
	return ctor(args...)
}

func codeOf[T plugin.Plugin](p T) (code string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("Code panicked: %v", r)
		}
	}()
	return p.Code(), nil
}
