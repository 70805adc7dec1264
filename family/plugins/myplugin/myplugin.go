// Package myplugin is the smallest possible member of the plugin family.
package myplugin

import (
	"github.com/BaSui01/pluginfamily/discovery"
	"github.com/BaSui01/pluginfamily/family"
	"github.com/BaSui01/pluginfamily/plugin"
)

// Code identifies the plugin.
const Code = "my_plugin"

func init() {
	discovery.Register(family.Owner, "myplugin", plugin.Func(New))
}

// MyPlugin does nothing beyond describing itself.
type MyPlugin struct{}

// New returns a MyPlugin.
func New() family.Plugin { return MyPlugin{} }

func (MyPlugin) Code() string { return Code }

func (MyPlugin) Describe() string { return "a plugin that only knows its own name" }
