package myplugin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/pluginfamily/family"
	"github.com/BaSui01/pluginfamily/family/plugins/myplugin"
)

// Only this plugin is linked into the test binary.
func TestSinglePluginFamily(t *testing.T) {
	f := family.New()
	ctx := context.Background()

	codes, err := f.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"my_plugin"}, codes)

	p, ok, err := f.Get(ctx, myplugin.Code)
	require.NoError(t, err)
	require.True(t, ok)
	assert.IsType(t, myplugin.MyPlugin{}, p)

	_, ok, err = f.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}
