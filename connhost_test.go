package connhost

import (
	"testing"

	"github.com/linchenxuan/connhost/plugin"
	"github.com/linchenxuan/connhost/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew verifies that calling New successfully creates a default
// Connhost instance.
func TestNew(t *testing.T) {
	app, err := New()
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.NotNil(t, app.Logger, "Default logger should not be nil")
	assert.NotNil(t, app.PluginManager, "Default plugin manager should not be nil")
	assert.NotNil(t, app.Tracer, "Default tracer should not be nil")
}

// TestConnhostStop verifies that the Stop method runs without panicking.
func TestConnhostStop(t *testing.T) {
	app, err := New()
	require.NoError(t, err)
	require.NotNil(t, app)

	// Just ensure Stop() doesn't panic
	assert.NotPanics(t, func() {
		app.Stop()
	})
}

// TestBuiltInTCPFactoryRegistration verifies that New wires built-in transport
// factories into the plugin manager and that TCP plugin setup works with config decoding.
func TestBuiltInTCPFactoryRegistration(t *testing.T) {
	app, err := New()
	require.NoError(t, err)
	require.NotNil(t, app)

	conf := map[string]any{
		string(plugin.CSTransport): map[string]any{
			"tcp_stream": map[string]any{
				"tag":           plugin.DefaultInsName,
				"idleTimeout":   30,
				"maxBufferSize": 4096,
				"reusePort":     false,
			},
		},
	}

	err = app.PluginManager.SetupPlugins(conf)
	require.NoError(t, err)

	p, err := app.PluginManager.GetDefaultPlugin(plugin.CSTransport)
	require.NoError(t, err)
	require.NotNil(t, p)
}

// TestNewWithIdentity verifies that the identity options establish the
// process-wide entity/version state New documents.
func TestNewWithIdentity(t *testing.T) {
	app, err := New(
		WithEntityID("1.0.10.1"),
		WithFrontendEntityID("2.0.5.1"),
		WithSvrVersion(42),
		WithSetVersion(7),
	)
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.Equal(t, "1.0.10.1", runtime.GetEntityIDStr())
	assert.Equal(t, 1, runtime.GetAreaID())
	assert.Equal(t, 10, runtime.GetFuncID())
	assert.Equal(t, 1, runtime.GetInsID())
	assert.NotZero(t, runtime.GetFrontendEntityID())
	assert.Equal(t, uint32(42), runtime.GetSvrVersion())
	assert.Equal(t, uint64(7), runtime.GetSetVersion())
}

// TestNewWithIdentity_RejectsInvalidEntityID verifies a malformed entity id
// surfaces as an error from New rather than panicking or being ignored.
func TestNewWithIdentity_RejectsInvalidEntityID(t *testing.T) {
	_, err := New(WithEntityID("not-an-entity-id"))
	assert.Error(t, err)
}
