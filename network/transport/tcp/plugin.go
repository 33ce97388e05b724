package tcp

import (
	"errors"

	"github.com/linchenxuan/connhost/plugin"
)

// streamPlugin wraps a *TCPStreamFactory so it satisfies plugin.Plugin,
// letting a transportmgr.Manager retrieve the concrete factory back out of
// a plugin.Manager after setup.
type streamPlugin struct {
	factory *TCPStreamFactory
}

// FactoryName identifies this plugin instance to the plugin manager.
func (p *streamPlugin) FactoryName() string { return "tcp_stream" }

// Factory returns the underlying stream transport factory for registration
// with a transportmgr.Manager.
func (p *streamPlugin) Factory() *TCPStreamFactory { return p.factory }

// pluginFactory adapts TCPStreamFactory construction to plugin.Factory.
type pluginFactory struct{}

var _ plugin.Factory = (*pluginFactory)(nil)

// NewPluginFactory creates a TCP stream transport plugin factory.
func NewPluginFactory() plugin.Factory { return &pluginFactory{} }

// Type returns the plugin type.
func (f *pluginFactory) Type() plugin.Type { return plugin.CSTransport }

// Name returns the factory name used by plugin config.
func (f *pluginFactory) Name() string { return "tcp_stream" }

// ConfigType returns the config type for mapstructure decoding.
func (f *pluginFactory) ConfigType() any { return &TCPStreamCfg{} }

// Setup validates cfg and constructs the stream factory plugin instance.
func (f *pluginFactory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*TCPStreamCfg)
	if !ok {
		return nil, errors.New("tcp stream setup failed: invalid config type")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &streamPlugin{factory: NewTCPStreamFactory(cfg)}, nil
}

// Destroy is a no-op: TCPStreamFactory holds no resources of its own, only
// the listeners it has already handed off to a transportmgr.Manager.
func (f *pluginFactory) Destroy(plugin.Plugin) {}
