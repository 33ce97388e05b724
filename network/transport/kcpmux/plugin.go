package kcpmux

import (
	"errors"

	"github.com/linchenxuan/connhost/plugin"
)

// muxPlugin wraps a *Factory so it satisfies plugin.Plugin, letting a
// transportmgr.Manager retrieve the concrete factory back out of a
// plugin.Manager after setup.
type muxPlugin struct {
	factory *Factory
}

// FactoryName identifies this plugin instance to the plugin manager.
func (p *muxPlugin) FactoryName() string { return "kcp_mux" }

// Factory returns the underlying multiplexed transport factory for
// registration with a transportmgr.Manager.
func (p *muxPlugin) Factory() *Factory { return p.factory }

// pluginFactory adapts Factory construction to plugin.Factory.
type pluginFactory struct{}

var _ plugin.Factory = (*pluginFactory)(nil)

// NewPluginFactory creates a KCP multiplexed transport plugin factory.
func NewPluginFactory() plugin.Factory { return &pluginFactory{} }

// Type returns the plugin type.
func (f *pluginFactory) Type() plugin.Type { return plugin.CSTransport }

// Name returns the factory name used by plugin config.
func (f *pluginFactory) Name() string { return "kcp_mux" }

// ConfigType returns the config type for mapstructure decoding.
func (f *pluginFactory) ConfigType() any { return &KCPMuxCfg{} }

// Setup validates cfg and constructs the multiplexed factory plugin
// instance.
func (f *pluginFactory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*KCPMuxCfg)
	if !ok {
		return nil, errors.New("kcp mux setup failed: invalid config type")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &muxPlugin{factory: NewFactory(cfg)}, nil
}

// Destroy is a no-op: Factory holds no resources of its own, only the
// listeners it has already handed off to a transportmgr.Manager.
func (f *pluginFactory) Destroy(plugin.Plugin) {}
