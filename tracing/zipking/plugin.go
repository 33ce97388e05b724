package zipking

import (
	"errors"

	"github.com/linchenxuan/connhost/log"
	"github.com/linchenxuan/connhost/plugin"
)

// Type returns the plugin type.
func (r *ZipkinReporter) Type() plugin.Type {
	return plugin.Tracer
}

// Name returns the name of the plugin implementation.
func (r *ZipkinReporter) Name() string {
	return "zipkin"
}

// ConfigType returns an empty struct that represents the plugin's configuration.
// This struct will be populated by the manager using mapstructure.
func (r *ZipkinReporter) ConfigType() any {
	return &ZipkinReporterConfig{}
}

// Setup initializes a plugin instance based on the configuration.
func (r *ZipkinReporter) Setup(cfgAny any) (any, error) {
	cfg, ok := cfgAny.(*ZipkinReporterConfig)
	if !ok {
		log.Fatal().Msg("zipkin setup failed")
		return nil, errors.New("zipkin setup failed")
	}

	// newZipkinReporter already starts the background flush loop
	p := newZipkinReporter(cfg)
	p.cfg = cfg

	return p, nil
}

func (r *ZipkinReporter) Destroy() {

}
