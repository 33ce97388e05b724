package connhost

import (
	"fmt"

	"github.com/linchenxuan/connhost/log"
	"github.com/linchenxuan/connhost/network/transport/kcpmux"
	"github.com/linchenxuan/connhost/network/transport/tcp"
	"github.com/linchenxuan/connhost/plugin"
	"github.com/linchenxuan/connhost/runtime"
	"github.com/linchenxuan/connhost/tracing"
)

// identityConfig holds the process identity New optionally establishes
// before any endpoint is bound, so transport bind/unbind logs and
// fingerprints can be traced back to the entity that owns them.
type identityConfig struct {
	entityID         string
	frontendEntityID string
	svrVersion       uint32
	setVersion       uint64
}

// Option configures New.
type Option func(*identityConfig)

// WithEntityID sets this process's own dot-decimal entity id (e.g.
// "1.0.10.1"), establishing runtime.GetEntityIDStr/GetAreaID/GetSetID/
// GetFuncID/GetInsID for the lifetime of the process.
func WithEntityID(entityIDStr string) Option {
	return func(c *identityConfig) { c.entityID = entityIDStr }
}

// WithFrontendEntityID sets the entity id of the frontend server this
// process routes through, if any.
func WithFrontendEntityID(entityIDStr string) Option {
	return func(c *identityConfig) { c.frontendEntityID = entityIDStr }
}

// WithSvrVersion sets this binary's version, overriding the build-time
// fallback runtime.GetSvrVersion would otherwise compute.
func WithSvrVersion(v uint32) Option {
	return func(c *identityConfig) { c.svrVersion = v }
}

// WithSetVersion sets the version of this server's deployment set.
func WithSetVersion(v uint64) Option {
	return func(c *identityConfig) { c.setVersion = v }
}

// Connhost is the core application struct, holding all major framework components and dependencies.
type Connhost struct {
	Logger        log.Logger
	PluginManager *plugin.Manager
	Tracer        tracing.Tracer
}

// New creates a new Connhost application instance with default configurations.
// It first applies any identity options, then initializes the logger, plugin
// manager, and tracer.
func New(opts ...Option) (*Connhost, error) {
	cfg := &identityConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.entityID != "" {
		if err := runtime.SetupServerAddr(cfg.entityID); err != nil {
			return nil, fmt.Errorf("connhost: %w", err)
		}
	}
	if cfg.frontendEntityID != "" {
		if err := runtime.SetupFrontendServerAddr(cfg.frontendEntityID); err != nil {
			return nil, fmt.Errorf("connhost: %w", err)
		}
	}
	if cfg.svrVersion != 0 {
		if err := runtime.SetSvrVersion(cfg.svrVersion); err != nil {
			return nil, fmt.Errorf("connhost: %w", err)
		}
	}
	if cfg.setVersion != 0 {
		if err := runtime.SetSetVersion(cfg.setVersion); err != nil {
			return nil, fmt.Errorf("connhost: %w", err)
		}
	}

	// 1. Initialize Logger
	logCfg := &log.LogCfg{
		ConsoleAppender:   true,
		LogLevel:          log.DebugLevel,
		EnabledCallerInfo: true,
		CallerSkip:        1,
	}
	logger := log.NewLogger(logCfg)

	// Set the created logger as the global default for convenient access
	log.SetDefaultLogger(logger)

	// 2. Initialize Plugin Manager
	pluginManager := plugin.NewManager()
	pluginManager.RegisterFactory(tcp.NewPluginFactory())
	pluginManager.RegisterFactory(kcpmux.NewPluginFactory())

	// 3. Initialize Tracer
	tracer := tracing.NewTracer()
	tracing.SetGlobalTracer(tracer)

	// 4. Assemble Connhost instance
	c := &Connhost{
		Logger:        logger,
		PluginManager: pluginManager,
		Tracer:        tracer,
	}

	logger.Info().Msg("connhost application initialized")
	return c, nil
}

// Stop logs the shutdown and closes the tracer.
func (c *Connhost) Stop() {
	c.Logger.Info().Msg("connhost application shutting down")
	c.Tracer.Close()
}
