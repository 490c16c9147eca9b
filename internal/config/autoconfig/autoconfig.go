// autoconfig provides a way to create various instances from the [config.Config] like
// [notes.Store], [server.Server], [zap.Logger], [layout.Options].
//
// For example, to open the configured store, you can write:
//
//	builder := autoconfig.NewBuilder()
//	builder.Invoke(func(store notes.Store) error {
//	    ...
//	})
//
// Treat it as a dependency injection mechanism.
package autoconfig

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/stateful/notes/internal/config"
	"github.com/stateful/notes/internal/log"
	"github.com/stateful/notes/internal/metrics"
	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/internal/notes/redisstore"
	"github.com/stateful/notes/internal/notes/sqlitestore"
	"github.com/stateful/notes/internal/renderer/layout"
	"github.com/stateful/notes/internal/server"
)

// ConfigNames are the file names of the configuration, by precedence.
var ConfigNames = []string{"notes.yaml", "notes.yml"}

type Builder struct {
	container *dig.Container
}

func NewBuilder() *Builder {
	c := dig.New()

	// Any of them can be overridden with [Builder.Decorate], for example:
	//   builder.Decorate(func() (*config.Loader, error) { ... })
	mustProvide(c.Provide(getLoader))
	mustProvide(c.Provide(getConfig))
	mustProvide(c.Provide(getLogger))
	mustProvide(c.Provide(getRegistry))
	mustProvide(c.Provide(getMetrics))
	mustProvide(c.Provide(getLayoutOptions))
	mustProvide(c.Provide(getStore))
	mustProvide(c.Provide(getServer))

	return &Builder{container: c}
}

func mustProvide(err error) {
	if err != nil {
		panic("failed to provide: " + err.Error())
	}
}

func (b *Builder) Decorate(decorator interface{}, opts ...dig.DecorateOption) error {
	return b.container.Decorate(decorator, opts...)
}

// Invoke is used to invoke the function with the given dependencies.
// The builder will automatically figure out how to instantiate them
// using the available configuration.
func (b *Builder) Invoke(function interface{}, opts ...dig.InvokeOption) error {
	err := b.container.Invoke(function, opts...)
	return dig.RootCause(err)
}

func getLoader() (*config.Loader, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return config.NewLoader(ConfigNames, os.DirFS(cwd)), nil
}

func getConfig(loader *config.Loader) (*config.Config, error) {
	return loader.Load(".")
}

func getLogger(c *config.Config) (*zap.Logger, error) {
	var opts log.Options
	if c.Log != nil {
		opts = log.Options{
			Enabled: c.Log.Enabled,
			Path:    c.Log.Path,
			Verbose: c.Log.Verbose,
		}
	}

	l, err := log.New(opts)
	if err != nil {
		return nil, err
	}
	log.Set(l)
	return l, nil
}

func getRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func getMetrics(reg *prometheus.Registry) (*metrics.Metrics, error) {
	return metrics.New(reg)
}

func getLayoutOptions(c *config.Config) (layout.Options, error) {
	fonts, err := layout.DefaultFonts()
	if err != nil {
		return layout.Options{}, err
	}
	return layout.Options{
		Width:    c.Export.Width,
		FontSize: c.Export.FontSize,
		Fonts:    fonts,
	}, nil
}

// getStore opens the configured store. Stores holding resources
// implement io.Closer; the caller closes them.
func getStore(c *config.Config, logger *zap.Logger) (notes.Store, error) {
	var store notes.Store

	switch c.Store.Driver {
	case config.StoreMemory:
		store = notes.NewMemoryStore()
	case config.StoreSQLite:
		s, err := sqlitestore.Open(context.Background(), c.Store.Path)
		if err != nil {
			return nil, err
		}
		store = s
	case config.StoreRedis:
		var opts []redisstore.Option
		if c.Store.Redis.Prefix != "" {
			opts = append(opts, redisstore.WithPrefix(c.Store.Redis.Prefix))
		}
		store = redisstore.New(c.Store.Redis.Address, c.Store.Redis.Password, c.Store.Redis.DB, opts...)
	default:
		return nil, errors.Errorf("unknown store driver: %q", c.Store.Driver)
	}

	logger.Debug("opened store", zap.String("driver", c.Store.Driver))

	if c.Store.CacheSize > 0 {
		store = notes.NewCachedStore(store, c.Store.CacheSize, logger)
	}
	return store, nil
}

// getServer returns nil when the configuration has no server.
func getServer(
	c *config.Config,
	store notes.Store,
	m *metrics.Metrics,
	reg *prometheus.Registry,
	opts layout.Options,
	logger *zap.Logger,
) (*server.Server, error) {
	if c.Server == nil {
		return nil, nil
	}

	cfg := &server.Config{
		Address:     c.Server.Address,
		HTTPAddress: c.Server.HTTPAddress,
		Layout:      opts,
		AvoidBreaks: c.Export.AvoidBreaks,
	}

	return server.New(cfg, store, m, reg, logger)
}
