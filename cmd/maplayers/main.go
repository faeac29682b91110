package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/kdudkov/maplayers/internal/config"
	"github.com/kdudkov/maplayers/internal/provider"
	"github.com/kdudkov/maplayers/internal/versioncheck"
)

type App struct {
	cfg      *config.AppConfig
	logger   *slog.Logger
	registry *provider.Registry

	version     atomic.Pointer[versionCheck]
	defProvider atomic.Value
	defLang     atomic.Value
}

// versionCheck is the version_check config section, checker is nil when the check is off.
type versionCheck struct {
	checker *versioncheck.Checker
	url     string
	ttl     time.Duration
	timeout time.Duration
}

func NewApp(cfg *config.AppConfig) (*App, error) {
	app := &App{
		cfg:      cfg,
		logger:   slog.Default().With(slog.String("logger", "app")),
		registry: provider.NewRegistry(),
	}

	if err := app.reload(); err != nil {
		return nil, err
	}

	return app, nil
}

func (app *App) reload() error {
	if err := app.loadVersionCheck(); err != nil {
		return err
	}

	return app.loadProviders()
}

// loadVersionCheck keeps the old checker and its cache while ttl and timeout stay the same.
func (app *App) loadVersionCheck() error {
	if !app.cfg.VersionCheck() {
		app.version.Store(&versionCheck{})

		return nil
	}

	vc := &versionCheck{
		url:     app.cfg.VersionCheckURL(),
		ttl:     app.cfg.VersionCheckTTL(),
		timeout: app.cfg.VersionCheckTimeout(),
	}

	if old := app.version.Load(); old != nil && old.checker != nil && old.ttl == vc.ttl && old.timeout == vc.timeout {
		vc.checker = old.checker
	} else {
		c, err := versioncheck.New(provider.LantmaterietVersion, vc.ttl, vc.timeout)
		if err != nil {
			return err
		}

		vc.checker = c
	}

	app.version.Store(vc)

	return nil
}

// loadProviders replaces registered providers with the ones from the current config.
// On error the registry stays as it was.
func (app *App) loadProviders() error {
	providers, err := app.cfg.BuildProviders()
	if err != nil {
		return err
	}

	if err := app.registry.Replace(providers...); err != nil {
		return err
	}

	def := app.cfg.DefaultProvider()
	if _, ok := app.registry.Get(def); !ok {
		app.logger.Warn("default provider is not registered", slog.String("name", def))
	}

	app.defProvider.Store(def)
	app.defLang.Store(app.cfg.DefaultLang())

	app.logger.Info(fmt.Sprintf("%d providers loaded", len(providers)))

	return nil
}

func (app *App) defaultProvider() string {
	s, _ := app.defProvider.Load().(string)

	return s
}

func (app *App) defaultLang() string {
	s, _ := app.defLang.Load().(string)

	return s
}

func (app *App) checkVersion(ctx context.Context) {
	vc := app.version.Load()
	if vc == nil || vc.checker == nil {
		return
	}

	res, err := vc.checker.Check(ctx, vc.url)
	if err != nil {
		app.logger.Warn("version check failed", slog.Any("error", err))
		return
	}

	if res.Newer {
		app.logger.Info(fmt.Sprintf("new version is available: %s, running %s", res.Latest, res.Current))
	}
}

func (app *App) Run(ctx context.Context) error {
	app.cfg.Watch(func(_ *config.AppConfig) {
		if err := app.reload(); err != nil {
			app.logger.Error("config reload failed, keeping old providers", slog.Any("error", err))
		}
	})

	go app.checkVersion(ctx)

	api := NewHttp(app, app.cfg.APIAddr())

	go func() {
		<-ctx.Done()

		if err := api.Shutdown(); err != nil {
			app.logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	app.logger.Info("listening " + app.cfg.APIAddr())

	return api.Listen()
}

func main() {
	conf := flag.String("config", "maplayers.yml", "name of config file")
	debug := flag.Bool("debug", false, "debug")
	ver := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *ver {
		fmt.Println(getVersion())
		return
	}

	var h slog.Handler
	if *debug {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	slog.SetDefault(slog.New(h))

	cfg := config.NewAppConfig()
	cfg.Load(*conf)
	cfg.LoadEnv(config.EnvPrefix)

	slog.Info("version " + getVersion())

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("can't start", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		slog.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
}
