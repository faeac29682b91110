package main

import (
	"log/slog"
	"runtime/pprof"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"

	"github.com/kdudkov/maplayers/internal/i18n"
	"github.com/kdudkov/maplayers/internal/layers"
	"github.com/kdudkov/maplayers/internal/provider"
	"github.com/kdudkov/maplayers/pkg/log"
)

var providerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "maplayers",
	Name:      "provider_requests_total",
	Help:      "Number of provider lookups.",
}, []string{"provider", "found"})

type ProviderDTO struct {
	Name        string                    `json:"name"`
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	Default     *layers.LayerDescription  `json:"default,omitempty"`
	Layers      []layers.LayerDescription `json:"layers,omitempty"`
	Info        *provider.Info            `json:"info,omitempty"`
}

func NewHttp(app *App, addr string) *HttpAPI {
	srv := fiber.New(fiber.Config{EnablePrintRoutes: false, DisableStartupMessage: true})

	srv.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "api", Level: slog.LevelInfo, DoMetrics: true, LogErrorsOnly: !app.cfg.LogAll()}))

	srv.Get("/config", getConfigHandler(app))
	srv.Get("/providers", getProvidersHandler(app))
	srv.Get("/providers/:name", getProviderHandler(app))
	srv.Get("/providers/:name/layers", getLayersHandler(app))
	srv.Get("/version", getVersionHandler(app))

	srv.Get("/metrics", getMetricsHandler())
	srv.Get("/stack", getStackHandler())

	return &HttpAPI{f: srv, addr: addr}
}

type HttpAPI struct {
	f    *fiber.App
	addr string
}

func (api *HttpAPI) Listen() error {
	return api.f.Listen(api.addr)
}

func (api *HttpAPI) Shutdown() error {
	return api.f.Shutdown()
}

func getConfigHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		p, ok := app.lookup(app.defaultProvider())
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no default provider")
		}

		m := make(map[string]any, 0)
		m["version"] = getVersion()
		m["provider"] = p.Name()
		m["title"] = p.Title()
		m["description"] = p.Description(app.lang(ctx, p))
		m["layers"] = p.Layers()

		return ctx.JSON(m)
	}
}

func getProvidersHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		res := make([]*ProviderDTO, 0)

		app.registry.ForEach(func(p provider.MapProvider) bool {
			res = append(res, &ProviderDTO{
				Name:        p.Name(),
				Title:       p.Title(),
				Description: p.Description(app.lang(ctx, p)),
			})

			return true
		})

		return ctx.JSON(res)
	}
}

func getProviderHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		p, ok := app.lookup(ctx.Params("name"))
		if !ok {
			return fiber.ErrNotFound
		}

		def := p.DefaultLayer()

		dto := &ProviderDTO{
			Name:        p.Name(),
			Title:       p.Title(),
			Description: p.Description(app.lang(ctx, p)),
			Default:     &def,
			Layers:      p.Layers(),
		}

		if d, ok := p.(provider.Described); ok {
			info := d.Info()
			dto.Info = &info
		}

		return ctx.JSON(dto)
	}
}

func getLayersHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		p, ok := app.lookup(ctx.Params("name"))
		if !ok {
			return fiber.ErrNotFound
		}

		return ctx.JSON(p.Layers())
	}
}

func getVersionHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		m := make(map[string]any, 0)
		m["version"] = getVersion()
		m["provider_version"] = provider.LantmaterietVersion

		if vc := app.version.Load(); vc != nil && vc.checker != nil {
			res, err := vc.checker.Check(ctx.UserContext(), vc.url)
			if err != nil {
				m["error"] = err.Error()
			} else {
				m["check"] = res
			}
		}

		return ctx.JSON(m)
	}
}

func getMetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{DisableCompression: true},
	))
}

func getStackHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return pprof.Lookup("goroutine").WriteTo(ctx.Response().BodyWriter(), 1)
	}
}

func (app *App) lookup(name string) (provider.MapProvider, bool) {
	p, ok := app.registry.Get(name)

	found := "true"
	if !ok {
		found = "false"
		name = "unknown"
	}

	providerRequests.With(prometheus.Labels{"provider": name, "found": found}).Inc()

	return p, ok
}

// lang picks the description language from ?lang=, Accept-Language or the configured default.
func (app *App) lang(ctx *fiber.Ctx, p provider.MapProvider) language.Tag {
	accept := ctx.Query("lang")
	if accept == "" {
		accept = ctx.Get(fiber.HeaderAcceptLanguage)
	}

	if accept == "" {
		accept = app.defaultLang()
	}

	if t, ok := p.(interface{ Translator() *i18n.Translator }); ok && t.Translator() != nil {
		return t.Translator().Match(accept)
	}

	return i18n.Source
}
