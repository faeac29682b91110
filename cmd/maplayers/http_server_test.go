package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdudkov/maplayers/internal/config"
	"github.com/kdudkov/maplayers/internal/layers"
)

type TestApp struct {
	*App
	api *HttpAPI
}

func NewTestApp(t *testing.T, f func(cfg *config.AppConfig)) *TestApp {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	cfg := config.NewAppConfig()
	cfg.Set("version_check.enabled", false)

	if f != nil {
		f(cfg)
	}

	app, err := NewApp(cfg)
	require.NoError(t, err)

	return &TestApp{App: app, api: NewHttp(app, "localhost:1234")}
}

func (app *TestApp) Req(method, url, lang string) (*http.Response, error) {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, err
	}

	if lang != "" {
		req.Header.Add(fiber.HeaderAcceptLanguage, lang)
	}

	return app.api.f.Test(req, 3000)
}

func decode(t *testing.T, resp *http.Response, v any) {
	require.NotNil(t, resp.Body)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestProviders(t *testing.T) {
	app := NewTestApp(t, nil)

	resp, err := app.Req("GET", "/providers", "sv-SE,sv;q=0.9")
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var res []*ProviderDTO
	decode(t, resp, &res)

	require.Len(t, res, 1)
	assert.Equal(t, "lantmateriet", res[0].Name)
	assert.Equal(t, "Lantmäteriet", res[0].Title)
	assert.True(t, strings.HasPrefix(res[0].Description, "Skapa kartor med "))
	assert.Empty(t, res[0].Layers)
}

func TestProvider(t *testing.T) {
	app := NewTestApp(t, nil)

	resp, err := app.Req("GET", "/providers/lantmateriet?lang=de", "sv")
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var dto ProviderDTO
	decode(t, resp, &dto)

	assert.True(t, strings.HasPrefix(dto.Description, "Karten erstellen mit "))
	require.NotNil(t, dto.Default)
	assert.Equal(t, "Karta", dto.Default.Label)
	require.Len(t, dto.Layers, 5)
	require.NotNil(t, dto.Info)
	assert.Equal(t, "1.0.0", dto.Info.Version)

	resp, err = app.Req("GET", "/providers/nope", "")
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLayersJSON(t *testing.T) {
	app := NewTestApp(t, nil)

	resp, err := app.Req("GET", "/providers/lantmateriet/layers", "")
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Len(t, raw, 5)

	assert.Equal(t, "Karta", raw[0]["label"])
	assert.Equal(t, true, raw[0]["default"])
	assert.Equal(t, float64(17), raw[0]["maxZoom"])
	assert.NotContains(t, raw[0], "wmsOptions")

	wms, ok := raw[2]["wmsOptions"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "WMS", wms["service"])
	assert.Equal(t, float64(19), wms["maxZoom"])
	assert.NotContains(t, raw[2], "default")

	var l []layers.LayerDescription
	require.NoError(t, json.Unmarshal(b, &l))
	assert.Equal(t, app.registry.Names(), []string{"lantmateriet"})
}

func TestConfig(t *testing.T) {
	app := NewTestApp(t, func(cfg *config.AppConfig) {
		cfg.Set("lang", "sv")
	})

	resp, err := app.Req("GET", "/config", "")
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	m := make(map[string]any)
	decode(t, resp, &m)

	assert.Equal(t, "lantmateriet", m["provider"])
	assert.True(t, strings.HasPrefix(m["description"].(string), "Skapa kartor med "))
	assert.Len(t, m["layers"], 5)
}

func TestNoDefaultProvider(t *testing.T) {
	app := NewTestApp(t, func(cfg *config.AppConfig) {
		cfg.Set("default_provider", "none")
	})

	resp, err := app.Req("GET", "/config", "")
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "1.1.0\n")
	}))
	defer srv.Close()

	app := NewTestApp(t, func(cfg *config.AppConfig) {
		cfg.Set("version_check.enabled", true)
		cfg.Set("version_check.url", srv.URL)
	})

	resp, err := app.Req("GET", "/version", "")
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	m := make(map[string]any)
	decode(t, resp, &m)

	check, ok := m["check"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.1.0", check["latest"])
	assert.Equal(t, true, check["newer"])
}

func TestVersionReload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "1.1.0")
	}))
	defer srv.Close()

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "0.9.0")
	}))
	defer srv2.Close()

	app := NewTestApp(t, nil)

	check := func() map[string]any {
		resp, err := app.Req("GET", "/version", "")
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		m := make(map[string]any)
		decode(t, resp, &m)

		c, _ := m["check"].(map[string]any)

		return c
	}

	assert.Nil(t, check())

	app.cfg.Set("version_check.enabled", true)
	app.cfg.Set("version_check.url", srv.URL)
	require.NoError(t, app.reload())

	c := check()
	require.NotNil(t, c)
	assert.Equal(t, "1.1.0", c["latest"])
	assert.Equal(t, true, c["newer"])

	checker := app.version.Load().checker

	app.cfg.Set("version_check.url", srv2.URL)
	require.NoError(t, app.reload())
	assert.Same(t, checker, app.version.Load().checker)

	c = check()
	require.NotNil(t, c)
	assert.Equal(t, "0.9.0", c["latest"])
	assert.Equal(t, false, c["newer"])

	app.cfg.Set("version_check.enabled", false)
	require.NoError(t, app.reload())
	assert.Nil(t, check())
}

func TestAccessLogLevel(t *testing.T) {
	buf := new(bytes.Buffer)

	cfg := config.NewAppConfig()
	cfg.Set("version_check.enabled", false)
	cfg.Set("log", true)

	app, err := NewApp(cfg)
	require.NoError(t, err)

	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	api := NewHttp(app, "localhost:1234")
	slog.SetDefault(prev)

	req, _ := http.NewRequest(http.MethodGet, "/providers", nil)
	resp, err := api.f.Test(req, 3000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var line string

	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "200 GET /providers") {
			line = l
		}
	}

	require.NotEmpty(t, line)
	assert.Contains(t, line, "level=INFO")
	assert.Contains(t, line, "logger=api")
}

func TestReloadKeepsProviders(t *testing.T) {
	app := NewTestApp(t, nil)

	app.cfg.Set("builtin", []string{"nope"})
	require.Error(t, app.loadProviders())
	assert.Equal(t, []string{"lantmateriet"}, app.registry.Names())
}

func TestMetrics(t *testing.T) {
	app := NewTestApp(t, nil)

	_, err := app.Req("GET", "/providers/lantmateriet", "")
	require.NoError(t, err)

	resp, err := app.Req("GET", "/metrics", "")
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "maplayers_provider_requests_total")
}
