package config

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, s string) string {
	f, err := os.CreateTemp(t.TempDir(), "maplayers_*.yml")
	require.NoError(t, err)

	fmt.Fprint(f, s)
	f.Close()

	return f.Name()
}

func TestDefaults(t *testing.T) {
	c := NewAppConfig()

	assert.Equal(t, ":8080", c.APIAddr())
	assert.Equal(t, "lantmateriet", c.DefaultProvider())
	assert.Equal(t, []string{"lantmateriet"}, c.Builtin())
	assert.True(t, c.VersionCheck())
	assert.Equal(t, time.Hour, c.VersionCheckTTL())

	p, err := c.BuildProviders()
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.Equal(t, "Lantmäteriet", p[0].Title())
}

func TestLoad(t *testing.T) {
	name := writeConfig(t, `---
api_addr: ":9090"
version_check:
  ttl: 5m
providers:
  - name: osm
    title: OpenStreetMap
    description: "Maps by %s."
    link: '<a href="https://www.openstreetmap.org">OpenStreetMap</a>'
    translations:
      sv: "Kartor från %s."
    layers:
      - label: OSM
        url: "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
        default: true
        max_zoom: 19
        attribution: OpenStreetMap
      - label: Ortho
        url: "https://example.com/wms"
        attribution: OpenStreetMap
        wms_options:
          service: WMS
          layers: "a,b"
          min_zoom: 3
          max_zoom: 18
`)

	c := NewAppConfig()
	require.True(t, c.Load(name))
	assert.True(t, c.Loaded())

	assert.Equal(t, ":9090", c.APIAddr())
	assert.Equal(t, time.Minute*5, c.VersionCheckTTL())

	defs, err := c.Providers()
	require.NoError(t, err)
	require.Len(t, defs, 1)
	require.Len(t, defs[0].Layers, 2)
	assert.True(t, defs[0].Layers[0].Default)
	require.NotNil(t, defs[0].Layers[1].WMS)
	assert.Equal(t, "a,b", defs[0].Layers[1].WMS.Layers)
	assert.Equal(t, 3, defs[0].Layers[1].WMS.MinZoom)

	p, err := c.BuildProviders()
	require.NoError(t, err)
	require.Len(t, p, 2)
	assert.Equal(t, "osm", p[1].Name())
	assert.Equal(t, 3, p[1].Layers()[1].MinZoom)
}

func TestLoadBad(t *testing.T) {
	name := writeConfig(t, `---
builtin: []
providers:
  - name: bad
    title: Bad
    layers:
      - label: A
        url: "https://a/{z}/{x}/{y}.png"
        default: true
        max_zoom: 18
        attribution: a
      - label: B
        url: "https://b/{z}/{x}/{y}.png"
        default: true
        max_zoom: 18
        attribution: b
`)

	c := NewAppConfig()
	require.True(t, c.Load(name))

	_, err := c.BuildProviders()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one layer is marked default")
}

func TestUnknownBuiltin(t *testing.T) {
	c := NewAppConfig()
	c.Set("builtin", []string{"nope"})

	_, err := c.BuildProviders()
	require.Error(t, err)
}

func TestNoFile(t *testing.T) {
	c := NewAppConfig()
	assert.False(t, c.Load("/nonexistent/maplayers.yml"))
	assert.False(t, c.Loaded())
	assert.Equal(t, ":8080", c.APIAddr())
}

func TestEnv(t *testing.T) {
	t.Setenv("MAPLAYERS_API_ADDR", ":7070")
	t.Setenv("MAPLAYERS_VERSION_CHECK_ENABLED", "false")

	c := NewAppConfig()
	c.LoadEnv(EnvPrefix)

	assert.Equal(t, ":7070", c.APIAddr())
	assert.False(t, c.VersionCheck())
}
