package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/kdudkov/maplayers/internal/provider"
)

const EnvPrefix = "MAPLAYERS"

type AppConfig struct {
	v      *viper.Viper
	loaded bool
}

func NewAppConfig() *AppConfig {
	c := &AppConfig{v: viper.New()}

	setDefaults(c.v)

	return c
}

func (c *AppConfig) Load(filename ...string) bool {
	loaded := false

	for _, name := range filename {
		c.v.SetConfigFile(name)

		if err := c.v.MergeInConfig(); err != nil {
			slog.Info(fmt.Sprintf("error loading config: %s", err.Error()))
		} else {
			loaded = true
		}
	}

	c.loaded = c.loaded || loaded

	return loaded
}

func (c *AppConfig) Loaded() bool {
	return c.loaded
}

// LoadEnv maps MAPLAYERS_API_ADDR to api_addr, MAPLAYERS_VERSION_CHECK_URL to version_check.url and so on.
func (c *AppConfig) LoadEnv(prefix string) {
	c.v.SetEnvPrefix(prefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()
}

// Watch calls f with the reloaded config on every change of the config file.
func (c *AppConfig) Watch(f func(c *AppConfig)) {
	if !c.loaded {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config changed", slog.String("file", e.Name), slog.String("op", e.Op.String()))
		f(c)
	})

	c.v.WatchConfig()
}

func (c *AppConfig) Set(key string, v any) {
	c.v.Set(key, v)
}

func (c *AppConfig) APIAddr() string {
	return c.v.GetString("api_addr")
}

func (c *AppConfig) DefaultProvider() string {
	return c.v.GetString("default_provider")
}

func (c *AppConfig) DefaultLang() string {
	return c.v.GetString("lang")
}

func (c *AppConfig) Builtin() []string {
	return c.v.GetStringSlice("builtin")
}

func (c *AppConfig) LogAll() bool {
	return c.v.GetBool("log")
}

func (c *AppConfig) VersionCheck() bool {
	return c.v.GetBool("version_check.enabled")
}

func (c *AppConfig) VersionCheckURL() string {
	return c.v.GetString("version_check.url")
}

func (c *AppConfig) VersionCheckTTL() time.Duration {
	return c.v.GetDuration("version_check.ttl")
}

func (c *AppConfig) VersionCheckTimeout() time.Duration {
	return c.v.GetDuration("version_check.timeout")
}

// Providers returns the providers defined in the config file.
func (c *AppConfig) Providers() ([]provider.Definition, error) {
	if !c.v.IsSet("providers") {
		return nil, nil
	}

	res := make([]provider.Definition, 0)
	if err := c.v.UnmarshalKey("providers", &res); err != nil {
		return nil, err
	}

	return res, nil
}

// BuildProviders makes the builtin providers named in "builtin" and all providers from the config.
func (c *AppConfig) BuildProviders() ([]provider.MapProvider, error) {
	res := make([]provider.MapProvider, 0)

	for _, name := range c.Builtin() {
		switch name {
		case provider.LantmaterietName:
			p, err := provider.NewLantmateriet()
			if err != nil {
				return nil, err
			}

			res = append(res, p)
		default:
			return nil, fmt.Errorf("unknown builtin provider %s", name)
		}
	}

	defs, err := c.Providers()
	if err != nil {
		return nil, err
	}

	for _, d := range defs {
		p, err := provider.NewFromDefinition(d)
		if err != nil {
			return nil, err
		}

		res = append(res, p)
	}

	return res, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_addr", ":8080")
	v.SetDefault("log", false)
	v.SetDefault("lang", "en")

	v.SetDefault("builtin", []string{provider.LantmaterietName})
	v.SetDefault("default_provider", provider.LantmaterietName)

	v.SetDefault("version_check.enabled", true)
	v.SetDefault("version_check.url", provider.LantmaterietLatestURL)
	v.SetDefault("version_check.ttl", time.Hour)
	v.SetDefault("version_check.timeout", time.Second*10)
}
