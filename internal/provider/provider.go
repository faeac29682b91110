package provider

import (
	"golang.org/x/text/language"

	"github.com/kdudkov/maplayers/internal/layers"
)

// MapProvider is what a map renderer needs to know about a tile source.
type MapProvider interface {
	Name() string
	Title() string
	Description(lang language.Tag) string
	Layers() []layers.LayerDescription
	DefaultLayer() layers.LayerDescription
}

// Info is provider metadata for update checks and support links.
type Info struct {
	Author           string   `yaml:"author" json:"author,omitempty" mapstructure:"author"`
	Version          string   `yaml:"version" json:"version,omitempty" mapstructure:"version"`
	SupportURL       string   `yaml:"support_url" json:"support_url,omitempty" mapstructure:"support_url"`
	LatestVersionURL string   `yaml:"latest_version_url" json:"latest_version_url,omitempty" mapstructure:"latest_version_url"`
	Capabilities     []string `yaml:"capabilities" json:"capabilities,omitempty" mapstructure:"capabilities"`
}

type Described interface {
	Info() Info
}
