package layers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	ServiceWMS = "WMS"

	MinSupportedZoom = 0
	MaxSupportedZoom = 24
)

type Kind int

const (
	KindWMTS Kind = iota
	KindWMS
)

func (k Kind) String() string {
	switch k {
	case KindWMTS:
		return "wmts"
	case KindWMS:
		return "wms"
	default:
		return "unknown"
	}
}

// WMSOptions are passed to the renderer's WMS tile layer as is.
type WMSOptions struct {
	Service string `yaml:"service" json:"service" mapstructure:"service"`
	Layers  string `yaml:"layers" json:"layers" mapstructure:"layers"`
	MinZoom int    `yaml:"min_zoom" json:"minZoom" mapstructure:"min_zoom"`
	MaxZoom int    `yaml:"max_zoom" json:"maxZoom" mapstructure:"max_zoom"`
}

func (o *WMSOptions) LayerNames() []string {
	if o == nil || o.Layers == "" {
		return nil
	}

	res := make([]string, 0)

	for _, s := range strings.Split(o.Layers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			res = append(res, s)
		}
	}

	return res
}

type LayerDescription struct {
	Label       string      `yaml:"label" json:"label" mapstructure:"label"`
	URL         string      `yaml:"url" json:"url" mapstructure:"url"`
	Default     bool        `yaml:"default" json:"default,omitempty" mapstructure:"default"`
	MinZoom     int         `yaml:"min_zoom" json:"minZoom,omitempty" mapstructure:"min_zoom"`
	MaxZoom     int         `yaml:"max_zoom" json:"maxZoom,omitempty" mapstructure:"max_zoom"`
	Attribution string      `yaml:"attribution" json:"attribution" mapstructure:"attribution"`
	WMS         *WMSOptions `yaml:"wms_options,omitempty" json:"wmsOptions,omitempty" mapstructure:"wms_options"`
}

// IsTemplate reports whether the url is a tile matrix template with all of {z}, {x} and {y}.
func IsTemplate(u string) bool {
	return strings.Contains(u, "{z}") && strings.Contains(u, "{x}") && strings.Contains(u, "{y}")
}

func (l *LayerDescription) Kind() Kind {
	if IsTemplate(l.URL) {
		return KindWMTS
	}

	return KindWMS
}

func (l *LayerDescription) Clone() LayerDescription {
	c := *l

	if l.WMS != nil {
		w := *l.WMS
		c.WMS = &w
	}

	return c
}

// TileURL substitutes tile coordinates into a WMTS template.
func (l *LayerDescription) TileURL(z, x, y int) (string, error) {
	if l.Kind() != KindWMTS {
		return "", fmt.Errorf("layer %s is not a tile template", l.Label)
	}

	if z < l.MinZoom || z > l.MaxZoom {
		return "", fmt.Errorf("zoom %d is out of range %d-%d", z, l.MinZoom, l.MaxZoom)
	}

	return strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	).Replace(l.URL), nil
}

// GetMapURL builds a WMS 1.1.1 GetMap request for the EPSG:3857 bbox.
func (l *LayerDescription) GetMapURL(bbox [4]float64, width, height int) (string, error) {
	if l.Kind() != KindWMS || l.WMS == nil {
		return "", fmt.Errorf("layer %s is not a wms layer", l.Label)
	}

	u, err := url.Parse(l.URL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("service", l.WMS.Service)
	q.Set("request", "GetMap")
	q.Set("version", "1.1.1")
	q.Set("layers", l.WMS.Layers)
	q.Set("styles", "")
	q.Set("format", "image/jpeg")
	q.Set("srs", "EPSG:3857")
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))

	parts := make([]string, len(bbox))
	for i, f := range bbox {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}

	q.Set("bbox", strings.Join(parts, ","))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
