package layers

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoLayers         = errors.New("catalog has no layers")
	ErrMultipleDefaults = errors.New("more than one layer is marked default")
	ErrMissingField     = errors.New("required field is empty")
	ErrZoomRange        = errors.New("invalid zoom range")
	ErrServiceOptions   = errors.New("invalid service options")
)

// ConfigurationError is returned when a catalog can't be built from its descriptors.
// Index is -1 for errors that concern the catalog as a whole.
type ConfigurationError struct {
	Index int
	Label string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Index < 0 {
		return "configuration error: " + e.Err.Error()
	}

	if e.Label == "" {
		return fmt.Sprintf("configuration error: layer #%d: %s", e.Index, e.Err.Error())
	}

	return fmt.Sprintf("configuration error: layer #%d (%s): %s", e.Index, e.Label, e.Err.Error())
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Catalog is an immutable ordered set of layers. It is safe for concurrent use.
type Catalog struct {
	layers []LayerDescription
	def    int
}

// NewCatalog validates the descriptors and copies them into a new catalog.
// At most one descriptor may be marked default; if none is, the first one is the default layer.
func NewCatalog(descr []LayerDescription) (*Catalog, error) {
	if len(descr) == 0 {
		return nil, &ConfigurationError{Index: -1, Err: ErrNoLayers}
	}

	c := &Catalog{layers: make([]LayerDescription, 0, len(descr)), def: -1}

	for i := range descr {
		l := normalize(descr[i].Clone())

		if err := validate(&l); err != nil {
			return nil, &ConfigurationError{Index: i, Label: l.Label, Err: err}
		}

		if l.Default {
			if c.def >= 0 {
				return nil, &ConfigurationError{Index: i, Label: l.Label, Err: ErrMultipleDefaults}
			}

			c.def = i
		}

		c.layers = append(c.layers, l)
	}

	if c.def < 0 {
		c.def = 0
	}

	return c, nil
}

// MustCatalog is NewCatalog for compiled-in data.
func MustCatalog(descr []LayerDescription) *Catalog {
	c, err := NewCatalog(descr)
	if err != nil {
		panic(err)
	}

	return c
}

// Layers returns a copy of the catalog content in catalog order.
func (c *Catalog) Layers() []LayerDescription {
	res := make([]LayerDescription, len(c.layers))

	for i := range c.layers {
		res[i] = c.layers[i].Clone()
	}

	return res
}

func (c *Catalog) DefaultLayer() LayerDescription {
	return c.layers[c.def].Clone()
}

func (c *Catalog) DefaultIndex() int {
	return c.def
}

// ParseYAML reads a yaml list of layer descriptors and builds a catalog from it.
func ParseYAML(b []byte) (*Catalog, error) {
	l := make([]LayerDescription, 0)

	if err := yaml.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("can't parse layers: %w", err)
	}

	return NewCatalog(l)
}

func LoadFile(name string) (*Catalog, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	return ParseYAML(b)
}

// wms layers without own zoom bounds take them from their options
func normalize(l LayerDescription) LayerDescription {
	if l.WMS != nil && l.MinZoom == 0 && l.MaxZoom == 0 {
		l.MinZoom = l.WMS.MinZoom
		l.MaxZoom = l.WMS.MaxZoom
	}

	return l
}

func validate(l *LayerDescription) error {
	switch {
	case strings.TrimSpace(l.Label) == "":
		return fmt.Errorf("label: %w", ErrMissingField)
	case strings.TrimSpace(l.URL) == "":
		return fmt.Errorf("url: %w", ErrMissingField)
	case strings.TrimSpace(l.Attribution) == "":
		return fmt.Errorf("attribution: %w", ErrMissingField)
	case l.MaxZoom == 0:
		// a zero max zoom means the bound was not given
		return fmt.Errorf("max_zoom: %w", ErrMissingField)
	}

	if err := checkZoom(l.MinZoom, l.MaxZoom); err != nil {
		return err
	}

	switch l.Kind() {
	case KindWMTS:
		if l.WMS != nil {
			return fmt.Errorf("%w: tile template must not have wms options", ErrServiceOptions)
		}
	case KindWMS:
		if l.WMS == nil {
			return fmt.Errorf("%w: wms layer has no wms options", ErrServiceOptions)
		}

		if l.WMS.Service != ServiceWMS {
			return fmt.Errorf("%w: service is %q, expected %q", ErrServiceOptions, l.WMS.Service, ServiceWMS)
		}

		if len(l.WMS.LayerNames()) == 0 {
			return fmt.Errorf("%w: no wms layers", ErrServiceOptions)
		}

		if err := checkZoom(l.WMS.MinZoom, l.WMS.MaxZoom); err != nil {
			return fmt.Errorf("wms options: %w", err)
		}
	}

	return nil
}

func checkZoom(minZoom, maxZoom int) error {
	if minZoom < MinSupportedZoom || maxZoom > MaxSupportedZoom {
		return fmt.Errorf("%w: %d-%d is outside %d-%d", ErrZoomRange, minZoom, maxZoom, MinSupportedZoom, MaxSupportedZoom)
	}

	if minZoom > maxZoom {
		return fmt.Errorf("%w: min zoom %d > max zoom %d", ErrZoomRange, minZoom, maxZoom)
	}

	return nil
}
