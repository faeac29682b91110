package provider

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/kdudkov/maplayers/internal/i18n"
	"github.com/kdudkov/maplayers/internal/layers"
)

var ErrLinkTemplate = errors.New("link template needs exactly one %s and no other verbs")

// Definition describes a provider in the config file.
type Definition struct {
	Name         string                    `yaml:"name" mapstructure:"name"`
	Title        string                    `yaml:"title" mapstructure:"title"`
	Description  string                    `yaml:"description" mapstructure:"description"`
	Link         string                    `yaml:"link" mapstructure:"link"`
	Translations map[string]string         `yaml:"translations" mapstructure:"translations"`
	Layers       []layers.LayerDescription `yaml:"layers" mapstructure:"layers"`
	LayersFile   string                    `yaml:"layers_file" mapstructure:"layers_file"`
	Info         Info                      `yaml:"info" mapstructure:"info"`
}

// NewFromDefinition validates the definition and builds a provider from it.
// The description is a template with %s for the link; without a link it is used verbatim.
func NewFromDefinition(d Definition) (*Static, error) {
	name := strings.ToLower(strings.TrimSpace(d.Name))
	if name == "" {
		return nil, errors.New("provider name is empty")
	}

	if strings.TrimSpace(d.Title) == "" {
		return nil, fmt.Errorf("provider %s: title is empty", name)
	}

	var (
		c   *layers.Catalog
		err error
	)

	if d.LayersFile != "" {
		if len(d.Layers) > 0 {
			return nil, fmt.Errorf("provider %s: both layers and layers_file are set", name)
		}

		c, err = layers.LoadFile(d.LayersFile)
	} else {
		c, err = layers.NewCatalog(d.Layers)
	}

	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", name, err)
	}

	p := &Static{
		name:    name,
		title:   d.Title,
		descKey: d.Description,
		link:    d.Link,
		catalog: c,
		info:    d.Info,
	}

	if d.Link != "" {
		if err := checkTemplate(d.Description); err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, &layers.ConfigurationError{Index: -1, Err: fmt.Errorf("description: %w", err)})
		}

		tr := make(map[language.Tag]map[string]string, len(d.Translations))

		for lang, msg := range d.Translations {
			tag, err := language.Parse(lang)
			if err != nil {
				return nil, fmt.Errorf("provider %s: bad language %s: %w", name, lang, err)
			}

			if err := checkTemplate(msg); err != nil {
				return nil, fmt.Errorf("provider %s: %w", name, &layers.ConfigurationError{Index: -1, Err: fmt.Errorf("translation %s: %w", lang, err)})
			}

			tr[tag] = map[string]string{d.Description: msg}
		}

		if p.tr, err = i18n.NewTranslator(tr); err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
	} else {
		p.link = d.Description
	}

	return p, nil
}

// checkTemplate allows "%%" and a single "%s", the only argument is the link.
func checkTemplate(s string) error {
	n := 0

	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}

		if i+1 == len(s) {
			return fmt.Errorf("%w: trailing %%", ErrLinkTemplate)
		}

		i++

		switch s[i] {
		case '%':
		case 's':
			n++
		default:
			return fmt.Errorf("%w: unexpected %%%c", ErrLinkTemplate, s[i])
		}
	}

	if n != 1 {
		return fmt.Errorf("%w: found %d", ErrLinkTemplate, n)
	}

	return nil
}
