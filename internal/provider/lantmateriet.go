package provider

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/kdudkov/maplayers/internal/i18n"
	"github.com/kdudkov/maplayers/internal/layers"
)

const (
	LantmaterietName = "lantmateriet"

	LantmaterietAuthor     = "Fredrik Ekdahl"
	LantmaterietVersion    = "1.0.0"
	lantmaterietRepo       = "ekdahl/webtrees-lantmateriet"
	LantmaterietSupportURL = "https://github.com/" + lantmaterietRepo
	LantmaterietLatestURL  = "https://raw.githubusercontent.com/" + lantmaterietRepo + "/main/latest-version.txt"

	lantmaterietTitle = "Lantmäteriet"
	lantmaterietLink  = `<a href="https://www.lantmateriet.se" dir="ltr">www.lantmateriet.se</a>`
	lantmaterietAttr  = `<a href="https://www.lantmateriet.se">Lantmäteriet</a>`

	topowebbURL = "https://minkarta.lantmateriet.se/map/topowebbcache?layer=%s&tilematrixset=3857&Service=WMTS&Request=GetTile&TileMatrix={z}&TileCol={x}&TileRow={y}"
	ortofotoURL = "https://minkarta.lantmateriet.se/map/ortofoto"
	historicURL = "https://minkarta.lantmateriet.se/map/historiskaortofoto"

	// DescriptionKey is translated with the homepage link as the only argument.
	DescriptionKey = "Create maps using %s."
)

var lantmaterietCapabilities = []string{
	"https://minkarta.lantmateriet.se/map/topowebbcache?&Service=WMTS&Request=GetCapabilities",
	"https://minkarta.lantmateriet.se/map/ortofoto?Service=WMS&Request=GetCapabilities",
	"https://minkarta.lantmateriet.se/map/historiskaortofoto?Service=WMS&Request=GetCapabilities",
}

var descriptionTranslations = map[language.Tag]map[string]string{
	language.Swedish:   {DescriptionKey: "Skapa kartor med %s."},
	language.Norwegian: {DescriptionKey: "Lag kart med %s."},
	language.Danish:    {DescriptionKey: "Opret kort med %s."},
	language.Finnish:   {DescriptionKey: "Luo karttoja käyttäen %s."},
	language.German:    {DescriptionKey: "Karten erstellen mit %s."},
	language.French:    {DescriptionKey: "Créer des cartes avec %s."},
	language.Dutch:     {DescriptionKey: "Kaarten maken met %s."},
}

func fmtTopowebb(layer string) string {
	return fmt.Sprintf(topowebbURL, layer)
}

func lantmaterietLayers() []layers.LayerDescription {
	return []layers.LayerDescription{
		{
			Label:       "Karta",
			URL:         fmtTopowebb("topowebb"),
			Default:     true,
			MinZoom:     2,
			MaxZoom:     17,
			Attribution: lantmaterietAttr,
		},
		{
			Label:       "Nedtonad karta",
			URL:         fmtTopowebb("topowebb_nedtonad"),
			MinZoom:     2,
			MaxZoom:     17,
			Attribution: lantmaterietAttr,
		},
		{
			Label:       "Flygbild",
			URL:         ortofotoURL,
			Attribution: lantmaterietAttr,
			WMS: &layers.WMSOptions{
				Service: layers.ServiceWMS,
				Layers:  "Ortofoto_0.5,Ortofoto_0.4,Ortofoto_0.25,Ortofoto_0.16",
				MinZoom: 2,
				MaxZoom: 19,
			},
		},
		{
			Label:       "Flygbild ca 1960",
			URL:         historicURL,
			Attribution: lantmaterietAttr,
			WMS: &layers.WMSOptions{
				Service: layers.ServiceWMS,
				Layers:  "OI.Histortho_60",
				MinZoom: 2,
				MaxZoom: 18,
			},
		},
		{
			Label:       "Flygbild ca 1975",
			URL:         historicURL,
			Attribution: lantmaterietAttr,
			WMS: &layers.WMSOptions{
				Service: layers.ServiceWMS,
				Layers:  "OI.Histortho_75",
				MinZoom: 2,
				MaxZoom: 18,
			},
		},
	}
}

// Static is a provider with a fixed title, a translated description and a validated catalog.
type Static struct {
	name    string
	title   string
	descKey string
	link    string
	tr      *i18n.Translator
	catalog *layers.Catalog
	info    Info
}

func NewLantmateriet() (*Static, error) {
	tr, err := i18n.NewTranslator(descriptionTranslations)
	if err != nil {
		return nil, err
	}

	c, err := layers.NewCatalog(lantmaterietLayers())
	if err != nil {
		return nil, err
	}

	return &Static{
		name:    LantmaterietName,
		title:   lantmaterietTitle,
		descKey: DescriptionKey,
		link:    lantmaterietLink,
		tr:      tr,
		catalog: c,
		info: Info{
			Author:           LantmaterietAuthor,
			Version:          LantmaterietVersion,
			SupportURL:       LantmaterietSupportURL,
			LatestVersionURL: LantmaterietLatestURL,
			Capabilities:     lantmaterietCapabilities,
		},
	}, nil
}

func (p *Static) Name() string {
	return p.name
}

func (p *Static) Title() string {
	return p.title
}

func (p *Static) Description(lang language.Tag) string {
	if p.tr == nil {
		return p.link
	}

	return p.tr.Translate(lang, p.descKey, p.link)
}

func (p *Static) Layers() []layers.LayerDescription {
	return p.catalog.Layers()
}

func (p *Static) DefaultLayer() layers.LayerDescription {
	return p.catalog.DefaultLayer()
}

func (p *Static) Translator() *i18n.Translator {
	return p.tr
}

func (p *Static) Info() Info {
	i := p.info
	i.Capabilities = append([]string(nil), p.info.Capabilities...)

	return i
}
