package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Source is the language message keys are written in.
var Source = language.English

// Translator formats messages for the best matching language. Keys without a
// translation are formatted as is.
type Translator struct {
	cat     *catalog.Builder
	matcher language.Matcher
	tags    []language.Tag
}

func NewTranslator(translations map[language.Tag]map[string]string) (*Translator, error) {
	b := catalog.NewBuilder(catalog.Fallback(Source))

	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
	}

	tags := []language.Tag{Source}

	for _, t := range b.Languages() {
		if t != Source {
			tags = append(tags, t)
		}
	}

	return &Translator{
		cat:     b,
		matcher: language.NewMatcher(tags),
		tags:    tags,
	}, nil
}

func (t *Translator) Languages() []language.Tag {
	return append([]language.Tag(nil), t.tags...)
}

// Match returns the supported language for an Accept-Language header or a plain tag like "sv".
func (t *Translator) Match(accept string) language.Tag {
	if strings.TrimSpace(accept) == "" {
		return Source
	}

	prefs, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(prefs) == 0 {
		return Source
	}

	_, idx, conf := t.matcher.Match(prefs...)
	if conf == language.No {
		return Source
	}

	return t.tags[idx]
}

func (t *Translator) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(t.cat))
}

func (t *Translator) Translate(tag language.Tag, key string, args ...any) string {
	return t.Printer(tag).Sprintf(key, args...)
}
