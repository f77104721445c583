// Package i18n translates the user facing strings of a scan report.
//
// Keys are the English texts themselves; English output is the identity
// translation and Spanish is the only other supported language.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var supported = []language.Tag{language.English, language.Spanish}

var spanish = map[string]string{
	// intersection classification
	"not addmissible intersection":                 "intersección no admisible",
	"crosses":                                      "se cruzan",
	"result intersection is not point or line":     "la intersección resultante no es punto ni línea",
	"invalid addmissible intersection":             "intersección admisible no válida",
	"not a line-line or line-polygon intersection": "no es una intersección línea-línea o línea-polígono",

	// csv headers
	"id":           "id",
	"reason":       "motivo",
	"location":     "ubicación",
	"amount":       "cantidad",
	"number":       "número",
	"table-1":      "tabla-1",
	"table-1-id":   "tabla-1-id",
	"table-2":      "tabla-2",
	"table-2-id":   "tabla-2-id",
	"intersection": "intersección",
	"message":      "mensaje",

	// summary
	"Parameters":       "Parámetros",
	"Schema":           "Esquema",
	"Number of tables": "Número de tablas",
	"Failed tables":    "Tablas con errores",
	"Skipped pairs":    "Pares omitidos",
	"Start time":       "Hora de inicio",
	"End time":         "Hora de fin",
	"Processing":       "Procesando",
	"Tables":           "Tablas",
	"End":              "Fin",
}

// Catalog renders message keys in one language
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
}

// NewCatalog returns a catalog for lang. Empty, malformed and unsupported
// tags fall back to English.
func NewCatalog(lang string) *Catalog {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, translation := range spanish {
		// SetString only fails on malformed messages
		_ = builder.SetString(language.English, key, key)
		_ = builder.SetString(language.Spanish, key, translation)
	}

	tag := match(lang)
	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}
}

func match(lang string) language.Tag {
	if lang == "" {
		return language.English
	}
	requested, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	_, index, confidence := language.NewMatcher(supported).Match(requested)
	if confidence == language.No {
		return language.English
	}
	return supported[index]
}

// Tag returns the language the catalog renders
func (c *Catalog) Tag() language.Tag {
	return c.tag
}

// T translates key. Unknown keys are returned unchanged.
func (c *Catalog) T(key string) string {
	if c == nil {
		return key
	}
	return c.printer.Sprintf(key)
}

// Ts translates every key in order
func (c *Catalog) Ts(keys ...string) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = c.T(key)
	}
	return out
}
