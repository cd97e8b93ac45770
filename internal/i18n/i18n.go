// Package i18n renders user-facing strings from embedded locale catalogs.
// Unknown locales fall back to English, unknown keys fall back to the key
// itself so rendering never fails.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLocale is used when a tenant locale has no catalog.
const DefaultLocale = "en"

var catalogs = mustLoadCatalogs()

func mustLoadCatalogs() map[string]map[string]string {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		panic(fmt.Sprintf("i18n: read locales: %v", err))
	}

	loaded := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		raw, err := localeFS.ReadFile("locales/" + name)
		if err != nil {
			panic(fmt.Sprintf("i18n: read %s: %v", name, err))
		}
		catalog := make(map[string]string)
		if err := json.Unmarshal(raw, &catalog); err != nil {
			panic(fmt.Sprintf("i18n: parse %s: %v", name, err))
		}
		loaded[strings.TrimSuffix(name, ".json")] = catalog
	}

	if _, ok := loaded[DefaultLocale]; !ok {
		panic("i18n: default locale catalog missing")
	}
	return loaded
}

// Supported reports whether a catalog exists for the locale.
func Supported(locale string) bool {
	_, ok := catalogs[normalize(locale)]
	return ok
}

// T translates key for the given locale, interpolating {var} placeholders
// from vars. Missing variables are left as-is.
func T(locale, key string, vars map[string]string) string {
	catalog, ok := catalogs[normalize(locale)]
	if !ok {
		catalog = catalogs[DefaultLocale]
	}

	msg, ok := catalog[key]
	if !ok {
		if msg, ok = catalogs[DefaultLocale][key]; !ok {
			return key
		}
	}

	for name, value := range vars {
		msg = strings.ReplaceAll(msg, "{"+name+"}", value)
	}
	return msg
}

func normalize(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		locale = locale[:idx]
	}
	return locale
}
