// Package i18n translates the messages the l10nkit CLI prints about its own
// work (mapping summaries, rebase results, check failures). It has nothing to
// do with the GRD content being rebased.
//
// Catalogs live under locales/<lang>/LC_MESSAGES/l10nkit.po and are embedded
// in the binary. English is the source language and never loads a catalog.
// A region-qualified locale such as ru_RU falls back to its base language
// catalog; a language without a catalog behaves like English.
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the .po catalogs.
// Directory structure: locales/{lang}/LC_MESSAGES/l10nkit.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for l10nkit.
const domain = "l10nkit"

// po is the gotext locale object used for translations.
var po *gotext.Locale

// current is the catalog po was loaded from.
var current = "en"

// Init selects the catalog for lang, or for the language detected from
// LANGUAGE, LC_ALL, LC_MESSAGES and LANG when lang is empty. It should be
// called once from main before any T or N call.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	name, ok := catalogFor(lang)
	if !ok {
		po, current = nil, "en"
		return
	}
	current = name

	po = gotext.NewLocaleFSWithPath(name, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Lang returns the catalog in use, or "en" when messages pass through.
func Lang() string {
	if po == nil {
		return "en"
	}
	return current
}

// catalogFor returns the embedded catalog directory serving lang: the full
// locale first, then its base language.
func catalogFor(lang string) (string, bool) {
	base, _, _ := strings.Cut(lang, "_")
	if base == "en" {
		return "", false
	}
	for _, name := range []string{lang, base} {
		if _, err := fs.Stat(locales, path.Join("locales", name, "LC_MESSAGES", domain+".po")); err == nil {
			return name, true
		}
	}
	return "", false
}

// T translates a string. If no translation is available, returns the
// original string unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms. The singular form is used
// when n == 1, the plural form otherwise (exact rules depend on the
// target language's plural formula).
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	// GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list; take the first
			if env == "LANGUAGE" {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// Strip encoding suffix (e.g. "ru_RU.UTF-8" -> "ru_RU")
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			// Skip "C" and "POSIX", these mean no translation
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}
