// Package i18n provides the interface translations and language matching.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Fallback is used when no preferred language is supported.
var Fallback = language.English

//go:embed locales/*.toml
var embeddedLocales embed.FS

type localeFile struct {
	Locale   string            `toml:"locale"`
	Name     string            `toml:"name"`
	Messages map[string]string `toml:"messages"`
}

// Language is a supported interface language.
type Language struct {
	Tag  language.Tag
	Name string
}

// Bundle holds the loaded catalogs.
type Bundle struct {
	languages []Language
	tags      []language.Tag
	matcher   language.Matcher
	catalog   *catalog.Builder
	keys      map[language.Tag]map[string]struct{}
}

var defaultBundle = mustLoadEmbedded()

// Default returns the bundle built from the embedded catalogs.
func Default() *Bundle {
	return defaultBundle
}

func mustLoadEmbedded() *Bundle {
	b, err := LoadFromFS(embeddedLocales)
	if err != nil {
		panic(err)
	}
	return b
}

// LoadFromFS loads every locales/*.toml file in fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to list locales: %w", err)
	}
	sort.Strings(paths)

	b := &Bundle{
		catalog: catalog.NewBuilder(catalog.Fallback(Fallback)),
		keys:    map[language.Tag]map[string]struct{}{},
	}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		var file localeFile
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		tag, err := language.Parse(file.Locale)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid locale %q: %w", path, file.Locale, err)
		}
		keys := make(map[string]struct{}, len(file.Messages))
		for key, msg := range file.Messages {
			if err := b.catalog.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("%s: failed to register %q: %w", path, key, err)
			}
			keys[key] = struct{}{}
		}
		b.keys[tag] = keys
		b.languages = append(b.languages, Language{Tag: tag, Name: file.Name})
	}
	if _, ok := b.keys[Fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %s is missing", Fallback)
	}

	// The fallback goes first so the matcher defaults to it.
	sort.SliceStable(b.languages, func(i, j int) bool {
		return b.languages[i].Tag == Fallback && b.languages[j].Tag != Fallback
	})
	for _, l := range b.languages {
		b.tags = append(b.tags, l.Tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Languages lists the supported languages, fallback first.
func (b *Bundle) Languages() []Language {
	out := make([]Language, len(b.languages))
	copy(out, b.languages)
	return out
}

// Resolve returns the supported language best matching the first usable
// preference. Preferences may be tags ("it"), POSIX locales ("it_IT.UTF-8")
// or Accept-Language lists; empty ones are skipped.
func (b *Bundle) Resolve(preferred ...string) language.Tag {
	for _, pref := range preferred {
		tags := parsePreference(pref)
		if len(tags) == 0 {
			continue
		}
		_, idx, conf := b.matcher.Match(tags...)
		if conf != language.No {
			return b.tags[idx]
		}
	}
	return Fallback
}

// Next returns the language after tag in Languages order, wrapping around.
func (b *Bundle) Next(tag language.Tag) language.Tag {
	for i, t := range b.tags {
		if t == tag {
			return b.tags[(i+1)%len(b.tags)]
		}
	}
	return Fallback
}

// Printer returns a printer for tag backed by the bundle catalog.
func (b *Bundle) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(b.catalog))
}

// Missing lists keys defined for the fallback but not for tag.
func (b *Bundle) Missing(tag language.Tag) []string {
	var out []string
	own := b.keys[tag]
	for key := range b.keys[Fallback] {
		if _, ok := own[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// EnvLocale returns the locale from the environment, following the usual
// precedence of LC_ALL, LC_MESSAGES and LANG.
func EnvLocale() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" && v != "C" && v != "POSIX" {
			return v
		}
	}
	return ""
}

func parsePreference(pref string) []language.Tag {
	pref = strings.TrimSpace(pref)
	if pref == "" {
		return nil
	}
	// POSIX suffixes (".UTF-8", "@euro") are cut per element, so the
	// q-values of an Accept-Language list survive.
	parts := strings.Split(pref, ",")
	for i, part := range parts {
		tag, params, _ := strings.Cut(part, ";")
		if j := strings.IndexAny(tag, ".@"); j >= 0 {
			tag = tag[:j]
		}
		tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
		if params != "" {
			tag += ";" + params
		}
		parts[i] = tag
	}
	tags, _, err := language.ParseAcceptLanguage(strings.Join(parts, ","))
	if err != nil {
		return nil
	}
	return tags
}
