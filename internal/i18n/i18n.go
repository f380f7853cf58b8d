// Package i18n holds the spoken prompts and voice command phrases of each
// supported language.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

// DefaultLang is used when no table matches a requested locale.
const DefaultLang = "fr"

// CommandPhrases are the phrases bound to a named voice command.
type CommandPhrases struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Patterns    []string `yaml:"patterns"`
}

// Table is one language's strings.
type Table struct {
	Lang       string            `yaml:"lang"`
	Name       string            `yaml:"name"`
	Voice      string            `yaml:"voice"`
	Messages   map[string]string `yaml:"messages"`
	Directions []string          `yaml:"directions"`
	Commands   []CommandPhrases  `yaml:"commands"`
}

// Catalog is the set of loaded tables.
type Catalog struct {
	tables  map[string]*Table
	langs   []string
	matcher language.Matcher
}

// Load reads the embedded tables.
func Load() (*Catalog, error) {
	return LoadFS(locales, "locales")
}

// LoadFS reads every *.yaml table under dir.
func LoadFS(fsys fs.FS, dir string) (*Catalog, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}

	c := &Catalog{tables: make(map[string]*Table)}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		var t Table
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f, err)
		}
		if t.Lang == "" {
			return nil, fmt.Errorf("%s: missing lang", f)
		}
		if len(t.Directions) != 8 {
			return nil, fmt.Errorf("%s: expected 8 directions, got %d", f, len(t.Directions))
		}
		c.tables[t.Lang] = &t
	}
	if _, ok := c.tables[DefaultLang]; !ok {
		return nil, fmt.Errorf("no %q table found", DefaultLang)
	}

	// default language first so the matcher falls back to it
	c.langs = append(c.langs, DefaultLang)
	var others []string
	for lang := range c.tables {
		if lang != DefaultLang {
			others = append(others, lang)
		}
	}
	sort.Strings(others)
	c.langs = append(c.langs, others...)

	tags := make([]language.Tag, len(c.langs))
	for i, l := range c.langs {
		tags[i] = language.Make(l)
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// Languages returns the loaded language codes, default first.
func (c *Catalog) Languages() []string {
	return append([]string(nil), c.langs...)
}

// Match returns the loaded language best matching a locale such as
// "fr-CH" or "en-US". Unknown or malformed locales get the default.
func (c *Catalog) Match(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultLang
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return DefaultLang
	}
	return c.langs[idx]
}

func (c *Catalog) table(lang string) *Table {
	if t, ok := c.tables[lang]; ok {
		return t
	}
	return c.tables[DefaultLang]
}

// Name returns the display name of lang.
func (c *Catalog) Name(lang string) string {
	return c.table(lang).Name
}

// Voice returns the speech synthesis locale of lang.
func (c *Catalog) Voice(lang string) string {
	return c.table(lang).Voice
}

// T formats the message key in lang. Missing keys fall back to the default
// language, then to the key itself.
func (c *Catalog) T(lang, key string, args ...any) string {
	msg, ok := c.table(lang).Messages[key]
	if !ok {
		msg, ok = c.tables[DefaultLang].Messages[key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Direction names compass sector 0..7 (north, then clockwise).
func (c *Catalog) Direction(lang string, sector int) string {
	d := c.table(lang).Directions
	return d[((sector%8)+8)%8]
}

// Commands returns lang's voice command phrases in registration order.
func (c *Catalog) Commands(lang string) []CommandPhrases {
	return c.table(lang).Commands
}
