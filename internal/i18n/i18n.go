// Package i18n loads the embedded message catalogs and resolves message keys
// for the language negotiated from Accept-Language.
package i18n

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

// Bundle holds one flattened catalog per supported language.
type Bundle struct {
	fallback language.Tag
	tags     []language.Tag
	matcher  language.Matcher
	catalogs map[language.Tag]map[string]string
}

// Load reads every embedded catalog. defaultLocale must be one of them and
// is used when negotiation fails or a key is missing.
func Load(defaultLocale string) (*Bundle, error) {
	fallback, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("parse default locale %q: %w", defaultLocale, err)
	}

	files, err := fs.Glob(locales, "locales/*.yaml")
	if err != nil {
		return nil, err
	}
	b := &Bundle{fallback: fallback, catalogs: make(map[language.Tag]map[string]string)}
	for _, name := range files {
		tag, err := language.Parse(strings.TrimSuffix(path.Base(name), ".yaml"))
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", name, err)
		}
		raw, err := locales.ReadFile(name)
		if err != nil {
			return nil, err
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", name, err)
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		b.catalogs[tag] = flat
	}
	if _, ok := b.catalogs[fallback]; !ok {
		return nil, fmt.Errorf("no catalog for default locale %q", defaultLocale)
	}

	// the matcher falls back to the first tag
	b.tags = append(b.tags, fallback)
	others := make([]language.Tag, 0, len(b.catalogs))
	for tag := range b.catalogs {
		if tag != fallback {
			others = append(others, tag)
		}
	}
	sort.Slice(others, func(i, j int) bool { return others[i].String() < others[j].String() })
	b.tags = append(b.tags, others...)
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Supported lists the catalog languages, default first.
func (b *Bundle) Supported() []language.Tag {
	return append([]language.Tag(nil), b.tags...)
}

// Match picks the best supported language for an Accept-Language header.
func (b *Bundle) Match(acceptLanguage string) language.Tag {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No {
		return b.fallback
	}
	return b.tags[idx]
}

// Translate renders key for the language stored in ctx. Keys ending in
// ".html" are rendered with html/template so arguments are escaped. An
// unknown key is returned as is.
func (b *Bundle) Translate(ctx context.Context, key string, args map[string]string) string {
	tag, ok := LanguageFrom(ctx)
	if !ok {
		tag = b.fallback
	}
	msg, ok := b.catalogs[tag][key]
	if !ok {
		if msg, ok = b.catalogs[b.fallback][key]; !ok {
			return key
		}
	}
	if len(args) == 0 || !strings.Contains(msg, "{{") {
		return msg
	}
	out, err := render(key, msg, args)
	if err != nil {
		return msg
	}
	return out
}

func render(key, msg string, args map[string]string) (string, error) {
	var buf bytes.Buffer
	if strings.HasSuffix(key, ".html") {
		t, err := htmltemplate.New(key).Option("missingkey=zero").Parse(msg)
		if err != nil {
			return "", err
		}
		err = t.Execute(&buf, args)
		return buf.String(), err
	}
	t, err := template.New(key).Option("missingkey=zero").Parse(msg)
	if err != nil {
		return "", err
	}
	err = t.Execute(&buf, args)
	return buf.String(), err
}

type ctxKey struct{}

// WithLanguage stores the negotiated language in ctx.
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, ctxKey{}, tag)
}

// LanguageFrom returns the language stored by WithLanguage.
func LanguageFrom(ctx context.Context) (language.Tag, bool) {
	tag, ok := ctx.Value(ctxKey{}).(language.Tag)
	return tag, ok
}
