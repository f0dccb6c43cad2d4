package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func loadBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := Load("en-US")
	require.NoError(t, err)
	return b
}

func TestLoad_UnknownDefault(t *testing.T) {
	_, err := Load("fr-FR")
	assert.Error(t, err)

	_, err = Load("not a tag!")
	assert.Error(t, err)
}

func TestBundle_Match(t *testing.T) {
	b := loadBundle(t)

	assert.Equal(t, language.MustParse("en-US"), b.Supported()[0])
	assert.Equal(t, language.MustParse("pt-BR"), b.Match("pt-BR,pt;q=0.9,en;q=0.8"))
	assert.Equal(t, language.MustParse("pt-BR"), b.Match("pt"))
	assert.Equal(t, language.MustParse("en-US"), b.Match("en-GB"))
	assert.Equal(t, language.MustParse("en-US"), b.Match("ja"))
	assert.Equal(t, language.MustParse("en-US"), b.Match(""))
	assert.Equal(t, language.MustParse("en-US"), b.Match(";;;"))
}

func TestBundle_Translate(t *testing.T) {
	b := loadBundle(t)
	pt := WithLanguage(context.Background(), language.MustParse("pt-BR"))

	assert.Equal(t, "Invalid email or password.", b.Translate(context.Background(), "auth.invalidCredentials", nil))
	assert.Equal(t, "E-mail ou senha inválidos.", b.Translate(pt, "auth.invalidCredentials", nil))
	assert.Equal(t, "no.such.key", b.Translate(pt, "no.such.key", nil))
	assert.Equal(t, "password is required.", b.Translate(context.Background(), "validation.required", map[string]string{"field": "password"}))
}

func TestBundle_TranslateEmail(t *testing.T) {
	b := loadBundle(t)
	args := map[string]string{
		"name":      "<b>Ana</b>",
		"resetUrl":  "http://localhost:3000/reset-password?token=abc",
		"expiresIn": "1",
	}

	text := b.Translate(context.Background(), "auth.requestPasswordEmail.text", args)
	assert.Contains(t, text, "Hello <b>Ana</b>,")
	assert.Contains(t, text, "http://localhost:3000/reset-password?token=abc")

	html := b.Translate(context.Background(), "auth.requestPasswordEmail.html", args)
	assert.Contains(t, html, "&lt;b&gt;Ana&lt;/b&gt;")
	assert.Contains(t, html, `href="http://localhost:3000/reset-password?token=abc"`)
}

func TestLanguageFrom(t *testing.T) {
	_, ok := LanguageFrom(context.Background())
	assert.False(t, ok)

	tag, ok := LanguageFrom(WithLanguage(context.Background(), language.BrazilianPortuguese))
	assert.True(t, ok)
	assert.Equal(t, language.BrazilianPortuguese, tag)
}

func TestCatalogs_ShareKeys(t *testing.T) {
	b := loadBundle(t)
	base := b.catalogs[language.MustParse("en-US")]
	for tag, catalog := range b.catalogs {
		assert.Len(t, catalog, len(base), tag.String())
		for key := range base {
			assert.Contains(t, catalog, key, tag.String())
		}
	}

	assert.Contains(t, base, "validation.maxBytes")
	// reset confirmation answers 204 with no body, so it has no message
	assert.NotContains(t, base, "auth.resetPasswordSuccess")
}
