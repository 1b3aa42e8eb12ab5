package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/scope"
)

func TestLanguage_DeleteFallbackTarget(t *testing.T) {
	env := newTestEnv(t)
	var da, pt *models.Language
	env.run(t, func(s *scope.Scope) {
		env.language(t, s, "en-US")
		da = env.language(t, s, "da-DK")
		pt = models.NewLanguage("pt-PT", "Portuguese")
		pt.FallbackLanguageID = da.ID
		require.NoError(t, env.repos.Languages.Save(s, pt))
	})

	env.run(t, func(s *scope.Scope) {
		require.NoError(t, env.repos.Languages.Delete(s, da))

		ok, err := env.repos.Languages.Exists(s, da.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := env.repos.Languages.Get(s, pt.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Zero(t, got.FallbackLanguageID)
	})
}

func TestLanguage_DefaultHandling(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		langs := env.repos.Languages

		en := env.language(t, s, "en-US")
		assert.True(t, en.IsDefault, "the first language becomes the default")
		da := env.language(t, s, "da-DK")
		assert.False(t, da.IsDefault)

		da.IsDefault = true
		require.NoError(t, langs.Save(s, da))

		got, err := langs.Get(s, en.ID)
		require.NoError(t, err)
		assert.False(t, got.IsDefault, "claiming the default clears the previous one")

		def, err := langs.GetDefaultIsoCode(s)
		require.NoError(t, err)
		assert.Equal(t, "da-DK", def)

		da.IsDefault = false
		assert.ErrorIs(t, langs.Save(s, da), models.ErrInvalidOperation)
		da.IsDefault = true
		assert.ErrorIs(t, langs.Delete(s, da), models.ErrInvalidOperation)
	})
}

func TestLanguage_IsoCodes(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		langs := env.repos.Languages
		en := env.language(t, s, "en-US")
		da := env.language(t, s, "da-DK")

		got, err := langs.GetByIsoCode(s, "DA-dk")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, da.ID, got.ID)

		id, err := langs.GetIDByIsoCode(s, "fr-FR")
		require.NoError(t, err)
		assert.Zero(t, id)

		iso, err := langs.GetIsoCodeByID(s, en.ID)
		require.NoError(t, err)
		assert.Equal(t, "en-US", iso)

		da.IsoCode = "EN-us"
		assert.ErrorIs(t, langs.Save(s, da), models.ErrInvalidOperation)
	})
}

func TestLanguage_FallbackValidation(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		langs := env.repos.Languages
		en := env.language(t, s, "en-US")
		da := env.language(t, s, "da-DK")

		da.FallbackLanguageID = en.ID
		require.NoError(t, langs.Save(s, da))

		en.FallbackLanguageID = da.ID
		assert.ErrorIs(t, langs.Save(s, en), models.ErrInvalidOperation, "fallback cycles are rejected")

		en.FallbackLanguageID = en.ID
		assert.ErrorIs(t, langs.Save(s, en), models.ErrInvalidOperation)

		en.FallbackLanguageID = 999
		assert.ErrorIs(t, langs.Save(s, en), models.ErrNotFound)
	})
}

func TestLanguage_FallbackChain(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		langs := env.repos.Languages
		env.language(t, s, "en-US")
		da := env.language(t, s, "da-DK")

		pt := models.NewLanguage("pt-PT", "Portuguese")
		pt.FallbackLanguageID = da.ID
		require.NoError(t, langs.Save(s, pt), "falling back to a language without a fallback")

		br := models.NewLanguage("pt-BR", "Brazilian Portuguese")
		br.FallbackLanguageID = pt.ID
		require.NoError(t, langs.Save(s, br))

		got, err := langs.Get(s, br.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, pt.ID, got.FallbackLanguageID)

		da.FallbackLanguageID = br.ID
		assert.ErrorIs(t, langs.Save(s, da), models.ErrInvalidOperation)
	})
}

func TestLanguage_DeleteRemovesVariantData(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		env.language(t, s, "en-US")
		da := env.language(t, s, "da-DK")
		ct := env.documentType(t, s, "page")

		doc := models.NewContent(models.ObjectTypeDocument, "Home", models.RootID, ct)
		doc.SetCultureName("da-DK", "Hjem")
		doc.SetValue("summary", "Hej", "da-DK")
		doc.SetValue("summary", "Hi", "en-US")
		require.NoError(t, env.repos.Documents.Save(s, doc))

		domain := &models.Domain{DomainName: "example.dk", RootContentID: doc.ID, LanguageID: da.ID}
		require.NoError(t, env.repos.Domains.Save(s, domain))
		assert.Equal(t, "da-DK", domain.LanguageIsoCode)

		item := models.NewDictionaryItem("greeting")
		item.SetTranslation(da.ID, "Hej")
		require.NoError(t, env.repos.Dictionary.Save(s, item))

		require.NoError(t, env.repos.Languages.Delete(s, da))

		got, err := env.repos.Documents.Get(s, doc.ID)
		require.NoError(t, err)
		assert.Empty(t, got.GetCultureName("da-DK"))
		assert.Nil(t, got.GetValue("summary", "da-DK"))
		assert.Equal(t, "Hi", got.GetValue("summary", "en-US"))

		d, err := env.repos.Domains.Get(s, domain.ID)
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Zero(t, d.LanguageID)

		gotItem, err := env.repos.Dictionary.Get(s, item.ID)
		require.NoError(t, err)
		assert.Empty(t, gotItem.Translations)
	})
}
