package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/scope"
)

func TestDictionary_Translations(t *testing.T) {
	env := newTestEnv(t)
	var itemID int
	env.run(t, func(s *scope.Scope) {
		en := env.language(t, s, "en-US")
		da := env.language(t, s, "da-DK")

		item := models.NewDictionaryItem("greeting")
		item.SetTranslation(en.ID, "Hello")
		item.SetTranslation(da.ID, "Hej")
		require.NoError(t, env.repos.Dictionary.Save(s, item))
		itemID = item.ID

		item.SetTranslation(en.ID, "Hi")
		item.Translations = item.Translations[:1]
		require.NoError(t, env.repos.Dictionary.Save(s, item))

		bad := models.NewDictionaryItem("bad")
		bad.SetTranslation(9999, "x")
		assert.ErrorIs(t, env.repos.Dictionary.Save(s, bad), models.ErrInvalidOperation)
		assert.ErrorIs(t, env.repos.Dictionary.Save(s, models.NewDictionaryItem("")), models.ErrInvalidOperation)
	})

	env.run(t, func(s *scope.Scope) { env.repos.Dictionary.ClearCache(s) })
	env.run(t, func(s *scope.Scope) {
		item, err := env.repos.Dictionary.GetByItemKey(s, "greeting")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, itemID, item.ID)
		require.Len(t, item.Translations, 1)
		assert.Equal(t, "Hi", item.Translations[0].Value)
		assert.Equal(t, "en-US", item.Translations[0].LanguageIsoCode)

		missing, err := env.repos.Dictionary.GetByItemKey(s, "bad")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestDictionary_Tree(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		en := env.language(t, s, "en-US")
		dict := env.repos.Dictionary

		add := func(itemKey string, parent uuid.UUID) *models.DictionaryItem {
			item := models.NewDictionaryItem(itemKey)
			item.ParentKey = parent
			item.SetTranslation(en.ID, itemKey)
			require.NoError(t, dict.Save(s, item))
			return item
		}
		root := add("root", uuid.Nil)
		child := add("root.child", root.Key)
		add("root.child.leaf", child.Key)
		add("root.sibling", root.Key)
		other := add("other", uuid.Nil)

		top, err := dict.GetChildren(s, uuid.Nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"root", "other"}, itemKeys(top))

		children, err := dict.GetChildren(s, root.Key)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"root.child", "root.sibling"}, itemKeys(children))

		below, err := dict.GetDescendants(s, root.Key)
		require.NoError(t, err)
		assert.Equal(t, []string{"root.child", "root.sibling", "root.child.leaf"}, itemKeys(below))

		all, err := dict.GetDescendants(s, uuid.Nil)
		require.NoError(t, err)
		assert.Len(t, all, 5)

		keyMap, err := dict.GetKeyMap(s)
		require.NoError(t, err)
		assert.Equal(t, other.Key, keyMap["other"])

		require.NoError(t, dict.Delete(s, root))
		n, err := dict.Count(s, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		var texts int64
		require.NoError(t, s.DB().Table("dictionary_translations").Count(&texts).Error)
		assert.Equal(t, int64(1), texts)
	})
}

func itemKeys(items []*models.DictionaryItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ItemKey
	}
	return out
}
