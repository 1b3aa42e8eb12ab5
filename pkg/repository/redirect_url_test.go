package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/scope"
)

func TestRedirectURL_MostRecent(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		urls := env.repos.RedirectURLs
		first, second := uuid.New(), uuid.New()

		require.NoError(t, urls.Save(s, &models.RedirectURL{ContentKey: first, URL: "/old"}))
		require.NoError(t, urls.Save(s, &models.RedirectURL{ContentKey: second, URL: "/old", Culture: "da-DK"}))

		recent, err := urls.GetMostRecentURL(s, "/old")
		require.NoError(t, err)
		require.NotNil(t, recent)
		assert.Equal(t, second, recent.ContentKey, "the newest record wins")

		forCulture, err := urls.GetMostRecentURLForCulture(s, "/old", "en-US")
		require.NoError(t, err)
		require.NotNil(t, forCulture)
		assert.Equal(t, first, forCulture.ContentKey, "records without culture match any culture")

		exact, err := urls.GetURL(s, "/old", second, "da-DK")
		require.NoError(t, err)
		require.NotNil(t, exact)
		none, err := urls.GetURL(s, "/old", second, "")
		require.NoError(t, err)
		assert.Nil(t, none)

		missing, err := urls.GetMostRecentURL(s, "/nowhere")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestRedirectURL_SameURLRefreshes(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		urls := env.repos.RedirectURLs
		key := uuid.New()

		a := &models.RedirectURL{ContentKey: key, URL: "/a"}
		require.NoError(t, urls.Save(s, a))
		again := &models.RedirectURL{ContentKey: key, URL: "/a"}
		require.NoError(t, urls.Save(s, again))
		assert.Equal(t, a.ID, again.ID)

		require.NoError(t, urls.Save(s, &models.RedirectURL{ContentKey: key, URL: "/b"}))
		list, err := urls.GetContentURLs(s, key)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "/b", list[0].URL)

		assert.ErrorIs(t, urls.Save(s, &models.RedirectURL{URL: "/c"}), models.ErrInvalidOperation)
	})
}

func TestRedirectURL_PagingAndDeletion(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		env.language(t, s, "en-US")
		ct := env.documentType(t, s, "page")
		home := env.document(t, s, "Home", models.RootID, ct)
		child := env.document(t, s, "Child", home.ID, ct)
		other := env.document(t, s, "Other", models.RootID, ct)
		urls := env.repos.RedirectURLs

		require.NoError(t, urls.Save(s, &models.RedirectURL{ContentKey: home.Key, URL: "/home-old"}))
		require.NoError(t, urls.Save(s, &models.RedirectURL{ContentKey: child.Key, URL: "/home-old/child"}))
		require.NoError(t, urls.Save(s, &models.RedirectURL{ContentKey: other.Key, URL: "/other-old"}))

		page, total, err := urls.GetAllURLs(s, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, page, 2)

		below, total, err := urls.GetAllURLsForRoot(s, home.ID, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, u := range below {
			assert.Contains(t, []int{home.ID, child.ID}, u.ContentID)
		}

		found, total, err := urls.SearchURLs(s, "child", 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, found, 1)
		assert.Equal(t, child.ID, found[0].ContentID)

		require.NoError(t, urls.DeleteContentURLs(s, home.Key))
		_, total, err = urls.GetAllURLs(s, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		require.NoError(t, urls.DeleteAll(s))
		_, total, err = urls.GetAllURLs(s, 0, 10)
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}
