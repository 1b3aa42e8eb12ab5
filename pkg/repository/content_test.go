package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

func TestContent_SaveAndLoad(t *testing.T) {
	env := newTestEnv(t)
	var id int
	env.run(t, func(s *scope.Scope) {
		env.language(t, s, "en-US")
		env.language(t, s, "da-DK")
		ct := env.documentType(t, s, "page")

		doc := models.NewContent(models.ObjectTypeDocument, "Home", models.RootID, ct)
		doc.SetCultureName("en-US", "Home")
		doc.SetCultureName("da-DK", "Hjem")
		doc.SetValue("title", "Welcome", "")
		doc.SetValue("count", 3, "")
		doc.SetValue("summary", "Hello", "en-US")
		doc.SetValue("summary", "Hej", "da-DK")
		doc.SetValue("retired", "gone", "")
		require.NoError(t, env.repos.Documents.Save(s, doc))

		assert.Positive(t, doc.VersionID)
		assert.Nil(t, doc.Property("retired"), "values of unknown properties are dropped")
		assert.Equal(t, "-1,"+itoa(doc.ID), doc.Path)
		assert.Equal(t, 1, doc.Level)
		id = doc.ID
	})

	env.run(t, func(s *scope.Scope) {
		env.repos.Documents.ClearCache(s)
		doc, err := env.repos.Documents.Get(s, id)
		require.NoError(t, err)
		require.NotNil(t, doc)

		assert.Equal(t, "Home", doc.Name)
		assert.Equal(t, "page", doc.ContentTypeAlias)
		assert.Equal(t, "Hjem", doc.GetCultureName("da-DK"))
		assert.Equal(t, "Welcome", doc.GetValue("title", ""))
		assert.Equal(t, 3, doc.GetValue("count", ""))
		assert.Equal(t, "Hej", doc.GetValue("summary", "da-DK"))
		assert.Equal(t, "Hello", doc.GetValue("summary", "en-US"))
		assert.False(t, doc.Published)
		assert.Zero(t, doc.PublishedVersionID)
		assert.Equal(t, models.StateUnpublished, doc.PublishedState)
	})
}

func TestContent_InvalidValues(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		env.language(t, s, "en-US")
		ct := env.documentType(t, s, "page")

		doc := models.NewContent(models.ObjectTypeDocument, "Home", models.RootID, ct)
		doc.SetValue("title", "Velkommen", "en-US")
		assert.ErrorIs(t, env.repos.Documents.Save(s, doc), models.ErrInvalidOperation)

		doc = models.NewContent(models.ObjectTypeDocument, "Home", models.RootID, ct)
		doc.SetCultureName("fr-FR", "Accueil")
		assert.ErrorIs(t, env.repos.Documents.Save(s, doc), models.ErrInvalidOperation)

		orphan := models.NewContent(models.ObjectTypeDocument, "Orphan", models.RootID, nil)
		orphan.ContentTypeID = 999
		assert.ErrorIs(t, env.repos.Documents.Save(s, orphan), models.ErrNotFound)

		n, err := env.repos.Documents.Count(s, nil)
		require.NoError(t, err)
		assert.Zero(t, n, "failed saves leave no rows")
	})
}

func TestContent_PublishingVersions(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		env.language(t, s, "en-US")
		ct := env.documentType(t, s, "page")
		docs := env.repos.Documents

		doc := models.NewContent(models.ObjectTypeDocument, "Home", models.RootID, ct)
		doc.SetValue("title", "Welcome", "")
		require.NoError(t, docs.Save(s, doc))
		v1 := doc.VersionID

		doc.Publish()
		require.NoError(t, docs.Save(s, doc))
		v2 := doc.VersionID
		assert.NotEqual(t, v1, v2, "publishing inserts a new version")
		assert.Equal(t, v2, doc.PublishedVersionID, "the new version is current and published")
		assert.True(t, doc.IsPublishedVersion())
		assert.True(t, doc.Published)
		assert.False(t, doc.Edited)
		assert.Equal(t, models.StatePublished, doc.PublishedState)

		doc.SetValue("title", "Draft", "")
		require.NoError(t, docs.Save(s, doc))
		assert.Equal(t, v2, doc.VersionID, "edits rewrite the current version")
		assert.True(t, doc.Edited)

		docs.ClearCache(s)
		current, err := docs.Get(s, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Draft", current.GetValue("title", ""))
		assert.Equal(t, v2, current.PublishedVersionID)
		assert.True(t, current.Published)
		assert.True(t, current.Edited)
		assert.Equal(t, models.StatePublished, current.PublishedState)

		history, err := docs.GetVersion(s, v1)
		require.NoError(t, err)
		require.NotNil(t, history)
		assert.False(t, history.IsPublishedVersion())
		assert.Equal(t, "Welcome", history.GetValue("title", ""))

		versions, err := docs.GetAllVersions(s, doc.ID)
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.Equal(t, v2, versions[0].VersionID)
		assert.True(t, versions[0].IsPublishedVersion())
		assert.Equal(t, v1, versions[1].VersionID)

		assert.ErrorIs(t, docs.DeleteVersion(s, v2), models.ErrInvalidOperation)

		doc.Publish()
		require.NoError(t, docs.Save(s, doc))
		v3 := doc.VersionID
		assert.Equal(t, v3, doc.PublishedVersionID)

		prior, err := docs.GetVersion(s, v2)
		require.NoError(t, err)
		require.NotNil(t, prior)
		assert.False(t, prior.IsPublishedVersion(), "the prior published version is kept as history")
		assert.Equal(t, "Draft", prior.GetValue("title", ""))

		ids, err := docs.GetVersionIDs(s, doc.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, []int{v3, v2, v1}, ids)

		require.NoError(t, docs.DeleteVersion(s, v1))
		gone, err := docs.GetVersion(s, v1)
		require.NoError(t, err)
		assert.Nil(t, gone)

		doc.Unpublish()
		require.NoError(t, docs.Save(s, doc))
		assert.False(t, doc.Published)
		assert.Zero(t, doc.PublishedVersionID)
		assert.Equal(t, v3, doc.VersionID, "unpublishing creates no version")
		assert.Equal(t, models.StateUnpublished, doc.PublishedState)

		deleted, err := docs.DeleteVersions(s, doc.ID, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		ids, err = docs.GetVersionIDs(s, doc.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, []int{v3}, ids)
	})
}

func TestContent_PublishOnInsert(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		env.language(t, s, "en-US")
		ct := env.documentType(t, s, "page")
		docs := env.repos.Documents

		doc := models.NewContent(models.ObjectTypeDocument, "Home", models.RootID, ct)
		doc.Publish()
		require.NoError(t, docs.Save(s, doc))
		assert.Equal(t, doc.VersionID, doc.PublishedVersionID)
		assert.Equal(t, models.StatePublished, doc.PublishedState)

		ids, err := docs.GetVersionIDs(s, doc.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, []int{doc.VersionID}, ids)
	})
}

func TestContent_MediaIsNotPublishable(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		mt := models.NewContentType(models.ObjectTypeMediaType, "image", "Image")
		mt.AddPropertyType(&models.PropertyType{Alias: "width", Name: "Width", ValueStorage: models.StorageInteger})
		require.NoError(t, env.repos.MediaTypes.Save(s, mt))

		img := models.NewContent(models.ObjectTypeMedia, "logo.png", models.RootID, mt)
		img.SetValue("width", 640, "")
		img.Publish()
		require.NoError(t, env.repos.Media.Save(s, img))
		assert.False(t, img.Published)
		assert.Equal(t, models.StateUnpublished, img.PublishedState)

		got, err := env.repos.Media.Get(s, img.ID)
		require.NoError(t, err)
		assert.Equal(t, 640, got.GetValue("width", ""))

		// A media item is invisible to the document repository.
		doc, err := env.repos.Documents.Get(s, img.ID)
		require.NoError(t, err)
		assert.Nil(t, doc)
	})
}

func TestContent_Members(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		mt := models.NewContentType(models.ObjectTypeMemberType, "member", "Member")
		require.NoError(t, env.repos.MemberTypes.Save(s, mt))

		m := models.NewContent(models.ObjectTypeMember, "Jane", models.RootID, mt)
		m.Email = "jane@example.com"
		m.Username = "jane"
		require.NoError(t, env.repos.Members.Save(s, m))

		m.Email = "jane@example.org"
		require.NoError(t, env.repos.Members.Save(s, m))

		found, err := env.repos.Members.Query(s, query.New().Where(query.Eq("username", "jane")))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "jane@example.org", found[0].Email)
	})
}

func TestContent_TreeAndMove(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		env.language(t, s, "en-US")
		ct := env.documentType(t, s, "page")
		docs := env.repos.Documents

		home := env.document(t, s, "Home", models.RootID, ct)
		a := env.document(t, s, "A", home.ID, ct)
		a1 := env.document(t, s, "A1", a.ID, ct)
		b := env.document(t, s, "B", home.ID, ct)

		assert.Equal(t, 0, a.SortOrder)
		assert.Equal(t, 1, b.SortOrder)
		assert.Equal(t, 3, a1.Level)

		children, err := docs.GetChildren(s, home.ID)
		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, "A", children[0].Name)

		n, err := docs.CountChildren(s, home.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		moved, err := docs.Move(s, a, b.ID)
		require.NoError(t, err)
		require.Len(t, moved, 2)
		assert.Equal(t, a.ID, moved[0].ID)
		assert.Equal(t, home.Path+","+itoa(a.ID), moved[0].OriginalPath)
		assert.Equal(t, b.Path+","+itoa(a.ID), moved[0].NewPath)
		assert.Equal(t, b.Path+","+itoa(a.ID)+","+itoa(a1.ID), moved[1].NewPath)
		assert.Equal(t, 3, a.Level)

		got, err := docs.Get(s, a1.ID)
		require.NoError(t, err)
		assert.Equal(t, moved[1].NewPath, got.Path)
		assert.Equal(t, 4, got.Level)

		descendants, err := docs.GetDescendants(s, home.ID)
		require.NoError(t, err)
		assert.Len(t, descendants, 3)

		_, err = docs.Move(s, b, a1.ID)
		assert.ErrorIs(t, err, models.ErrInvalidOperation, "cannot move below a descendant")
		_, err = docs.Move(s, b, 12345)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestContent_Ordering(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		env.language(t, s, "en-US")
		env.language(t, s, "da-DK")
		ct := env.documentType(t, s, "page")
		docs := env.repos.Documents

		home := env.document(t, s, "Home", models.RootID, ct)
		for _, spec := range []struct {
			name, danish string
			count        int
		}{
			{"Apple", "Æble", 3},
			{"Banana", "Banan", 1},
			{"Cherry", "Kirsebær", 2},
		} {
			c := models.NewContent(models.ObjectTypeDocument, spec.name, home.ID, ct)
			c.SetCultureName("da-DK", spec.danish)
			c.SetValue("count", spec.count, "")
			require.NoError(t, docs.Save(s, c))
		}

		byCount, total, err := docs.GetPageByParent(s, home.ID, 0, 10, nil, query.OrderByCustom("count", query.Descending))
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []string{"Apple", "Cherry", "Banana"}, names(byCount))

		byDanish, _, err := docs.GetPageByParent(s, home.ID, 0, 10, nil,
			query.Ordering{Field: "name", Direction: query.Ascending, Culture: "da-DK"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Banana", "Cherry", "Apple"}, names(byDanish))

		filtered, total, err := docs.GetPageByParent(s, home.ID, 0, 10,
			query.New().Where(query.StartsWith("name", "B")))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"Banana"}, names(filtered))

		_, _, err = docs.GetPageByParent(s, home.ID, 0, 10, nil, query.OrderByCustom("nope", query.Ascending))
		assert.Error(t, err)
	})
}

func TestContent_DeleteRemovesDescendants(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		env.language(t, s, "en-US")
		ct := env.documentType(t, s, "page")
		docs := env.repos.Documents

		home := env.document(t, s, "Home", models.RootID, ct)
		child := env.document(t, s, "Child", home.ID, ct)
		other := env.document(t, s, "Other", models.RootID, ct)

		domain := &models.Domain{DomainName: "example.com", RootContentID: home.ID}
		require.NoError(t, env.repos.Domains.Save(s, domain))

		require.NoError(t, docs.Delete(s, home))

		for _, id := range []int{home.ID, child.ID} {
			got, err := docs.Get(s, id)
			require.NoError(t, err)
			assert.Nil(t, got)
		}
		still, err := docs.Get(s, other.ID)
		require.NoError(t, err)
		assert.NotNil(t, still)

		d, err := env.repos.Domains.Get(s, domain.ID)
		require.NoError(t, err)
		assert.Nil(t, d, "domains of deleted content are deleted")

		ids, err := docs.GetVersionIDs(s, home.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func names(items []*models.Content) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Name
	}
	return out
}

func TestContent_GetUniqueName(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		env.language(t, s, "en-US")
		ct := env.documentType(t, s, "page")
		docs := env.repos.Documents

		home := env.document(t, s, "Home", models.RootID, ct)
		env.document(t, s, "News", home.ID, ct)
		news2 := env.document(t, s, "News (2)", home.ID, ct)

		name, err := docs.GetUniqueName(s, home.ID, 0, "News")
		require.NoError(t, err)
		assert.Equal(t, "News (1)", name)

		name, err = docs.GetUniqueName(s, home.ID, 0, "News (2)")
		require.NoError(t, err)
		assert.Equal(t, "News (1)", name)

		name, err = docs.GetUniqueName(s, home.ID, news2.ID, "News (2)")
		require.NoError(t, err)
		assert.Equal(t, "News (2)", name)

		name, err = docs.GetUniqueName(s, models.RootID, 0, "News")
		require.NoError(t, err)
		assert.Equal(t, "News", name)
	})
}
