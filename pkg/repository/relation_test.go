package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratacms/strata/pkg/database"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/scope"
)

type relationFixture struct {
	related, linked *models.RelationType
	a, b, c, m      *models.Content
}

func (e *testEnv) relationFixture(t *testing.T, s *scope.Scope) *relationFixture {
	t.Helper()
	f := &relationFixture{
		related: models.NewRelationType("Related", "related", true, models.ObjectTypeDocument, models.ObjectTypeDocument),
		linked:  models.NewRelationType("Linked", "linked", false, "", ""),
	}
	require.NoError(t, e.repos.RelationTypes.Save(s, f.related))
	require.NoError(t, e.repos.RelationTypes.Save(s, f.linked))

	e.language(t, s, "en-US")
	ct := e.documentType(t, s, "page")
	f.a = e.document(t, s, "A", models.RootID, ct)
	f.b = e.document(t, s, "B", models.RootID, ct)
	f.c = e.document(t, s, "C", models.RootID, ct)

	mt := models.NewContentType(models.ObjectTypeMediaType, "file", "File")
	require.NoError(t, e.repos.MediaTypes.Save(s, mt))
	f.m = models.NewContent(models.ObjectTypeMedia, "M", models.RootID, mt)
	require.NoError(t, e.repos.Media.Save(s, f.m))

	for _, rel := range []*models.Relation{
		models.NewRelation(f.a.ID, f.b.ID, f.related),
		models.NewRelation(f.a.ID, f.c.ID, f.linked),
		models.NewRelation(f.a.ID, f.m.ID, f.related),
		models.NewRelation(f.b.ID, f.b.ID, f.related),
		models.NewRelation(f.c.ID, f.b.ID, f.linked),
	} {
		require.NoError(t, e.repos.Relations.Save(s, rel))
	}
	return f
}

func slimIDs(items []*models.EntitySlim) []int {
	out := make([]int, len(items))
	for i, e := range items {
		out[i] = e.ID
	}
	return out
}

func TestRelation_PagedEntities(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		f := env.relationFixture(t, s)
		rels := env.repos.Relations

		children, total, err := rels.GetPagedChildEntitiesByParentID(s, f.a.ID, 0, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []int{f.b.ID, f.c.ID, f.m.ID}, slimIDs(children))

		linked, total, err := rels.GetPagedChildEntitiesByParentID(s, f.a.ID, 0, 10, []int{f.linked.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []int{f.c.ID}, slimIDs(linked))

		media, total, err := rels.GetPagedChildEntitiesByParentID(s, f.a.ID, 0, 10, nil, models.ObjectTypeMedia)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, media, 1)
		assert.Equal(t, models.ObjectTypeMedia, media[0].ObjectType)

		first, total, err := rels.GetPagedParentEntitiesByChildID(s, f.b.ID, 0, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		second, _, err := rels.GetPagedParentEntitiesByChildID(s, f.b.ID, 1, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, []int{f.a.ID, f.b.ID, f.c.ID}, append(slimIDs(first), slimIDs(second)...))

		self, total, err := rels.GetPagedChildEntitiesByParentID(s, f.b.ID, 0, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []int{f.b.ID}, slimIDs(self))

		_, _, err = rels.GetPagedChildEntitiesByParentID(s, f.b.ID, 0, 0, nil)
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
	})
}

func TestRelation_Lookups(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		f := env.relationFixture(t, s)
		rels := env.repos.Relations

		fromA, err := rels.GetByParentID(s, f.a.ID)
		require.NoError(t, err)
		assert.Len(t, fromA, 3)

		linkedFromA, err := rels.GetByParentID(s, f.a.ID, "linked")
		require.NoError(t, err)
		require.Len(t, linkedFromA, 1)
		assert.Equal(t, f.c.ID, linkedFromA[0].ChildID)
		assert.False(t, linkedFromA[0].Datetime.IsZero())

		toB, err := rels.GetByChildID(s, f.b.ID, "related")
		require.NoError(t, err)
		assert.Len(t, toB, 2)

		rt, err := env.repos.RelationTypes.GetByAlias(s, "related")
		require.NoError(t, err)
		require.NotNil(t, rt)
		assert.True(t, rt.IsBidirectional)
		assert.Equal(t, models.ObjectTypeDocument, rt.ChildObjectType)

		deleted, err := rels.DeleteByParent(s, f.a.ID, "related")
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
		fromA, err = rels.GetByParentID(s, f.a.ID)
		require.NoError(t, err)
		assert.Len(t, fromA, 1)
	})
}

func TestRelation_EndpointDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		f := env.relationFixture(t, s)
		rels := env.repos.Relations

		// Warm the cache so the cascade must invalidate it.
		all, err := rels.GetAll(s)
		require.NoError(t, err)
		require.Len(t, all, 5)

		require.NoError(t, env.repos.Documents.Delete(s, f.c))

		n, err := rels.Count(s, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n, "only relations touching the deleted node go")
		for _, rel := range all {
			got, err := rels.Get(s, rel.ID)
			require.NoError(t, err)
			touches := rel.ParentID == f.c.ID || rel.ChildID == f.c.ID
			assert.Equal(t, touches, got == nil)
		}

		require.NoError(t, env.repos.RelationTypes.Delete(s, f.related))
		n, err = rels.Count(s, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestRelationType_DuplicateAlias(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		require.NoError(t, env.repos.RelationTypes.Save(s, models.NewRelationType("One", "same", false, "", "")))
		err := env.repos.RelationTypes.Save(s, models.NewRelationType("Two", "same", false, "", ""))
		require.Error(t, err)
		assert.True(t, database.IsUniqueViolation(err))
	})
}
