package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratacms/strata/pkg/database"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

func TestRepository_CachedReadsIssueNoStatements(t *testing.T) {
	env := newTestEnv(t)
	var da *models.Language
	env.run(t, func(s *scope.Scope) {
		da = env.language(t, s, "da-DK")
	})

	s := env.open(t)
	defer s.Close()

	env.db.ResetStatementCount()
	got, err := env.repos.Languages.Get(s, da.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "da-DK", got.IsoCode)

	byKey, err := env.repos.Languages.GetByKey(s, da.Key)
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, da.ID, byKey.ID)

	exists, err := env.repos.Languages.Exists(s, da.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Zero(t, env.db.StatementCount(), "reads of a committed entity must be served by the cache")
}

func TestRepository_GetManyLoadsOnlyMissing(t *testing.T) {
	env := newTestEnv(t)
	var da *models.Language
	env.run(t, func(s *scope.Scope) {
		da = env.language(t, s, "da-DK")
	})

	// A row written behind the repository's back is not cached.
	now := time.Now().UTC()
	row := &dto.LanguageDTO{UniqueID: uuid.NewString(), IsoCode: "en-US", CreateDate: now, UpdateDate: now}
	require.NoError(t, env.db.DB().Create(row).Error)

	s := env.open(t)
	defer s.Close()

	env.db.ResetStatementCount()
	items, err := env.repos.Languages.GetMany(s, row.ID, da.ID, 999, row.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, row.ID, items[0].ID, "requested order must be kept")
	assert.Equal(t, da.ID, items[1].ID)
	assert.Equal(t, int64(1), env.db.StatementCount())

	env.db.ResetStatementCount()
	_, err = env.repos.Languages.GetMany(s, row.ID, da.ID)
	require.NoError(t, err)
	assert.Zero(t, env.db.StatementCount())
}

func TestRepository_NotFound(t *testing.T) {
	env := newTestEnv(t)
	s := env.open(t)
	defer s.Close()

	got, err := env.repos.Languages.Get(s, 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = env.repos.Languages.GetByKey(s, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)

	ghost := models.NewLanguage("xx-XX", "Ghost")
	ghost.ID = 42
	ghost.Key = uuid.New()
	assert.ErrorIs(t, env.repos.Languages.Save(s, ghost), models.ErrNotFound)
	assert.ErrorIs(t, env.repos.Languages.Delete(s, models.NewLanguage("yy-YY", "")), models.ErrNotSaved)
}

func TestRepository_RolledBackScopeLeavesCacheUntouched(t *testing.T) {
	env := newTestEnv(t)
	var da *models.Language
	env.run(t, func(s *scope.Scope) {
		da = env.language(t, s, "da-DK")
	})

	s := env.open(t)
	l, err := env.repos.Languages.Get(s, da.ID)
	require.NoError(t, err)
	l.CultureName = "Danish"
	require.NoError(t, env.repos.Languages.Save(s, l))

	inScope, err := env.repos.Languages.Get(s, da.ID)
	require.NoError(t, err)
	assert.Equal(t, "Danish", inScope.CultureName, "a scope reads its own writes")
	require.NoError(t, s.Close())

	env.run(t, func(s *scope.Scope) {
		got, err := env.repos.Languages.Get(s, da.ID)
		require.NoError(t, err)
		assert.Equal(t, "da-DK", got.CultureName)
	})
}

func TestRepository_FailedInsertResetsIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		env.language(t, s, "da-DK")

		dup := models.NewLanguage("DA-dk", "Duplicate")
		err := env.repos.Languages.Save(s, dup)
		assert.ErrorIs(t, err, models.ErrInvalidOperation)
		assert.False(t, dup.HasIdentity())

		n, err := env.repos.Languages.Count(s, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestRepository_UniqueViolationPassesThrough(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		require.NoError(t, env.repos.Macros.Save(s, &models.Macro{Alias: "gallery", Name: "Gallery"}))

		err := env.repos.Macros.Save(s, &models.Macro{Alias: "gallery", Name: "Other"})
		require.Error(t, err)
		assert.True(t, database.IsUniqueViolation(err))

		// The savepoint keeps the scope usable.
		n, err := env.repos.Macros.Count(s, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestRepository_Paging(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		for i := 0; i < 7; i++ {
			env.language(t, s, fmt.Sprintf("l%d-XX", 6-i))
		}
	})

	s := env.open(t)
	defer s.Close()

	seen := map[int]bool{}
	var codes []string
	for page := 0; page < 3; page++ {
		items, total, err := env.repos.Languages.GetPage(s, nil, page, 3, nil, query.OrderBy("isoCode"))
		require.NoError(t, err)
		assert.Equal(t, int64(7), total)
		for _, l := range items {
			assert.False(t, seen[l.ID], "pages must not overlap")
			seen[l.ID] = true
			codes = append(codes, l.IsoCode)
		}
		if page < 2 {
			assert.Len(t, items, 3)
		} else {
			assert.Len(t, items, 1)
		}
	}
	assert.Len(t, seen, 7)
	assert.IsIncreasing(t, codes)

	items, total, err := env.repos.Languages.GetPage(s, nil, 5, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int64(7), total)

	filtered, total, err := env.repos.Languages.GetPage(s, nil, 0, 10,
		query.New().Where(query.StartsWith("isoCode", "l1")))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, filtered, 1)
	assert.Equal(t, "l1-XX", filtered[0].IsoCode)

	_, _, err = env.repos.Languages.GetPage(s, nil, 0, 0, nil)
	assert.Error(t, err)

	_, _, err = env.repos.Languages.GetPage(s, nil, 0, 3, nil, query.OrderBy("nope"))
	assert.Error(t, err)
}

func TestRepository_QueryOrdered(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		for _, iso := range []string{"b-B", "c-C", "a-A"} {
			env.language(t, s, iso)
		}

		items, err := env.repos.Languages.QueryOrdered(s, nil, query.OrderByDesc("isoCode"))
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, []string{"c-C", "b-B", "a-A"},
			[]string{items[0].IsoCode, items[1].IsoCode, items[2].IsoCode})
	})
}
