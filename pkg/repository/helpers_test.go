package repository

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stratacms/strata/pkg/cache"
	"github.com/stratacms/strata/pkg/database"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/scope"
)

type testEnv struct {
	db       *database.Database
	cache    *cache.MemoryProvider
	provider *scope.Provider
	repos    *Repositories
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), database.InMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mem := cache.NewMemoryProvider(cache.MemoryOptions{})
	return &testEnv{
		db:       db,
		cache:    mem,
		provider: scope.NewProvider(db, mem),
		repos:    New(),
	}
}

// run executes fn in a scope that commits when fn returns without failing.
func (e *testEnv) run(t *testing.T, fn func(s *scope.Scope)) {
	t.Helper()
	s, err := e.provider.CreateScope(context.Background())
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	fn(s)
	require.NoError(t, s.Complete())
}

// open returns a scope the caller must close. It does not commit unless
// completed.
func (e *testEnv) open(t *testing.T) *scope.Scope {
	t.Helper()
	s, err := e.provider.CreateScope(context.Background())
	require.NoError(t, err)
	return s
}

func (e *testEnv) language(t *testing.T, s *scope.Scope, iso string) *models.Language {
	t.Helper()
	l := models.NewLanguage(iso, iso)
	require.NoError(t, e.repos.Languages.Save(s, l))
	return l
}

// documentType saves a culture-variant document type with a text title,
// an integer count and a culture-variant summary.
func (e *testEnv) documentType(t *testing.T, s *scope.Scope, alias string) *models.ContentType {
	t.Helper()
	ct := models.NewContentType(models.ObjectTypeDocumentType, alias, alias)
	ct.Variations = models.VariesByCulture
	ct.AddPropertyGroup("content", "Content")
	ct.AddPropertyType(&models.PropertyType{Alias: "title", Name: "Title", GroupAlias: "content"})
	ct.AddPropertyType(&models.PropertyType{Alias: "count", Name: "Count", ValueStorage: models.StorageInteger})
	ct.AddPropertyType(&models.PropertyType{Alias: "summary", Name: "Summary", ValueStorage: models.StorageNtext, Variations: models.VariesByCulture})
	ct.AddPropertyType(&models.PropertyType{Alias: "tags", Name: "Tags"})
	require.NoError(t, e.repos.DocumentTypes.Save(s, ct))
	return ct
}

func (e *testEnv) document(t *testing.T, s *scope.Scope, name string, parentID int, ct *models.ContentType) *models.Content {
	t.Helper()
	c := models.NewContent(models.ObjectTypeDocument, name, parentID, ct)
	require.NoError(t, e.repos.Documents.Save(s, c))
	return c
}

func itoa(i int) string { return strconv.Itoa(i) }
