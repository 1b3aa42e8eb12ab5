package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratacms/strata/pkg/database"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/scope"
)

func TestDomain_SaveAndLookup(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		en := env.language(t, s, "en-US")
		ct := env.documentType(t, s, "page")
		home := env.document(t, s, "Home", models.RootID, ct)
		domains := env.repos.Domains

		for i, name := range []string{"example.org", "www.example.org", "*" + itoa(home.ID)} {
			d := &models.Domain{DomainName: name, RootContentID: home.ID, LanguageID: en.ID, SortOrder: 2 - i}
			require.NoError(t, domains.Save(s, d))
		}

		got, err := domains.GetByName(s, " WWW.Example.org ")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "www.example.org", got.DomainName)
		assert.Equal(t, "en-US", got.LanguageIsoCode)

		ok, err := domains.ExistsByName(s, "missing.org")
		require.NoError(t, err)
		assert.False(t, ok)

		all, err := domains.GetAllDomains(s, false)
		require.NoError(t, err)
		assert.Len(t, all, 2)
		all, err = domains.GetAllDomains(s, true)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		assigned, err := domains.GetAssignedDomains(s, home.ID, true)
		require.NoError(t, err)
		require.Len(t, assigned, 3)
		assert.True(t, assigned[0].IsWildcard(), "assigned domains follow sort order")
		assert.Equal(t, "example.org", assigned[2].DomainName)
	})
}

func TestDomain_DuplicateNameFails(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, func(s *scope.Scope) {
		require.NoError(t, env.repos.Domains.Save(s, &models.Domain{DomainName: "example.com"}))
		err := env.repos.Domains.Save(s, &models.Domain{DomainName: "example.com"})
		require.Error(t, err)
		assert.True(t, database.IsUniqueViolation(err))
	})
}
