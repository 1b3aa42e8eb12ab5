package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stratacms/strata/pkg/database"
	"github.com/stratacms/strata/pkg/persistence/dto"
)

var nodeFields = FieldMap{
	"id":        "nodes.id",
	"name":      "nodes.text",
	"parentId":  "nodes.parent_id",
	"level":     "nodes.level",
	"trashed":   "nodes.trashed",
	"creatorId": "nodes.user_id",
}

func seedNodes(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), database.InMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	creator := 7
	names := []string{"Alpha", "Bravo", "Charlie", "100% pure", "snake_case"}
	for i, name := range names {
		row := &dto.NodeDTO{
			UniqueID:       uuid.NewString(),
			ParentID:       -1,
			Level:          1,
			Path:           "-1",
			SortOrder:      i,
			Text:           name,
			NodeObjectType: "document",
			CreateDate:     time.Now(),
			UpdateDate:     time.Now(),
		}
		if i%2 == 0 {
			row.UserID = &creator
		}
		require.NoError(t, db.DB().Create(row).Error)
	}
	return db.DB()
}

func names(t *testing.T, db *gorm.DB, e Expr) []string {
	t.Helper()
	tx := db.Model(&dto.NodeDTO{}).Order("nodes.id")
	expr, err := Translate(e, nodeFields)
	require.NoError(t, err)
	if expr != nil {
		tx = tx.Where(expr)
	}
	var out []string
	require.NoError(t, tx.Pluck("nodes.text", &out).Error)
	if len(out) == 0 {
		return nil
	}
	return out
}

func TestTranslate(t *testing.T) {
	db := seedNodes(t)

	tests := []struct {
		name string
		expr Expr
		want []string
	}{
		{"nil matches all", nil, []string{"Alpha", "Bravo", "Charlie", "100% pure", "snake_case"}},
		{"eq", Eq("name", "Bravo"), []string{"Bravo"}},
		{"neq", Neq("name", "Bravo"), []string{"Alpha", "Charlie", "100% pure", "snake_case"}},
		{"in", In("name", []string{"Alpha", "Charlie"}), []string{"Alpha", "Charlie"}},
		{"empty in", In("name", []string{}), nil},
		{"startsWith", StartsWith("name", "Ch"), []string{"Charlie"}},
		{"contains escapes percent", Contains("name", "0%"), []string{"100% pure"}},
		{"contains escapes underscore", Contains("name", "e_c"), []string{"snake_case"}},
		{"endsWith", EndsWith("name", "vo"), []string{"Bravo"}},
		{"like", Like("name", "%a%"), []string{"Alpha", "Bravo", "Charlie", "snake_case"}},
		{"isNull", IsNull("creatorId"), []string{"Bravo", "100% pure"}},
		{"notNull", NotNull("creatorId"), []string{"Alpha", "Charlie", "snake_case"}},
		{"and", And(NotNull("creatorId"), StartsWith("name", "C")), []string{"Charlie"}},
		{"or", Or(Eq("name", "Alpha"), Eq("name", "Bravo")), []string{"Alpha", "Bravo"}},
		{"not", Not(Or(Eq("name", "Alpha"), NotNull("creatorId"))), []string{"Bravo", "100% pure"}},
		{"empty or", Or(), nil},
		{"empty and", And(), []string{"Alpha", "Bravo", "Charlie", "100% pure", "snake_case"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(t, db, tt.expr))
		})
	}
}

func TestTranslate_UnknownField(t *testing.T) {
	_, err := Translate(Eq("password", "x"), nodeFields)
	assert.ErrorContains(t, err, `unknown query field "password"`)

	_, err = Translate(And(Eq("name", "a"), Or(Eq("nope", 1))), nodeFields)
	assert.Error(t, err)
}

func TestTranslate_BadValues(t *testing.T) {
	_, err := Translate(In("id", 3), nodeFields)
	assert.Error(t, err)

	_, err = Translate(Condition{Field: "name", Op: OpContains, Value: 3}, nodeFields)
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	var nilQuery *Query
	assert.Nil(t, nilQuery.Expr())
	assert.True(t, nilQuery.IsEmpty())

	q := New()
	assert.True(t, q.IsEmpty())
	assert.Equal(t, "<all>", q.String())

	q.Where(Eq("level", 1))
	assert.Equal(t, Eq("level", 1), q.Expr())

	q.Where(nil).Where(Gt("id", 2))
	assert.Equal(t, "(level eq 1 AND id gt 2)", q.String())
}

func TestOrdering(t *testing.T) {
	assert.False(t, OrderBy("name").IsDescending())
	assert.True(t, OrderByDesc("name").IsDescending())
	assert.True(t, Ordering{Field: "name", Direction: "DESC"}.IsDescending())
	assert.False(t, Ordering{Field: "name"}.IsDescending())

	o := OrderByCustom("price", Descending)
	assert.True(t, o.IsCustomField)
	assert.True(t, o.IsDescending())
}

func TestFieldMap_Column(t *testing.T) {
	col, err := nodeFields.Column("name")
	require.NoError(t, err)
	assert.Equal(t, "nodes", col.Table)
	assert.Equal(t, "text", col.Name)

	col, err = FieldMap{"alias": "alias"}.Column("alias")
	require.NoError(t, err)
	assert.Empty(t, col.Table)
}
