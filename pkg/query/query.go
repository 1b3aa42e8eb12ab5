// Package query is a small typed predicate DSL passed to repositories.
//
// Expressions name entity fields by their public name ("name", "parentId",
// "alias", ...). Each repository publishes a FieldMap whitelisting the fields
// it can filter and order by, and Translate turns an expression into gorm
// clauses against that map. Unknown fields are an error, never raw SQL.
package query

import (
	"fmt"
	"strings"
)

// Op is a comparison operator.
type Op string

const (
	OpEq         Op = "eq"
	OpNeq        Op = "neq"
	OpGt         Op = "gt"
	OpGte        Op = "gte"
	OpLt         Op = "lt"
	OpLte        Op = "lte"
	OpLike       Op = "like"
	OpContains   Op = "contains"
	OpStartsWith Op = "startsWith"
	OpEndsWith   Op = "endsWith"
	OpIn         Op = "in"
	OpIsNull     Op = "isNull"
	OpNotNull    Op = "notNull"
)

// Expr is a node of a predicate tree.
type Expr interface {
	String() string
	isExpr()
}

// Condition compares one field against a value.
type Condition struct {
	Field string
	Op    Op
	Value any
}

func (Condition) isExpr() {}

func (c Condition) String() string {
	switch c.Op {
	case OpIsNull, OpNotNull:
		return fmt.Sprintf("%s %s", c.Field, c.Op)
	}
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// AndExpr is true when every operand is true. An empty AndExpr is true.
type AndExpr []Expr

func (AndExpr) isExpr() {}

func (a AndExpr) String() string { return join(a, " AND ") }

// OrExpr is true when any operand is true. An empty OrExpr is false.
type OrExpr []Expr

func (OrExpr) isExpr() {}

func (o OrExpr) String() string { return join(o, " OR ") }

// NotExpr negates its operand.
type NotExpr struct{ Expr Expr }

func (NotExpr) isExpr() {}

func (n NotExpr) String() string { return "NOT (" + n.Expr.String() + ")" }

func join[T ~[]Expr](exprs T, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Condition constructors.

func Eq(field string, v any) Condition  { return Condition{field, OpEq, v} }
func Neq(field string, v any) Condition { return Condition{field, OpNeq, v} }
func Gt(field string, v any) Condition  { return Condition{field, OpGt, v} }
func Gte(field string, v any) Condition { return Condition{field, OpGte, v} }
func Lt(field string, v any) Condition  { return Condition{field, OpLt, v} }
func Lte(field string, v any) Condition { return Condition{field, OpLte, v} }

// Like matches a SQL LIKE pattern.
func Like(field, pattern string) Condition { return Condition{field, OpLike, pattern} }

// Contains, StartsWith and EndsWith escape LIKE wildcards in s.
func Contains(field, s string) Condition   { return Condition{field, OpContains, s} }
func StartsWith(field, s string) Condition { return Condition{field, OpStartsWith, s} }
func EndsWith(field, s string) Condition   { return Condition{field, OpEndsWith, s} }

// In matches any of values. values must be a slice.
func In(field string, values any) Condition { return Condition{field, OpIn, values} }

func IsNull(field string) Condition  { return Condition{Field: field, Op: OpIsNull} }
func NotNull(field string) Condition { return Condition{Field: field, Op: OpNotNull} }

// And combines expressions, skipping nil ones.
func And(exprs ...Expr) Expr { return AndExpr(compact(exprs)) }

// Or combines expressions, skipping nil ones.
func Or(exprs ...Expr) Expr { return OrExpr(compact(exprs)) }

// Not negates e.
func Not(e Expr) Expr { return NotExpr{Expr: e} }

func compact(exprs []Expr) []Expr {
	out := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Query is a filter built incrementally. A nil *Query matches everything.
type Query struct {
	where []Expr
}

// New creates an empty query.
func New() *Query { return &Query{} }

// Where ANDs e into the query and returns q.
func (q *Query) Where(e Expr) *Query {
	if e != nil {
		q.where = append(q.where, e)
	}
	return q
}

// Expr returns the combined predicate, or nil when the query is empty.
func (q *Query) Expr() Expr {
	if q == nil || len(q.where) == 0 {
		return nil
	}
	if len(q.where) == 1 {
		return q.where[0]
	}
	return AndExpr(append([]Expr(nil), q.where...))
}

// IsEmpty reports whether the query has no predicate.
func (q *Query) IsEmpty() bool { return q.Expr() == nil }

func (q *Query) String() string {
	if e := q.Expr(); e != nil {
		return e.String()
	}
	return "<all>"
}

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Ordering sorts a page.
type Ordering struct {
	Field     string
	Direction Direction

	// IsCustomField resolves Field as a property alias of the entity instead
	// of a mapped column.
	IsCustomField bool

	// Culture, when set, orders "name" by the culture variant name.
	Culture string
}

// OrderBy returns an ascending ordering on field.
func OrderBy(field string) Ordering { return Ordering{Field: field, Direction: Ascending} }

// OrderByDesc returns a descending ordering on field.
func OrderByDesc(field string) Ordering { return Ordering{Field: field, Direction: Descending} }

// OrderByCustom returns an ordering on a property alias.
func OrderByCustom(alias string, dir Direction) Ordering {
	return Ordering{Field: alias, Direction: dir, IsCustomField: true}
}

// IsDescending reports whether the ordering is descending. Anything other
// than Descending sorts ascending.
func (o Ordering) IsDescending() bool {
	return strings.EqualFold(string(o.Direction), string(Descending))
}
