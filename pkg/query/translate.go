package query

import (
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm/clause"
)

// FieldMap maps public field names to "table.column" or "column".
type FieldMap map[string]string

// Column resolves field, failing on fields outside the map.
func (m FieldMap) Column(field string) (clause.Column, error) {
	col, ok := m[field]
	if !ok {
		return clause.Column{}, fmt.Errorf("unknown query field %q", field)
	}
	if table, name, found := strings.Cut(col, "."); found {
		return clause.Column{Table: table, Name: name}, nil
	}
	return clause.Column{Name: col}, nil
}

// Translate converts e into a gorm clause expression. A nil e yields nil.
func Translate(e Expr, fields FieldMap) (clause.Expression, error) {
	switch x := e.(type) {
	case nil:
		return nil, nil
	case Condition:
		return translateCondition(x, fields)
	case AndExpr:
		exprs, err := translateAll(x, fields)
		if err != nil {
			return nil, err
		}
		if len(exprs) == 0 {
			return clause.Expr{SQL: "1 = 1"}, nil
		}
		return clause.And(exprs...), nil
	case OrExpr:
		exprs, err := translateAll(x, fields)
		if err != nil {
			return nil, err
		}
		if len(exprs) == 0 {
			return clause.Expr{SQL: "1 = 0"}, nil
		}
		return clause.Or(exprs...), nil
	case NotExpr:
		inner, err := Translate(x.Expr, fields)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			return clause.Expr{SQL: "1 = 0"}, nil
		}
		return clause.Not(inner), nil
	default:
		return nil, fmt.Errorf("unsupported query expression %T", e)
	}
}

func translateAll[T ~[]Expr](exprs T, fields FieldMap) ([]clause.Expression, error) {
	out := make([]clause.Expression, 0, len(exprs))
	for _, e := range exprs {
		t, err := Translate(e, fields)
		if err != nil {
			return nil, err
		}
		if t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func translateCondition(c Condition, fields FieldMap) (clause.Expression, error) {
	col, err := fields.Column(c.Field)
	if err != nil {
		return nil, err
	}

	switch c.Op {
	case OpEq:
		return clause.Eq{Column: col, Value: c.Value}, nil
	case OpNeq:
		return clause.Neq{Column: col, Value: c.Value}, nil
	case OpGt:
		return clause.Gt{Column: col, Value: c.Value}, nil
	case OpGte:
		return clause.Gte{Column: col, Value: c.Value}, nil
	case OpLt:
		return clause.Lt{Column: col, Value: c.Value}, nil
	case OpLte:
		return clause.Lte{Column: col, Value: c.Value}, nil
	case OpLike:
		return clause.Like{Column: col, Value: c.Value}, nil
	case OpContains, OpStartsWith, OpEndsWith:
		s, ok := c.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%s on %q needs a string value", c.Op, c.Field)
		}
		s = likeEscaper.Replace(s)
		switch c.Op {
		case OpContains:
			s = "%" + s + "%"
		case OpStartsWith:
			s += "%"
		default:
			s = "%" + s
		}
		return clause.Expr{SQL: "? LIKE ? ESCAPE '\\'", Vars: []any{col, s}}, nil
	case OpIn:
		values, err := toSlice(c.Value)
		if err != nil {
			return nil, fmt.Errorf("in on %q: %w", c.Field, err)
		}
		if len(values) == 0 {
			return clause.Expr{SQL: "1 = 0"}, nil
		}
		return clause.IN{Column: col, Values: values}, nil
	case OpIsNull:
		return clause.Eq{Column: col, Value: nil}, nil
	case OpNotNull:
		return clause.Neq{Column: col, Value: nil}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", c.Op)
	}
}

func toSlice(v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("value must be a slice, got %T", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
