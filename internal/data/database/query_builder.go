// Package database builds the dynamic list queries used by the repositories.
// Identifiers are quoted with pgx.Identifier and every value travels as a
// positional parameter.
package database

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal              ConditionType = "="
	NotEqual           ConditionType = "!="
	GreaterThan        ConditionType = ">"
	GreaterThanOrEqual ConditionType = ">="
	LessThan           ConditionType = "<"
	LessThanOrEqual    ConditionType = "<="
	ILike              ConditionType = "ILIKE"
	In                 ConditionType = "IN"
	IsTrue             ConditionType = "IS TRUE"
	Custom             ConditionType = "CUSTOM"

	unset = -1
)

// Condition is one AND-ed term of a WHERE clause.
type Condition struct {
	Field string
	Type  ConditionType
	Value any
	raw   string
}

// WhereCond compares a column against a value. Use WhereRawCond for anything
// the fixed operators cannot express.
func WhereCond(field string, condType ConditionType, value any) Condition {
	if condType == Custom {
		//nolint:forbidigo // programmer error; custom SQL goes through WhereRawCond
		panic("database: use WhereRawCond for custom conditions")
	}
	return Condition{Field: field, Type: condType, Value: value}
}

// WhereRawCond adds hand-written SQL. Its placeholders are numbered from $1
// and renumbered to fit the final query; a placeholder may repeat.
// The SQL itself is not sanitized.
func WhereRawCond(rawSQL string, params ...any) Condition {
	return Condition{Type: Custom, raw: rawSQL, Value: params}
}

type orderKey struct {
	column string
	dir    string
}

// ListQueryOptions describes one SELECT against a single table.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	Limit      int
	Offset     int

	order []orderKey
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	o := &ListQueryOptions{Table: table, Limit: unset, Offset: unset}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy appends a sort key. Call it repeatedly for tie-breakers.
// Directions other than ASC or DESC are dropped.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.order = append(o.order, orderKey{column: column, dir: strings.ToUpper(direction)})
	}
}

// WithLimit sets LIMIT. Negative values leave it unset.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets OFFSET. Negative values leave it unset.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

// SplitColumns turns a comma-separated column list into WithColumns input.
func SplitColumns(csv string) []string {
	var out []string
	for _, c := range strings.Split(csv, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// BuildListQuery renders options into SQL and its arguments.
//
//	query, args := BuildListQuery(NewListQueryOptions("users",
//		WithColumns("id", "username"),
//		WithCondition(WhereRawCond("(username ILIKE $1 OR email ILIKE $1)", "%ada%")),
//		WithOrderBy("created_at", "DESC"),
//		WithOrderBy("id", "DESC"),
//		WithLimit(50),
//	))
func BuildListQuery(o *ListQueryOptions) (string, []any) {
	if o == nil {
		return "", nil
	}

	var q strings.Builder
	q.WriteString("SELECT ")
	q.WriteString(selectList(o))
	q.WriteString(" FROM ")
	q.WriteString(quote(o.Table))

	p := &params{}
	var where []string
	for _, c := range o.Conditions {
		if sql := p.condition(c); sql != "" {
			where = append(where, sql)
		}
	}
	if len(where) > 0 {
		q.WriteString(" WHERE ")
		q.WriteString(strings.Join(where, " AND "))
	}
	if o.CountOnly {
		return q.String(), p.args
	}

	var keys []string
	for _, k := range o.order {
		key := quote(k.column)
		if k.dir == "ASC" || k.dir == "DESC" {
			key += " " + k.dir
		}
		keys = append(keys, key)
	}
	if len(keys) > 0 {
		q.WriteString(" ORDER BY ")
		q.WriteString(strings.Join(keys, ", "))
	}
	if o.Limit != unset {
		q.WriteString(" LIMIT " + p.add(o.Limit))
	}
	if o.Offset != unset {
		q.WriteString(" OFFSET " + p.add(o.Offset))
	}
	return q.String(), p.args
}

func selectList(o *ListQueryOptions) string {
	if o.CountOnly {
		return "COUNT(*)"
	}
	if len(o.Columns) == 0 {
		return "*"
	}
	cols := make([]string, len(o.Columns))
	for i, c := range o.Columns {
		cols[i] = quote(c)
	}
	return strings.Join(cols, ", ")
}

// quote sanitizes a possibly qualified identifier such as "users.id".
func quote(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

// params accumulates positional arguments.
type params struct{ args []any }

func (p *params) add(v any) string {
	p.args = append(p.args, v)
	return "$" + strconv.Itoa(len(p.args))
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

func (p *params) condition(c Condition) string {
	switch c.Type {
	case Custom:
		return p.raw(c)
	case "":
		return ""
	}
	if c.Field == "" {
		return ""
	}
	field := quote(c.Field)

	switch c.Type {
	case IsTrue:
		return field + " IS TRUE"
	case In:
		rv := reflect.ValueOf(c.Value)
		if rv.Kind() != reflect.Slice || rv.Len() == 0 {
			return ""
		}
		ph := make([]string, rv.Len())
		for i := range rv.Len() {
			ph[i] = p.add(rv.Index(i).Interface())
		}
		return fmt.Sprintf("%s IN (%s)", field, strings.Join(ph, ", "))
	case Equal, NotEqual, GreaterThan, GreaterThanOrEqual, LessThan, LessThanOrEqual, ILike:
		return fmt.Sprintf("%s %s %s", field, c.Type, p.add(c.Value))
	default:
		return ""
	}
}

func (p *params) raw(c Condition) string {
	if strings.TrimSpace(c.raw) == "" {
		return ""
	}
	given, _ := c.Value.([]any)
	renumbered := make(map[int]string)
	return placeholderRe.ReplaceAllStringFunc(c.raw, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil || n < 1 || n > len(given) {
			return m
		}
		if ph, ok := renumbered[n]; ok {
			return ph
		}
		ph := p.add(given[n-1])
		renumbered[n] = ph
		return ph
	})
}
