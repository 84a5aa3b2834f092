package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// Cond renders one WHERE predicate into the query buffer, appending
// its bind arguments.
type Cond func(buf *strings.Builder, args *[]any, n *int)

func Eq(column string, value any) Cond {
	return func(buf *strings.Builder, args *[]any, n *int) {
		buf.WriteString(column)
		buf.WriteString(" = $")
		buf.WriteString(strconv.Itoa(*n))
		*args = append(*args, value)
		*n++
	}
}

func Gte(column string, value any) Cond {
	return func(buf *strings.Builder, args *[]any, n *int) {
		buf.WriteString(column)
		buf.WriteString(" >= $")
		buf.WriteString(strconv.Itoa(*n))
		*args = append(*args, value)
		*n++
	}
}

func In(column string, values []any) Cond {
	return func(buf *strings.Builder, args *[]any, n *int) {
		if len(values) == 0 {
			buf.WriteString("1=0")
			return
		}
		buf.WriteString(column)
		buf.WriteString(" IN (")
		for i, v := range values {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString("$")
			buf.WriteString(strconv.Itoa(*n))
			*args = append(*args, v)
			*n++
		}
		buf.WriteString(")")
	}
}

// Raw inserts a literal predicate with ?-style placeholders rewritten
// to positional ones.
func Raw(expr string, exprArgs ...any) Cond {
	return func(buf *strings.Builder, args *[]any, n *int) {
		buf.WriteString(rewrite(expr, exprArgs, args, n))
	}
}

type SelectQuery struct {
	columns []string
	table   string
	where   []Cond
	orderBy []string
	limit   int
	offset  int
}

func Select(columns ...string) *SelectQuery {
	return &SelectQuery{columns: append([]string(nil), columns...)}
}

func (q *SelectQuery) From(table string) *SelectQuery {
	q.table = table
	return q
}

func (q *SelectQuery) Where(conds ...Cond) *SelectQuery {
	q.where = append(q.where, conds...)
	return q
}

func (q *SelectQuery) OrderBy(parts ...string) *SelectQuery {
	q.orderBy = append(q.orderBy, parts...)
	return q
}

func (q *SelectQuery) Limit(limit int) *SelectQuery {
	q.limit = limit
	return q
}

func (q *SelectQuery) Offset(offset int) *SelectQuery {
	q.offset = offset
	return q
}

func (q *SelectQuery) Build() (string, []any, error) {
	if len(q.columns) == 0 {
		return "", nil, fmt.Errorf("select needs columns")
	}
	if strings.TrimSpace(q.table) == "" {
		return "", nil, fmt.Errorf("select needs a table")
	}

	var buf strings.Builder
	buf.WriteString("SELECT ")
	buf.WriteString(strings.Join(q.columns, ", "))
	buf.WriteString(" FROM ")
	buf.WriteString(q.table)

	args := make([]any, 0, len(q.where))
	n := 1
	writeWhere(&buf, q.where, &args, &n)

	if len(q.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(q.orderBy, ", "))
	}
	if q.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(q.limit))
	}
	if q.offset > 0 {
		buf.WriteString(" OFFSET ")
		buf.WriteString(strconv.Itoa(q.offset))
	}
	return buf.String(), args, nil
}

type InsertQuery struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertQuery {
	return &InsertQuery{table: table}
}

func (q *InsertQuery) Columns(columns ...string) *InsertQuery {
	q.columns = append([]string(nil), columns...)
	return q
}

func (q *InsertQuery) Values(values ...any) *InsertQuery {
	q.rows = append(q.rows, append([]any(nil), values...))
	return q
}

// Suffix appends trailing SQL such as an ON CONFLICT clause.
func (q *InsertQuery) Suffix(sql string) *InsertQuery {
	q.suffix = strings.TrimSpace(sql)
	return q
}

func (q *InsertQuery) Build() (string, []any, error) {
	if strings.TrimSpace(q.table) == "" {
		return "", nil, fmt.Errorf("insert needs a table")
	}
	if len(q.columns) == 0 || len(q.rows) == 0 {
		return "", nil, fmt.Errorf("insert needs columns and values")
	}

	var buf strings.Builder
	buf.WriteString("INSERT INTO ")
	buf.WriteString(q.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(q.columns, ", "))
	buf.WriteString(") VALUES ")

	args := make([]any, 0, len(q.rows)*len(q.columns))
	n := 1
	for i, row := range q.rows {
		if len(row) != len(q.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values for %d columns", i, len(row), len(q.columns))
		}
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("(")
		for j, v := range row {
			if j > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString("$")
			buf.WriteString(strconv.Itoa(n))
			args = append(args, v)
			n++
		}
		buf.WriteString(")")
	}

	if q.suffix != "" {
		buf.WriteString(" ")
		buf.WriteString(rewrite(q.suffix, nil, &args, &n))
	}
	return buf.String(), args, nil
}

type UpdateQuery struct {
	table   string
	columns []string
	values  []any
	where   []Cond
}

func Update(table string) *UpdateQuery {
	return &UpdateQuery{table: table}
}

func (q *UpdateQuery) Set(column string, value any) *UpdateQuery {
	q.columns = append(q.columns, column)
	q.values = append(q.values, value)
	return q
}

func (q *UpdateQuery) Where(conds ...Cond) *UpdateQuery {
	q.where = append(q.where, conds...)
	return q
}

func (q *UpdateQuery) Build() (string, []any, error) {
	if strings.TrimSpace(q.table) == "" {
		return "", nil, fmt.Errorf("update needs a table")
	}
	if len(q.columns) == 0 {
		return "", nil, fmt.Errorf("update needs set clauses")
	}

	var buf strings.Builder
	buf.WriteString("UPDATE ")
	buf.WriteString(q.table)
	buf.WriteString(" SET ")

	args := make([]any, 0, len(q.values)+len(q.where))
	n := 1
	for i, col := range q.columns {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(col)
		buf.WriteString(" = $")
		buf.WriteString(strconv.Itoa(n))
		args = append(args, q.values[i])
		n++
	}

	writeWhere(&buf, q.where, &args, &n)
	return buf.String(), args, nil
}

func writeWhere(buf *strings.Builder, conds []Cond, args *[]any, n *int) {
	if len(conds) == 0 {
		return
	}
	buf.WriteString(" WHERE ")
	for i, c := range conds {
		if i > 0 {
			buf.WriteString(" AND ")
		}
		c(buf, args, n)
	}
}

func rewrite(expr string, exprArgs []any, args *[]any, n *int) string {
	if len(exprArgs) == 0 {
		return expr
	}
	var out strings.Builder
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(exprArgs) {
			out.WriteString("$")
			out.WriteString(strconv.Itoa(*n))
			*args = append(*args, exprArgs[next])
			*n++
			next++
			continue
		}
		out.WriteByte(expr[i])
	}
	return out.String()
}
