// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package datatable implements server-side search, sort and pagination for
// admin list endpoints. A Definition describes one endpoint's table and
// fixed column list; Run executes the count and page queries and returns
// the JSON envelope the list views consume.
package datatable

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Querier is the subset of *sql.DB used by Run.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Definition describes a list endpoint.
type Definition struct {
	// From is the FROM clause including joins, e.g. "virtual_tours t".
	From string
	// Select is the column list returned for each row.
	Select string
	// Key is the primary key column used when the sort index is invalid.
	Key string
	// Columns maps sort indices to columns. Order matters.
	Columns []string
	// SearchColumns are OR-matched with a case-insensitive substring filter.
	SearchColumns []string
	// SoftDelete is the deleted_at column; empty disables the trash filter.
	SoftDelete string
	// DefaultOrder is used when the request carries no sort column.
	// Empty means Key.
	DefaultOrder string
	// DefaultDir applies with DefaultOrder ("asc" or "desc").
	DefaultDir string
}

// Condition is a SQL predicate with ? placeholders.
type Condition struct {
	SQL  string
	Args []any
}

// Where builds a Condition. Placeholders are written as ? and renumbered
// for PostgreSQL when the statement is built.
func Where(sql string, args ...any) Condition {
	return Condition{SQL: sql, Args: args}
}

// Page describes the returned window.
type Page struct {
	Current int `json:"current"`
	Length  int `json:"length"`
	Last    int `json:"last"`
	From    int `json:"from"`
	To      int `json:"to"`
}

// Result is the list response envelope.
type Result[T any] struct {
	Draw            int  `json:"draw"`
	Data            []T  `json:"data"`
	RecordsTotal    int  `json:"recordsTotal"`
	RecordsFiltered int  `json:"recordsFiltered"`
	Page            Page `json:"page"`
}

// Statements holds the three queries needed for one list request.
type Statements struct {
	Total        string
	TotalArgs    []any
	Filtered     string
	FilteredArgs []any
	Data         string
	DataArgs     []any
}

// Build renders the SQL for req under the given scope conditions.
func (d Definition) Build(req Request, scope ...Condition) Statements {
	base := append([]Condition(nil), scope...)
	if d.SoftDelete != "" {
		switch req.Filter {
		case FilterTrashed:
			base = append(base, Where(d.SoftDelete+" IS NOT NULL"))
		case FilterAll:
		default:
			base = append(base, Where(d.SoftDelete+" IS NULL"))
		}
	}

	filtered := base
	if req.Search != "" && len(d.SearchColumns) > 0 {
		pattern := "%" + escapeLike(req.Search) + "%"
		parts := make([]string, len(d.SearchColumns))
		args := make([]any, len(d.SearchColumns))
		for i, col := range d.SearchColumns {
			parts[i] = col + ` ILIKE ? ESCAPE '\'`
			args[i] = pattern
		}
		filtered = append(append([]Condition(nil), base...), Where("("+strings.Join(parts, " OR ")+")", args...))
	}

	var st Statements
	where, args := joinConditions(base)
	st.Total, st.TotalArgs = numberPlaceholders("SELECT COUNT(*) FROM "+d.From+where), args

	where, args = joinConditions(filtered)
	st.Filtered, st.FilteredArgs = numberPlaceholders("SELECT COUNT(*) FROM "+d.From+where), args

	order := d.orderBy(req)
	dataArgs := append(append([]any(nil), args...), req.Length, req.Offset())
	st.Data = numberPlaceholders(
		"SELECT " + d.Select + " FROM " + d.From + where + " ORDER BY " + order + " LIMIT ? OFFSET ?",
	)
	st.DataArgs = dataArgs
	return st
}

// orderBy resolves the sort column index against the fixed column list.
func (d Definition) orderBy(req Request) string {
	dir := "ASC"
	if req.OrderDir == "desc" {
		dir = "DESC"
	}

	if req.OrderColumn < 0 {
		if d.DefaultOrder != "" {
			defDir := "ASC"
			if strings.EqualFold(d.DefaultDir, "desc") {
				defDir = "DESC"
			}
			return d.DefaultOrder + " " + defDir + ", " + d.Key + " " + defDir
		}
		return d.Key + " " + dir
	}

	if req.OrderColumn >= len(d.Columns) {
		return d.Key + " " + dir
	}
	col := d.Columns[req.OrderColumn]
	if col == d.Key {
		return col + " " + dir
	}
	// Tie-break on the key so pages are stable.
	return col + " " + dir + ", " + d.Key + " " + dir
}

// Run executes the list request and scans each row with scan.
func Run[T any](ctx context.Context, db Querier, d Definition, req Request, scan func(*sql.Rows) (T, error), scope ...Condition) (*Result[T], error) {
	st := d.Build(req, scope...)

	res := &Result[T]{Draw: req.Draw, Data: []T{}}
	if err := db.QueryRowContext(ctx, st.Total, st.TotalArgs...).Scan(&res.RecordsTotal); err != nil {
		return nil, fmt.Errorf("datatable count total: %w", err)
	}
	if err := db.QueryRowContext(ctx, st.Filtered, st.FilteredArgs...).Scan(&res.RecordsFiltered); err != nil {
		return nil, fmt.Errorf("datatable count filtered: %w", err)
	}

	rows, err := db.QueryContext(ctx, st.Data, st.DataArgs...)
	if err != nil {
		return nil, fmt.Errorf("datatable query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("datatable scan: %w", err)
		}
		res.Data = append(res.Data, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("datatable rows: %w", err)
	}

	res.Page = PageInfo(req, res.RecordsFiltered)
	return res, nil
}

// PageInfo computes the page window for a filtered row count.
func PageInfo(req Request, filtered int) Page {
	p := Page{Current: req.Page, Length: req.Length, Last: 1}
	if filtered > 0 {
		p.Last = (filtered + req.Length - 1) / req.Length
	}
	offset := req.Offset()
	if offset < filtered {
		p.From = offset + 1
		p.To = min(offset+req.Length, filtered)
	}
	return p
}

func joinConditions(conds []Condition) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}
	parts := make([]string, len(conds))
	var args []any
	for i, c := range conds {
		parts[i] = c.SQL
		args = append(args, c.Args...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// numberPlaceholders rewrites ? placeholders to $1..$n.
func numberPlaceholders(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeLike escapes LIKE metacharacters using backslash.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
