package query

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
)

// FilterType defines how a list filter parameter maps onto SQL.
type FilterType int

const (
	FilterExact  FilterType = iota // exact match on the column
	FilterString                   // case-insensitive substring match
	FilterDate                     // date column, supports gt/lt/ge/le prefixes
	FilterBool                     // boolean column
)

// FilterConfig maps a query parameter to its database column.
type FilterConfig struct {
	Type   FilterType
	Column string
}

// ListQuery builds SQL WHERE clauses from list filter parameters.
// It encapsulates the common listing pattern used across the domain repositories.
type ListQuery struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// NewListQuery creates a new ListQuery for the given table and columns.
func NewListQuery(table, cols string) *ListQuery {
	return &ListQuery{
		table: table,
		cols:  cols,
		idx:   1,
	}
}

// Idx returns the next available parameter index.
func (q *ListQuery) Idx() int { return q.idx }

// Add appends a raw WHERE clause fragment (without leading "AND").
func (q *ListQuery) Add(clause string, args ...interface{}) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx += len(args)
}

// AddExact adds an exact-match clause.
func (q *ListQuery) AddExact(column, value string) {
	q.where += fmt.Sprintf(" AND %s = $%d", column, q.idx)
	q.args = append(q.args, value)
	q.idx++
}

// AddString adds a case-insensitive substring clause.
func (q *ListQuery) AddString(column, value string) {
	q.where += fmt.Sprintf(" AND %s ILIKE $%d", column, q.idx)
	q.args = append(q.args, "%"+value+"%")
	q.idx++
}

// AddDate adds a date clause. The value may carry a comparison prefix
// (gt, lt, ge, le); without one the match is exact on the date.
func (q *ListQuery) AddDate(column, value string) {
	op := "="
	switch {
	case strings.HasPrefix(value, "ge"):
		op, value = ">=", value[2:]
	case strings.HasPrefix(value, "le"):
		op, value = "<=", value[2:]
	case strings.HasPrefix(value, "gt"):
		op, value = ">", value[2:]
	case strings.HasPrefix(value, "lt"):
		op, value = "<", value[2:]
	case strings.HasPrefix(value, "eq"):
		value = value[2:]
	}
	q.where += fmt.Sprintf(" AND %s %s $%d", column, op, q.idx)
	q.args = append(q.args, value)
	q.idx++
}

// AddBool adds a boolean clause. Any value other than "true" is false.
func (q *ListQuery) AddBool(column, value string) {
	q.where += fmt.Sprintf(" AND %s = $%d", column, q.idx)
	q.args = append(q.args, value == "true")
	q.idx++
}

// ApplyParam applies a single filter parameter using the config.
func (q *ListQuery) ApplyParam(config FilterConfig, value string) {
	switch config.Type {
	case FilterExact:
		q.AddExact(config.Column, value)
	case FilterString:
		q.AddString(config.Column, value)
	case FilterDate:
		q.AddDate(config.Column, value)
	case FilterBool:
		q.AddBool(config.Column, value)
	}
}

// ApplyParams applies all matching filter parameters from the given map.
func (q *ListQuery) ApplyParams(params map[string]string, configs map[string]FilterConfig) {
	for name, value := range params {
		if config, ok := configs[name]; ok {
			q.ApplyParam(config, value)
		}
	}
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (q *ListQuery) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

// ApplySort processes the sort parameter and sets ORDER BY using config
// column mappings. The value is a comma-separated list of param names,
// optionally prefixed with - for DESC. Falls back to defaultOrder.
func (q *ListQuery) ApplySort(sortParam, defaultOrder string, configs map[string]FilterConfig) {
	if sortParam == "" {
		q.orderBy = defaultOrder
		return
	}
	var parts []string
	for _, field := range strings.Split(sortParam, ",") {
		field = strings.TrimSpace(field)
		desc := false
		if strings.HasPrefix(field, "-") {
			desc = true
			field = field[1:]
		}
		if config, ok := configs[field]; ok {
			if desc {
				parts = append(parts, config.Column+" DESC")
			} else {
				parts = append(parts, config.Column+" ASC")
			}
		}
	}
	if len(parts) > 0 {
		q.orderBy = strings.Join(parts, ", ")
	} else {
		q.orderBy = defaultOrder
	}
}

// CountSQL returns the count query SQL.
func (q *ListQuery) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", q.table, q.where)
}

// CountArgs returns the arguments for the count query.
func (q *ListQuery) CountArgs() []interface{} {
	return q.args
}

// DataSQL returns the data query SQL with ORDER BY and LIMIT/OFFSET.
func (q *ListQuery) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.table, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
	return sql
}

// DataArgs returns the arguments for the data query (filter args + limit + offset).
func (q *ListQuery) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

// ExtractFilterParams extracts list filter parameters from the query string,
// excluding control parameters (those prefixed with _, plus limit/offset/sort).
func ExtractFilterParams(c echo.Context) map[string]string {
	params := map[string]string{}
	for k, v := range c.QueryParams() {
		if len(v) == 0 || strings.HasPrefix(k, "_") {
			continue
		}
		switch k {
		case "limit", "offset", "sort":
			continue
		}
		params[k] = v[0]
	}
	return params
}
