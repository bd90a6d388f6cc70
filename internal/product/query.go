package product

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Operator is the comparison applied to a filterable field.
type Operator string

const (
	OpEqual Operator = "="
	OpLike  Operator = "like"
)

// FilterSpec maps a query parameter, which is also the column name, to its
// operator. Parameters not in the spec are never used for filtering.
type FilterSpec map[string]Operator

// Filters is the filter spec of the product listing.
var Filters = FilterSpec{
	"name":        OpLike,
	"description": OpLike,
	"price":       OpLike,
	"stock":       OpLike,
}

const (
	DefaultOrderField     = "id"
	DefaultOrderDirection = "asc"
	DefaultDateField      = "created_at"
	DefaultPerPage        = 15
	MaxPerPage            = 100
)

var orderFields = map[string]bool{
	"id":         true,
	"name":       true,
	"price":      true,
	"stock":      true,
	"created_at": true,
}

// Condition is a single sanitized WHERE clause. Field is always a column
// name taken from a FilterSpec.
type Condition struct {
	Field string
	Op    Operator
	Value string
}

// ListQuery is a bounded listing query. Every identifier in it comes from an
// allow-list, so stores may interpolate them into SQL.
type ListQuery struct {
	Conditions     []Condition
	DateField      string
	Start          *time.Time
	End            *time.Time
	OrderField     string
	OrderDirection string
	Page           int
	PerPage        int
}

// Desc reports whether the query orders descending.
func (q ListQuery) Desc() bool { return q.OrderDirection == "desc" }

// Offset is the number of rows skipped before the current page.
func (q ListQuery) Offset() int { return (q.Page - 1) * q.PerPage }

// Adjustment records a request value that was ignored or replaced.
type Adjustment struct {
	Param  string
	Value  string
	Reason string
}

func (a Adjustment) String() string {
	return fmt.Sprintf("%s=%q: %s", a.Param, a.Value, a.Reason)
}

// QueryOptions are the caller side defaults of BuildListQuery.
type QueryOptions struct {
	DateField string
	PerPage   int
	Location  *time.Location
}

// BuildListQuery turns raw request parameters into a ListQuery. It never
// fails: unusable values degrade to defaults and are returned as adjustments.
func BuildListQuery(spec FilterSpec, params url.Values, opts QueryOptions) (ListQuery, []Adjustment) {
	var adj []Adjustment

	q := ListQuery{
		DateField:      opts.DateField,
		OrderField:     DefaultOrderField,
		OrderDirection: DefaultOrderDirection,
		Page:           1,
		PerPage:        opts.PerPage,
	}
	if q.DateField == "" {
		q.DateField = DefaultDateField
	}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	for _, field := range sortedFields(spec) {
		v := params.Get(field)
		if v == "" {
			continue
		}
		op := spec[field]
		if op == OpLike {
			v = "%" + v + "%"
		}
		q.Conditions = append(q.Conditions, Condition{Field: field, Op: op, Value: v})
	}

	if v := params.Get("order_field"); v != "" {
		if orderFields[v] {
			q.OrderField = v
		} else {
			adj = append(adj, Adjustment{"order_field", v, "not sortable, using " + DefaultOrderField})
		}
	}
	if v := params.Get("order_direction"); v != "" {
		switch d := strings.ToLower(v); d {
		case "asc", "desc":
			q.OrderDirection = d
		default:
			adj = append(adj, Adjustment{"order_direction", v, "not asc/desc, using " + DefaultOrderDirection})
		}
	}

	if v := params.Get("start"); v != "" {
		if t, err := parseDate(v, loc); err != nil {
			adj = append(adj, Adjustment{"start", v, "invalid date format: " + err.Error()})
		} else {
			start := startOfDay(t)
			q.Start = &start
		}
	}
	if v := params.Get("end"); v != "" {
		if t, err := parseDate(v, loc); err != nil {
			adj = append(adj, Adjustment{"end", v, "invalid date format: " + err.Error()})
		} else {
			end := endOfDay(t)
			q.End = &end
		}
	}

	if v := params.Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= MaxPerPage {
			q.PerPage = n
		} else {
			adj = append(adj, Adjustment{"per_page", v, fmt.Sprintf("outside 1..%d, using %d", MaxPerPage, q.PerPage)})
		}
	}

	// page is read last so its bound uses the final page size
	if v := params.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil || n < 1:
			adj = append(adj, Adjustment{"page", v, "not a positive integer, using 1"})
		case n > maxPage(q.PerPage):
			adj = append(adj, Adjustment{"page", v, "offset out of range, using 1"})
		default:
			q.Page = n
		}
	}

	return q, adj
}

// maxPage is the largest page whose last row position still fits in an int.
func maxPage(perPage int) int {
	return (math.MaxInt-perPage)/perPage + 1
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date", s)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// sortedFields keeps the generated WHERE clause stable.
func sortedFields(spec FilterSpec) []string {
	out := make([]string, 0, len(spec))
	for f := range spec {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
