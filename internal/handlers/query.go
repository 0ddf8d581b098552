package handlers

import (
	"strconv"
	"strings"

	"catalog/internal/repositories"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// positiveInt parses s as a positive integer, falling back to def for
// anything non-numeric or below one.
func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// buildListQuery translates the raw string query parameters of a list
// request into the repository's filter/sort/pagination specification. It
// also returns the resolved page and limit for the pagination envelope.
//
// Recognized parameters: page, limit, category, minPrice, maxPrice,
// inStock, sort, search. sort is a comma-separated list of
// field:direction pairs applied in listed order; direction "desc" sorts
// descending, anything else ascending. Without sort, products come back
// newest first.
func buildListQuery(params map[string]string) (repositories.ListQuery, int, int) {
	page := positiveInt(params["page"], defaultPage)
	limit := positiveInt(params["limit"], defaultLimit)

	q := repositories.ListQuery{
		Offset: int64(page-1) * int64(limit),
		Limit:  int64(limit),
	}

	if v := params["category"]; v != "" {
		q.Category = v
	}
	if v, ok := params["inStock"]; ok {
		b := v == "true"
		q.InStock = &b
	}
	if v, ok := params["minPrice"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q.MinPrice = &f
		}
	}
	if v, ok := params["maxPrice"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q.MaxPrice = &f
		}
	}
	if v := params["search"]; v != "" {
		q.Search = v
	}

	if v := params["sort"]; v != "" {
		for _, pair := range strings.Split(v, ",") {
			field, dir, _ := strings.Cut(pair, ":")
			if field == "" {
				continue
			}
			q.Sort = append(q.Sort, repositories.SortKey{Field: field, Desc: dir == "desc"})
		}
	}
	if len(q.Sort) == 0 {
		q.Sort = []repositories.SortKey{{Field: "createdAt", Desc: true}}
	}

	return q, page, limit
}
