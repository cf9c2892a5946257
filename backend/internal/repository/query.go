package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"loremaster/backend/internal/constants"
	"loremaster/backend/internal/graph"
	"loremaster/backend/internal/models"

	apperrors "loremaster/backend/pkg/errors"
)

// listQuery accumulates the MATCH/WHERE part shared by a listing's count
// query and its page query. The listed node is always bound to n.
type listQuery struct {
	match  string
	where  []string
	params map[string]any
}

func newListQuery(label string) *listQuery {
	return &listQuery{
		match:  fmt.Sprintf("MATCH (n:%s)", label),
		params: map[string]any{},
	}
}

// eq adds an equality predicate on a property of n when value is non-empty
func (q *listQuery) eq(property, value string) *listQuery {
	if value == "" {
		return q
	}
	q.where = append(q.where, fmt.Sprintf("n.%s = $%s", property, property))
	q.params[property] = value
	return q
}

// flag adds an equality predicate on a boolean property when set
func (q *listQuery) flag(property string, value *bool) *listQuery {
	if value == nil {
		return q
	}
	q.where = append(q.where, fmt.Sprintf("coalesce(n.%s, false) = $%s", property, property))
	q.params[property] = *value
	return q
}

// related requires an outgoing rel from n to the node label {key: value}
func (q *listQuery) related(rel, label, key, value string) *listQuery {
	if value == "" {
		return q
	}
	q.where = append(q.where, fmt.Sprintf("EXISTS { MATCH (n)-[:%s]->(:%s {%s: $%s}) }", rel, label, key, key))
	q.params[key] = value
	return q
}

// incoming requires an incoming rel to n from the node label {key: value}
func (q *listQuery) incoming(rel, label, key, value string) *listQuery {
	if value == "" {
		return q
	}
	q.where = append(q.where, fmt.Sprintf("EXISTS { MATCH (n)<-[:%s]-(:%s {%s: $%s}) }", rel, label, key, key))
	q.params[key] = value
	return q
}

// raw adds a literal predicate
func (q *listQuery) raw(predicate string) *listQuery {
	q.where = append(q.where, predicate)
	return q
}

// search matches term case-insensitively against any of the properties
func (q *listQuery) search(term string, properties ...string) *listQuery {
	term = strings.TrimSpace(term)
	if term == "" || len(properties) == 0 {
		return q
	}
	parts := make([]string, 0, len(properties))
	for _, p := range properties {
		parts = append(parts, fmt.Sprintf("toLower(coalesce(n.%s, '')) CONTAINS toLower($search)", p))
	}
	q.where = append(q.where, "("+strings.Join(parts, " OR ")+")")
	q.params["search"] = term
	return q
}

func (q *listQuery) clause() string {
	if len(q.where) == 0 {
		return q.match
	}
	return q.match + "\nWHERE " + strings.Join(q.where, "\n  AND ")
}

// sortFields maps the sortable field names of one entity to query expressions
type sortFields struct {
	fields     map[string]string
	fallback   string
	idProperty string // final tie-breaker, keeps pages disjoint
}

func newSortFields(idProperty, fallback string, fields map[string]string) sortFields {
	return sortFields{fields: fields, fallback: fallback, idProperty: idProperty}
}

// pageSpec is a validated paging/sort request
type pageSpec struct {
	page    int
	limit   int
	skip    int
	orderBy string
}

// PageLimits sets the page size used when none is requested and the largest
// one allowed
type PageLimits struct {
	Default int
	Max     int
}

func defaultPageLimits() PageLimits {
	return PageLimits{Default: constants.DefaultLimit, Max: constants.MaxLimit}
}

// normalized fills unset limits and keeps Default within Max
func (l PageLimits) normalized() PageLimits {
	if l.Max <= 0 {
		l.Max = constants.MaxLimit
	}
	if l.Default <= 0 {
		l.Default = min(constants.DefaultLimit, l.Max)
	}
	l.Default = min(l.Default, l.Max)
	return l
}

// resolvePage validates opts against the allowlist. Sort keys outside it are
// rejected, never interpolated.
func resolvePage(opts models.ListOptions, sorts sortFields, limits PageLimits) (pageSpec, error) {
	limits = limits.normalized()
	page := opts.Page
	if page < 1 {
		page = constants.DefaultPage
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = limits.Default
	}
	if limit > limits.Max {
		limit = limits.Max
	}
	if page-1 > math.MaxInt/limit {
		return pageSpec{}, apperrors.NewValidation("page", "is too large")
	}

	key := opts.SortBy
	if key == "" {
		key = sorts.fallback
	}
	expr, ok := sorts.fields[key]
	if !ok {
		return pageSpec{}, apperrors.NewValidation("sort_by", fmt.Sprintf("unsupported sort field %q", opts.SortBy))
	}

	direction := "ASC"
	switch strings.ToLower(string(opts.SortOrder)) {
	case "", string(models.SortAsc):
	case string(models.SortDesc):
		direction = "DESC"
	default:
		return pageSpec{}, apperrors.NewValidation("sort_order", fmt.Sprintf("unsupported sort order %q", opts.SortOrder))
	}

	return pageSpec{
		page:    page,
		limit:   limit,
		skip:    (page - 1) * limit,
		orderBy: fmt.Sprintf("%s %s, n.%s ASC", expr, direction, sorts.idProperty),
	}, nil
}

// listPage counts the matches, then fetches one page, both in one read
// transaction so total and items come from the same snapshot. projection
// continues from the bound n and ends with a RETURN.
func listPage[T any](ctx context.Context, b *base, op string, q *listQuery, spec pageSpec, projection string, decode func(*neo4j.Record) T) (*models.Page[T], error) {
	countQuery := q.clause() + "\nRETURN count(n) AS total"
	pageQuery := q.clause() + "\n" + projection + "\nORDER BY " + spec.orderBy + "\nSKIP $skip LIMIT $limit"

	pageParams := make(map[string]any, len(q.params)+2)
	for k, v := range q.params {
		pageParams[k] = v
	}
	pageParams["skip"] = int64(spec.skip)
	pageParams["limit"] = int64(spec.limit)

	result := &models.Page[T]{Items: []T{}, Page: spec.page, Limit: spec.limit}
	err := b.read(ctx, op, func(tx graph.Tx) error {
		result.Items = []T{}
		total, err := count(ctx, tx, countQuery, q.params)
		if err != nil {
			return err
		}
		result.Total = total

		records, err := tx.Run(ctx, pageQuery, pageParams)
		if err != nil {
			return err
		}
		for _, record := range records {
			result.Items = append(result.Items, decode(record))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
