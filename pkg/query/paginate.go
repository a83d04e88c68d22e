package query

import (
	"fmt"

	"gorm.io/gorm"
)

// Page is the envelope wrapping every paginated list response.
type Page[T any] struct {
	CurrentPage int   `json:"currentPage"`
	NextPage    *int  `json:"nextPage"`
	Size        int   `json:"size"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	Data        []T   `json:"data"`
}

type querySettings struct {
	offset *int
	limit  *int
	sort   []SortField
}

type Option func(*querySettings)

// WithOffset overrides the pagination offset.
func WithOffset(offset int) Option {
	return func(s *querySettings) { s.offset = &offset }
}

// WithLimit overrides the pagination limit.
func WithLimit(limit int) Option {
	return func(s *querySettings) { s.limit = &limit }
}

// WithSort overrides the pagination sort order.
func WithSort(sort ...SortField) Option {
	return func(s *querySettings) { s.sort = sort }
}

// FindAllPaginated runs a combined count+fetch against the store and computes
// the page metadata. The db argument carries the model and any filter scopes;
// explicit options take precedence over the parsed pagination values.
func FindAllPaginated[T any](db *gorm.DB, p Pagination, opts ...Option) (*Page[T], error) {
	settings := querySettings{sort: p.Sort}
	for _, opt := range opts {
		opt(&settings)
	}

	offset := p.Offset
	if settings.offset != nil {
		offset = *settings.offset
	}
	limit := p.Limit
	if settings.limit != nil {
		limit = *settings.limit
	}
	if limit < MinSize {
		limit = DefaultSize
	}

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	fetch := db.Session(&gorm.Session{}).Offset(offset).Limit(limit)
	for _, field := range settings.sort {
		fetch = fetch.Order(fmt.Sprintf("%s %s", field.Column, field.Direction))
	}

	rows := []T{}
	if err := fetch.Find(&rows).Error; err != nil {
		return nil, err
	}

	currentPage := offset / limit
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	var nextPage *int
	if next := currentPage + 1; next < totalPages {
		nextPage = &next
	}

	return &Page[T]{
		CurrentPage: currentPage,
		NextPage:    nextPage,
		Size:        limit,
		TotalPages:  totalPages,
		TotalItems:  total,
		Data:        rows,
	}, nil
}
