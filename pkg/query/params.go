// Package query turns raw query strings into typed pagination, sort orders and
// filter predicates, and runs paginated count+fetch queries against the store.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	MinPage     = 0
	MinSize     = 1
	MaxSize     = 100
	DefaultSize = 20

	sortDelimiter = ","
)

// Directions accepted on sort parameters. Anything else falls back to ASC.
var allowedDirections = map[string]bool{
	"ASC":              true,
	"DESC":             true,
	"ASC NULLS FIRST":  true,
	"DESC NULLS FIRST": true,
	"ASC NULLS LAST":   true,
	"DESC NULLS LAST":  true,
}

// Sort columns must be plain identifiers before they reach SQL.
var columnPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type SortField struct {
	Column    string
	Direction string
}

type Pagination struct {
	Page   int
	Size   int
	Limit  int
	Offset int
	Sort   []SortField
}

// Params is the parsed form of a request's query string: pagination settings
// plus every unrecognized key passed through as a candidate filter.
type Params struct {
	Pagination Pagination
	Filters    map[string]string
}

// Parse reads the query string of a Fiber request.
// Expected URL shape: /resource?page=0&size=20&title=x&sort=field1,desc&sort=field2
func Parse(c *fiber.Ctx) Params {
	values := map[string][]string{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		name := string(key)
		values[name] = append(values[name], string(value))
	})
	return ParseValues(values)
}

// ParseValues extracts pagination parameters and filters from raw query values.
// Repeated page/size parameters: the last occurrence wins. Malformed sort
// entries are dropped silently.
func ParseValues(values map[string][]string) Params {
	page := parsePage(values["page"])
	size := parseSize(values["size"])
	sort := parseSort(values["sort"])

	filters := map[string]string{}
	for name, occurrences := range values {
		if name == "page" || name == "size" || name == "sort" {
			continue
		}
		if len(occurrences) > 0 {
			filters[name] = occurrences[len(occurrences)-1]
		}
	}

	return Params{
		Pagination: Pagination{
			Page:   page,
			Size:   size,
			Limit:  size,
			Offset: page * size,
			Sort:   sort,
		},
		Filters: filters,
	}
}

func parsePage(occurrences []string) int {
	if len(occurrences) == 0 {
		return MinPage
	}

	page, err := strconv.Atoi(strings.TrimSpace(occurrences[len(occurrences)-1]))
	if err != nil || page < MinPage {
		return MinPage
	}
	return page
}

func parseSize(occurrences []string) int {
	if len(occurrences) == 0 {
		return DefaultSize
	}

	size, err := strconv.Atoi(strings.TrimSpace(occurrences[len(occurrences)-1]))
	if err != nil {
		return DefaultSize
	}
	if size < MinSize {
		return MinSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// parseSort accepts entries of the form "field,direction" or "field".
// Duplicate fields keep only the last occurrence, in its position.
func parseSort(occurrences []string) []SortField {
	sort := []SortField{}

	for _, rawItem := range occurrences {
		parts := []string{}
		for _, part := range strings.Split(rawItem, sortDelimiter) {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) == 0 {
			continue
		}

		column := parts[0]
		if allowedDirections[column] || !columnPattern.MatchString(column) {
			continue
		}

		direction := "ASC"
		if len(parts) > 1 {
			if candidate := strings.ToUpper(parts[1]); allowedDirections[candidate] {
				direction = candidate
			}
		}

		// A repeated field replaces its earlier entry and moves to the end.
		for i, existing := range sort {
			if existing.Column == column {
				sort = append(sort[:i], sort[i+1:]...)
				break
			}
		}
		sort = append(sort, SortField{Column: column, Direction: direction})
	}

	return sort
}
