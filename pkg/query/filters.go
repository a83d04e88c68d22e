package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/geosight/backend/pkg/httperr"
)

type FilterType string

const (
	TypeString  FilterType = "string"
	TypeNumber  FilterType = "number"
	TypeBoolean FilterType = "boolean"
	TypeDate    FilterType = "date"
)

// FilterMapping maps one externally exposed filter name onto a store predicate.
// The set of mappings a handler passes to Scope is the whitelist: query keys
// without a mapping never influence the query.
type FilterMapping struct {
	Type   FilterType
	Column string
	// Op is the SQL comparison operator, "=" when empty.
	Op string
	// AllowMultiValue enables comma-separated values combined into an IN set.
	AllowMultiValue bool
}

// Scope builds a GORM scope from the received filters and a whitelist.
// Unknown filter keys and empty values are ignored. A value that cannot be
// coerced to the mapping's type fails the request with a 400 naming the
// offending parameter.
func Scope(filters map[string]string, whitelist map[string]FilterMapping) (func(*gorm.DB) *gorm.DB, error) {
	type condition struct {
		clause string
		values []interface{}
	}
	conditions := []condition{}

	for name, value := range filters {
		mapping, wanted := whitelist[name]
		if !wanted || value == "" {
			continue
		}

		rawValues := []string{value}
		if mapping.AllowMultiValue && strings.Contains(value, ",") {
			rawValues = strings.Split(value, ",")
			for i := range rawValues {
				rawValues[i] = strings.TrimSpace(rawValues[i])
			}
		}

		parsed := make([]interface{}, 0, len(rawValues))
		for _, raw := range rawValues {
			coerced, err := coerceFilterValue(mapping.Type, raw, mapping.Column)
			if err != nil {
				return nil, err
			}
			parsed = append(parsed, coerced)
		}

		if len(parsed) > 1 {
			conditions = append(conditions, condition{
				clause: fmt.Sprintf("%s IN ?", mapping.Column),
				values: []interface{}{parsed},
			})
		} else {
			op := mapping.Op
			if op == "" {
				op = "="
			}
			conditions = append(conditions, condition{
				clause: fmt.Sprintf("%s %s ?", mapping.Column, op),
				values: []interface{}{parsed[0]},
			})
		}
	}

	return func(db *gorm.DB) *gorm.DB {
		for _, cond := range conditions {
			db = db.Where(cond.clause, cond.values...)
		}
		return db
	}, nil
}

func coerceFilterValue(filterType FilterType, value string, column string) (interface{}, error) {
	switch filterType {
	case TypeNumber:
		number, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, httperr.BadRequest(fmt.Sprintf("%q query parameter must be a number.", column))
		}
		return number, nil

	case TypeBoolean:
		switch strings.ToLower(value) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, httperr.BadRequest(fmt.Sprintf("%q query parameter must be boolean.", column))
		}

	case TypeDate:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, value); err == nil {
				return parsed, nil
			}
		}
		return nil, httperr.BadRequest(fmt.Sprintf("%q query parameter must be a date.", column))

	default:
		return value, nil
	}
}
