package repository

import (
	"time"

	"github.com/doug-martin/goqu/v9"
)

type queryBuilderImpl struct {
	conditions map[string]interface{}
}

func NewQueryBuilder() QueryBuilder {
	return &queryBuilderImpl{
		conditions: make(map[string]interface{}),
	}
}

func (q *queryBuilderImpl) AddCondition(key string, value interface{}) {
	q.conditions[key] = value
}

// AddTimeRange filters key to the half-open range [from, to). Either bound may be nil.
func (q *queryBuilderImpl) AddTimeRange(key string, from, to *time.Time) {
	op := goqu.Op{}
	if from != nil {
		op["gte"] = *from
	}
	if to != nil {
		op["lt"] = *to
	}
	if len(op) > 0 {
		q.conditions[key] = op
	}
}

func (q *queryBuilderImpl) HasConditions() bool {
	return len(q.conditions) > 0
}

// BuildConditions renames keys found in aliases, typically to a table-qualified column.
func (q *queryBuilderImpl) BuildConditions(aliases map[string]string) goqu.Ex {
	conditions := goqu.Ex{}
	for key, value := range q.conditions {
		if alias, ok := aliases[key]; ok {
			conditions[alias] = value
		} else {
			conditions[key] = value
		}
	}
	return conditions
}
