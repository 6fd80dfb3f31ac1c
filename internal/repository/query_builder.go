package repository

import (
	"time"

	"github.com/doug-martin/goqu/v9"
)

// QueryBuilder collects optional list filters and turns them into one goqu
// expression.
type QueryBuilder interface {
	AddCondition(key string, value interface{})
	AddTimeRange(key string, from, to *time.Time)
	HasConditions() bool
	BuildConditions(aliases map[string]string) goqu.Ex
}
