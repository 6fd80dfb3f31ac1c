package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
)

// ErrNoTransaction is returned by operations that must run inside WithTransaction.
var ErrNoTransaction = errors.New("operation requires an active transaction")

type txKey struct{}

// ContextWithTx marks ctx as running inside tx. Stores other than postgres use
// their own value as the marker.
func ContextWithTx(ctx context.Context, tx any) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func TxFrom(ctx context.Context) any {
	return ctx.Value(txKey{})
}

func InTransaction(ctx context.Context) bool {
	return TxFrom(ctx) != nil
}

// Executor is the part of goqu shared by *goqu.Database and *goqu.TxDatabase.
type Executor interface {
	From(from ...interface{}) *goqu.SelectDataset
	Select(cols ...interface{}) *goqu.SelectDataset
	Insert(table interface{}) *goqu.InsertDataset
	Update(table interface{}) *goqu.UpdateDataset
	Delete(table interface{}) *goqu.DeleteDataset
}

// Transactor runs fn inside a single transaction. Nested calls join the
// transaction already carried by ctx.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Executor returns the transaction carried by ctx, or the plain database handle.
func (r *Repository) Executor(ctx context.Context) Executor {
	if tx, ok := TxFrom(ctx).(*goqu.TxDatabase); ok {
		return tx
	}
	return r.GoquDBWrapper
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := r.GoquDBWrapper.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(ContextWithTx(ctx, tx))
	return
}
