package gormrepo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txKeyType struct{}

var txKey = txKeyType{}

func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

func inTx(ctx context.Context) bool {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	return ok && tx != nil
}

func getDBFromCtx(ctx context.Context, base *gorm.DB) *gorm.DB {
	if v := ctx.Value(txKey); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx
		}
	}
	return base.WithContext(ctx)
}

// forUpdate row-locks reads made inside a transaction so a player's rows have one writer.
func forUpdate(ctx context.Context, base *gorm.DB) *gorm.DB {
	db := getDBFromCtx(ctx, base)
	if inTx(ctx) {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
