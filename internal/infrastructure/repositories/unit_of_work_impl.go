package repositories

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	domainRepos "partner-portal.backend/internal/domain/repositories"
	"partner-portal.backend/pkg/logger"
)

type txContextKey struct{}

var (
	commitTx   = func(tx *gorm.DB) error { return tx.Commit().Error }
	rollbackTx = func(tx *gorm.DB) error { return tx.Rollback().Error }
)

// UnitOfWorkImpl implements UnitOfWork using GORM
type UnitOfWorkImpl struct {
	db *gorm.DB
}

// NewUnitOfWork creates a new UnitOfWork
func NewUnitOfWork(db *gorm.DB) domainRepos.UnitOfWork {
	return &UnitOfWorkImpl{db: db}
}

// Do runs fn inside a transaction. Nested calls join the transaction already in
// ctx, so a status write made while provisioning commits with the seller id.
func (u *UnitOfWorkImpl) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if p := recover(); p != nil {
			u.rollback(ctx, tx)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		u.rollback(ctx, tx)
		return err
	}

	if err := commitTx(tx); err != nil {
		u.rollback(ctx, tx)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (u *UnitOfWorkImpl) rollback(ctx context.Context, tx *gorm.DB) {
	if err := rollbackTx(tx); err != nil {
		logger.Warn(ctx, "Transaction rollback failed", zap.Error(err))
	}
}

// GetDB returns the transaction carried by ctx, or the base DB
func (u *UnitOfWorkImpl) GetDB(ctx context.Context) *gorm.DB {
	return GetDB(ctx, u.db)
}

// GetDB is the repository-side helper: the tx in ctx if any, otherwise fallback
func GetDB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}
