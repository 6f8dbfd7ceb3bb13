package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"mall_dev_v1_202609/internal/model"
)

// ==================== RevokedTokenRepository 吊销令牌仓库 ====================

// RevokedTokenRepository 吊销令牌仓库接口
type RevokedTokenRepository interface {
	Revoke(ctx context.Context, token *model.RevokedToken) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type revokedTokenRepository struct {
	db *gorm.DB
}

// NewRevokedTokenRepository 创建吊销令牌仓库
func NewRevokedTokenRepository(db *gorm.DB) RevokedTokenRepository {
	return &revokedTokenRepository{db: db}
}

// Revoke 写入吊销记录，重复登出（jti 冲突）视为已吊销
func (r *revokedTokenRepository) Revoke(ctx context.Context, token *model.RevokedToken) error {
	err := r.db.WithContext(ctx).Create(token).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

// IsRevoked 查询 jti 是否已吊销
func (r *revokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RevokedToken{}).
		Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

// DeleteExpired 清理已过期的吊销记录
func (r *revokedTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&model.RevokedToken{})
	return res.RowsAffected, res.Error
}
