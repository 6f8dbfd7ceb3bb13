package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mall_dev_v1_202609/internal/model"
)

// ==================== ProductRepository 商品仓库 ====================

// ProductRepository 商品仓库接口
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	ListActive(ctx context.Context) ([]model.Product, error)
	ListByVendor(ctx context.Context, vendorID string) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Deactivate(ctx context.Context, id int64, vendorID string) (bool, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create 创建商品
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetByID 根据 ID 获取商品
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

// ListActive 公开商品列表：在售且有库存
func (r *productRepository) ListActive(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND stock_quantity > ?", true, 0).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

// ListByVendor 商家自己的商品（含已下架）
func (r *productRepository) ListByVendor(ctx context.Context, vendorID string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

// Update 更新商品
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Deactivate 软删除：下架而不是删行，购物车引用保持有效
func (r *productRepository) Deactivate(ctx context.Context, id int64, vendorID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}
