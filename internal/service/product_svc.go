package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"mall_dev_v1_202609/internal/api/dto"
	"mall_dev_v1_202609/internal/model"
	"mall_dev_v1_202609/internal/repository"
)

// ==================== ProductService 商品服务 ====================

// Cache 键值缓存协作方，只服务公开商品列表，不作为权威数据
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const (
	productListCacheKey = "cache:products:list"
	productListCacheTTL = 300 * time.Second
)

// ProductService 商品服务
type ProductService struct {
	productRepo repository.ProductRepository
	cache       Cache
	logger      *zap.Logger
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository, cache Cache, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		cache:       cache,
		logger:      logger,
	}
}

// ==================== 公开列表 ====================

// ListPublic 公开商品列表（在售且有库存）
// 缓存存的是原始商品行；单价按请求者角色在读取时解析，
// 所以同一份缓存对普通买家和 VIP 都适用
// 缓存读写失败降级为直查数据库，只记日志
func (s *ProductService) ListPublic(ctx context.Context, role model.Role) ([]dto.ProductView, error) {
	products, err := s.loadActiveProducts(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]dto.ProductView, 0, len(products))
	for i := range products {
		p := &products[i]
		views = append(views, dto.ProductView{
			ID:            p.ID,
			Name:          p.Name,
			VendorID:      p.VendorID,
			Price:         p.PriceFor(role),
			StockQuantity: p.StockQuantity,
			IsActive:      p.IsActive,
		})
	}
	return views, nil
}

func (s *ProductService) loadActiveProducts(ctx context.Context) ([]model.Product, error) {
	if cached, ok, err := s.cache.Get(ctx, productListCacheKey); err != nil {
		s.logger.Warn("商品列表缓存读取失败", zap.Error(err))
	} else if ok {
		var products []model.Product
		if err := json.Unmarshal([]byte(cached), &products); err == nil {
			return products, nil
		}
		s.logger.Warn("商品列表缓存内容损坏，回源数据库")
	}

	products, err := s.productRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(products); err == nil {
		if err := s.cache.Set(ctx, productListCacheKey, string(data), productListCacheTTL); err != nil {
			s.logger.Warn("商品列表缓存写入失败", zap.Error(err))
		}
	}
	return products, nil
}

// invalidateListCache 商家改动商品后清缓存，避免 5 分钟的脏窗口
func (s *ProductService) invalidateListCache(ctx context.Context) {
	if err := s.cache.Delete(ctx, productListCacheKey); err != nil {
		s.logger.Warn("商品列表缓存清理失败", zap.Error(err))
	}
}

// ==================== 商家 CRUD ====================

// VendorList 商家自己的商品列表（含已下架）
func (s *ProductService) VendorList(ctx context.Context, vendorID string) ([]dto.VendorProductView, error) {
	products, err := s.productRepo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	views := make([]dto.VendorProductView, 0, len(products))
	for i := range products {
		views = append(views, toVendorView(&products[i]))
	}
	return views, nil
}

// VendorGet 商家查看单个商品
func (s *ProductService) VendorGet(ctx context.Context, vendorID string, id int64) (*dto.VendorProductView, error) {
	product, err := s.ownedProduct(ctx, vendorID, id)
	if err != nil {
		return nil, err
	}
	view := toVendorView(product)
	return &view, nil
}

// VendorCreate 商家创建商品
func (s *ProductService) VendorCreate(ctx context.Context, vendorID string, req *dto.ProductCreateRequest) (*dto.VendorProductView, error) {
	if err := validatePricing(req.RetailPrice, req.WholesalePrice, req.StockQuantity); err != nil {
		return nil, err
	}

	product := &model.Product{
		VendorID:       vendorID,
		Name:           req.Name,
		RetailPrice:    req.RetailPrice,
		WholesalePrice: req.WholesalePrice,
		StockQuantity:  req.StockQuantity,
		IsActive:       true,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	view := toVendorView(product)
	return &view, nil
}

// VendorUpdate 商家更新商品
func (s *ProductService) VendorUpdate(ctx context.Context, vendorID string, id int64, req *dto.ProductUpdateRequest) (*dto.VendorProductView, error) {
	if err := validatePricing(req.RetailPrice, req.WholesalePrice, req.StockQuantity); err != nil {
		return nil, err
	}

	product, err := s.ownedProduct(ctx, vendorID, id)
	if err != nil {
		return nil, err
	}

	product.Name = req.Name
	product.RetailPrice = req.RetailPrice
	product.WholesalePrice = req.WholesalePrice
	product.StockQuantity = req.StockQuantity
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	view := toVendorView(product)
	return &view, nil
}

// VendorDeactivate 商家下架商品（软删除）
func (s *ProductService) VendorDeactivate(ctx context.Context, vendorID string, id int64) error {
	applied, err := s.productRepo.Deactivate(ctx, id, vendorID)
	if err != nil {
		return err
	}
	if !applied {
		return ErrProductNotFound
	}
	s.invalidateListCache(ctx)
	return nil
}

// ownedProduct 取商品并校验归属商家，不暴露他家商品的存在性
func (s *ProductService) ownedProduct(ctx context.Context, vendorID string, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.VendorID != vendorID {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func validatePricing(retail, wholesale float64, stock int) error {
	if wholesale >= retail {
		return ErrPriceInvalid
	}
	if stock < 0 {
		return ErrStockNegative
	}
	return nil
}

func toVendorView(p *model.Product) dto.VendorProductView {
	return dto.VendorProductView{
		ID:             p.ID,
		Name:           p.Name,
		RetailPrice:    p.RetailPrice,
		WholesalePrice: p.WholesalePrice,
		StockQuantity:  p.StockQuantity,
		IsActive:       p.IsActive,
	}
}
