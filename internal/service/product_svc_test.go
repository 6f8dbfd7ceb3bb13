package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mall_dev_v1_202609/internal/api/dto"
	"mall_dev_v1_202609/internal/model"
	"mall_dev_v1_202609/internal/repository"
)

// ==================== 测试辅助 ====================

const (
	vendorA = "11111111-1111-1111-1111-111111111111"
	vendorB = "22222222-2222-2222-2222-222222222222"
)

// fakeCache 内存缓存，记录命中与写入次数
type fakeCache struct {
	data   map[string]string
	hits   int
	sets   int
	broken bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.broken {
		return "", false, errors.New("cache down")
	}
	val, ok := c.data[key]
	if ok {
		c.hits++
	}
	return val, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.broken {
		return errors.New("cache down")
	}
	c.data[key] = value
	c.sets++
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func setupProductTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.Product{}); err != nil {
		t.Fatalf("自动建表失败: %v", err)
	}
	return db
}

func newProductService(t *testing.T) (*ProductService, *fakeCache, *gorm.DB) {
	t.Helper()
	db := setupProductTestDB(t)
	cache := newFakeCache()
	svc := NewProductService(repository.NewProductRepository(db), cache, zap.NewNop())
	return svc, cache, db
}

func createProduct(t *testing.T, svc *ProductService, vendorID, name string, retail, wholesale float64, stock int) *dto.VendorProductView {
	t.Helper()
	view, err := svc.VendorCreate(context.Background(), vendorID, &dto.ProductCreateRequest{
		Name:           name,
		RetailPrice:    retail,
		WholesalePrice: wholesale,
		StockQuantity:  stock,
	})
	if err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	return view
}

// ==================== 公开列表 ====================

func TestProductService_ListPublicRolePricing(t *testing.T) {
	svc, _, _ := newProductService(t)
	ctx := context.Background()
	createProduct(t, svc, vendorA, "保温杯", 100, 60, 10)

	normal, err := svc.ListPublic(ctx, model.RoleNormalCustomer)
	if err != nil {
		t.Fatalf("公开列表查询失败: %v", err)
	}
	if len(normal) != 1 || normal[0].Price != 100 {
		t.Fatalf("普通买家应看到零售价 100, got %+v", normal)
	}

	// VIP 看到批发价 9 折：60 * 0.9 = 54
	vip, err := svc.ListPublic(ctx, model.RoleVIPCustomer)
	if err != nil {
		t.Fatalf("公开列表查询失败: %v", err)
	}
	if vip[0].Price != 54 {
		t.Fatalf("VIP 应看到 54, got %.2f", vip[0].Price)
	}
}

func TestProductService_ListPublicExcludesInactiveAndOutOfStock(t *testing.T) {
	svc, _, db := newProductService(t)
	ctx := context.Background()
	createProduct(t, svc, vendorA, "在售", 100, 60, 10)
	offShelf := createProduct(t, svc, vendorA, "已下架", 100, 60, 10)
	createProduct(t, svc, vendorA, "零库存", 100, 60, 0)

	db.Model(&model.Product{}).Where("id = ?", offShelf.ID).Update("is_active", false)

	views, err := svc.ListPublic(ctx, model.RoleNormalCustomer)
	if err != nil {
		t.Fatalf("公开列表查询失败: %v", err)
	}
	if len(views) != 1 || views[0].Name != "在售" {
		t.Fatalf("列表应只含在售且有库存的商品, got %+v", views)
	}
}

func TestProductService_ListPublicCacheSharedAcrossRoles(t *testing.T) {
	svc, cache, _ := newProductService(t)
	ctx := context.Background()
	createProduct(t, svc, vendorA, "保温杯", 100, 60, 10)

	if _, err := svc.ListPublic(ctx, model.RoleNormalCustomer); err != nil {
		t.Fatalf("首次查询失败: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("首次查询应回填缓存, sets=%d", cache.sets)
	}

	// 缓存存原始行，VIP 请求命中同一份缓存但价格按角色解析
	vip, err := svc.ListPublic(ctx, model.RoleVIPCustomer)
	if err != nil {
		t.Fatalf("VIP 查询失败: %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("第二次查询应命中缓存, hits=%d", cache.hits)
	}
	if vip[0].Price != 54 {
		t.Fatalf("缓存命中时 VIP 价仍应为 54, got %.2f", vip[0].Price)
	}
}

func TestProductService_ListPublicCacheFailureFallsBack(t *testing.T) {
	svc, cache, _ := newProductService(t)
	ctx := context.Background()
	createProduct(t, svc, vendorA, "保温杯", 100, 60, 10)
	cache.broken = true

	// 缓存故障降级直查数据库
	views, err := svc.ListPublic(ctx, model.RoleNormalCustomer)
	if err != nil {
		t.Fatalf("缓存故障时应降级查库: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("降级查询应返回商品, got %d", len(views))
	}
}

func TestProductService_MutationInvalidatesCache(t *testing.T) {
	svc, cache, _ := newProductService(t)
	ctx := context.Background()
	created := createProduct(t, svc, vendorA, "保温杯", 100, 60, 10)

	if _, err := svc.ListPublic(ctx, model.RoleNormalCustomer); err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(cache.data) == 0 {
		t.Fatal("查询后应有缓存")
	}

	if _, err := svc.VendorUpdate(ctx, vendorA, created.ID, &dto.ProductUpdateRequest{
		Name:           "保温杯",
		RetailPrice:    120,
		WholesalePrice: 70,
		StockQuantity:  10,
	}); err != nil {
		t.Fatalf("更新商品失败: %v", err)
	}
	if len(cache.data) != 0 {
		t.Fatal("商品变更后应清空列表缓存")
	}

	views, _ := svc.ListPublic(ctx, model.RoleNormalCustomer)
	if views[0].Price != 120 {
		t.Fatalf("更新后价格应为 120, got %.2f", views[0].Price)
	}
}

// ==================== 商家 CRUD ====================

func TestProductService_VendorCreateValidation(t *testing.T) {
	svc, _, _ := newProductService(t)
	ctx := context.Background()

	// 批发价必须低于零售价
	_, err := svc.VendorCreate(ctx, vendorA, &dto.ProductCreateRequest{
		Name: "倒挂价", RetailPrice: 60, WholesalePrice: 100, StockQuantity: 5,
	})
	if !errors.Is(err, ErrPriceInvalid) {
		t.Fatalf("批发价不低于零售价应拒绝, got %v", err)
	}

	_, err = svc.VendorCreate(ctx, vendorA, &dto.ProductCreateRequest{
		Name: "同价", RetailPrice: 100, WholesalePrice: 100, StockQuantity: 5,
	})
	if !errors.Is(err, ErrPriceInvalid) {
		t.Fatalf("批发价等于零售价也应拒绝, got %v", err)
	}
}

func TestProductService_VendorOwnershipEnforced(t *testing.T) {
	svc, _, _ := newProductService(t)
	ctx := context.Background()
	created := createProduct(t, svc, vendorA, "保温杯", 100, 60, 10)

	// 他家商品不可见也不可改，不暴露存在性
	if _, err := svc.VendorGet(ctx, vendorB, created.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("他家商品应表现为不存在, got %v", err)
	}
	_, err := svc.VendorUpdate(ctx, vendorB, created.ID, &dto.ProductUpdateRequest{
		Name: "篡改", RetailPrice: 1, WholesalePrice: 0.5, StockQuantity: 1,
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("他家商品不可更新, got %v", err)
	}
	if err := svc.VendorDeactivate(ctx, vendorB, created.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("他家商品不可下架, got %v", err)
	}
}

func TestProductService_VendorDeactivate(t *testing.T) {
	svc, _, _ := newProductService(t)
	ctx := context.Background()
	created := createProduct(t, svc, vendorA, "保温杯", 100, 60, 10)

	if err := svc.VendorDeactivate(ctx, vendorA, created.ID); err != nil {
		t.Fatalf("下架失败: %v", err)
	}

	// 公开列表不再出现
	views, _ := svc.ListPublic(ctx, model.RoleNormalCustomer)
	if len(views) != 0 {
		t.Fatalf("下架商品不应出现在公开列表, got %+v", views)
	}

	// 商家自己的列表仍可见（含下架）
	mine, err := svc.VendorList(ctx, vendorA)
	if err != nil {
		t.Fatalf("商家列表查询失败: %v", err)
	}
	if len(mine) != 1 || mine[0].IsActive {
		t.Fatalf("商家列表应含已下架商品, got %+v", mine)
	}
}

func TestProductService_VendorListOnlyOwn(t *testing.T) {
	svc, _, _ := newProductService(t)
	ctx := context.Background()
	createProduct(t, svc, vendorA, "甲家商品", 100, 60, 10)
	createProduct(t, svc, vendorB, "乙家商品", 80, 40, 5)

	mine, err := svc.VendorList(ctx, vendorA)
	if err != nil {
		t.Fatalf("商家列表查询失败: %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "甲家商品" {
		t.Fatalf("商家只应看到自己的商品, got %+v", mine)
	}
}
