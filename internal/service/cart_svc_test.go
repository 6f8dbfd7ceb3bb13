package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mall_dev_v1_202609/internal/api/dto"
	"mall_dev_v1_202609/internal/model"
	"mall_dev_v1_202609/internal/repository"
)

// ==================== 测试辅助 ====================

func setupCartTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Product{}, &model.Cart{}, &model.CartItem{}); err != nil {
		t.Fatalf("自动建表失败: %v", err)
	}
	return db
}

func newCartService(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	db := setupCartTestDB(t)
	svc := NewCartService(
		repository.NewCartRepository(db),
		repository.NewProductRepository(db),
		zap.NewNop(),
	)
	return svc, db
}

func seedBuyer(t *testing.T, db *gorm.DB, role model.Role) *model.User {
	t.Helper()
	user := &model.User{
		Email:      string(role) + "@example.com",
		Role:       role,
		IsVerified: true,
		IsApproved: true,
		IsActive:   true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("创建买家失败: %v", err)
	}
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, name string, retail, wholesale float64, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		VendorID:       "11111111-1111-1111-1111-111111111111",
		Name:           name,
		RetailPrice:    retail,
		WholesalePrice: wholesale,
		StockQuantity:  stock,
		IsActive:       true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	return product
}

// ==================== 单元测试 ====================

func TestCartService_GetCreatesEmptyCart(t *testing.T) {
	svc, db := newCartService(t)
	buyer := seedBuyer(t, db, model.RoleNormalCustomer)

	view, err := svc.Get(context.Background(), buyer)
	if err != nil {
		t.Fatalf("获取购物车失败: %v", err)
	}
	if len(view.Items) != 0 || view.Total != 0 {
		t.Fatalf("首次访问应得到空车, got %+v", view)
	}

	// 再次获取应复用同一辆车
	again, err := svc.Get(context.Background(), buyer)
	if err != nil {
		t.Fatalf("二次获取失败: %v", err)
	}
	if again.ID != view.ID {
		t.Fatal("同一买家应复用同一购物车")
	}
}

func TestCartService_AddItemMergesQuantity(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	buyer := seedBuyer(t, db, model.RoleNormalCustomer)
	product := seedProduct(t, db, "保温杯", 100, 60, 10)

	if err := svc.AddItem(ctx, buyer, &dto.CartAddRequest{ProductID: product.ID, Quantity: 3}); err != nil {
		t.Fatalf("首次加购失败: %v", err)
	}
	if err := svc.AddItem(ctx, buyer, &dto.CartAddRequest{ProductID: product.ID, Quantity: 4}); err != nil {
		t.Fatalf("重复加购失败: %v", err)
	}

	view, _ := svc.Get(ctx, buyer)
	if len(view.Items) != 1 {
		t.Fatalf("同一商品应合并为一行, got %d 行", len(view.Items))
	}
	if view.Items[0].Quantity != 7 {
		t.Fatalf("合并后数量应为 7, got %d", view.Items[0].Quantity)
	}
}

func TestCartService_AddItemStockCheckAfterMerge(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	buyer := seedBuyer(t, db, model.RoleNormalCustomer)
	product := seedProduct(t, db, "保温杯", 100, 60, 10)

	if err := svc.AddItem(ctx, buyer, &dto.CartAddRequest{ProductID: product.ID, Quantity: 8}); err != nil {
		t.Fatalf("首次加购失败: %v", err)
	}

	// 8 + 3 超过库存 10，整个操作不落库
	err := svc.AddItem(ctx, buyer, &dto.CartAddRequest{ProductID: product.ID, Quantity: 3})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("合并后超库存应拒绝, got %v", err)
	}

	view, _ := svc.Get(ctx, buyer)
	if view.Items[0].Quantity != 8 {
		t.Fatalf("被拒的加购不应改变已有数量, got %d", view.Items[0].Quantity)
	}
}

func TestCartService_AddInactiveProduct(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	buyer := seedBuyer(t, db, model.RoleNormalCustomer)
	product := seedProduct(t, db, "下架商品", 100, 60, 10)
	db.Model(product).Update("is_active", false)

	err := svc.AddItem(ctx, buyer, &dto.CartAddRequest{ProductID: product.ID, Quantity: 1})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("已下架商品不可加购, got %v", err)
	}
}

func TestCartService_UpdateItemQuantity(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	buyer := seedBuyer(t, db, model.RoleNormalCustomer)
	product := seedProduct(t, db, "保温杯", 100, 60, 10)

	if err := svc.AddItem(ctx, buyer, &dto.CartAddRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("加购失败: %v", err)
	}
	view, _ := svc.Get(ctx, buyer)
	itemID := view.Items[0].ID

	if err := svc.UpdateItem(ctx, buyer, itemID, 5); err != nil {
		t.Fatalf("修改数量失败: %v", err)
	}
	view, _ = svc.Get(ctx, buyer)
	if view.Items[0].Quantity != 5 {
		t.Fatalf("数量应更新为 5, got %d", view.Items[0].Quantity)
	}

	// 超库存拒绝
	if err := svc.UpdateItem(ctx, buyer, itemID, 11); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("超库存应拒绝, got %v", err)
	}
}

func TestCartService_UpdateItemZeroRemoves(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	buyer := seedBuyer(t, db, model.RoleNormalCustomer)
	product := seedProduct(t, db, "保温杯", 100, 60, 10)

	if err := svc.AddItem(ctx, buyer, &dto.CartAddRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("加购失败: %v", err)
	}
	view, _ := svc.Get(ctx, buyer)

	if err := svc.UpdateItem(ctx, buyer, view.Items[0].ID, 0); err != nil {
		t.Fatalf("数量置 0 失败: %v", err)
	}

	view, _ = svc.Get(ctx, buyer)
	if len(view.Items) != 0 {
		t.Fatalf("数量置 0 应移除该行, got %d 行", len(view.Items))
	}
}

func TestCartService_RemoveItemNotOwned(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	buyer := seedBuyer(t, db, model.RoleNormalCustomer)
	other := seedBuyer(t, db, model.RoleVIPCustomer)
	product := seedProduct(t, db, "保温杯", 100, 60, 10)

	if err := svc.AddItem(ctx, buyer, &dto.CartAddRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("加购失败: %v", err)
	}
	view, _ := svc.Get(ctx, buyer)

	// 他人购物车里的行项对当前买家不可见
	err := svc.RemoveItem(ctx, other, view.Items[0].ID)
	if !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("不应能操作他人购物车的行项, got %v", err)
	}
}

func TestCartService_TotalUsesRolePrice(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	normal := seedBuyer(t, db, model.RoleNormalCustomer)
	vip := seedBuyer(t, db, model.RoleVIPCustomer)
	product := seedProduct(t, db, "保温杯", 100, 60, 10)

	if err := svc.AddItem(ctx, normal, &dto.CartAddRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("普通买家加购失败: %v", err)
	}
	if err := svc.AddItem(ctx, vip, &dto.CartAddRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("VIP 加购失败: %v", err)
	}

	normalView, _ := svc.Get(ctx, normal)
	if normalView.Total != 200 {
		t.Fatalf("普通买家按零售价合计应为 200, got %.2f", normalView.Total)
	}

	// VIP 按批发价 9 折：60 * 0.9 * 2 = 108
	vipView, _ := svc.Get(ctx, vip)
	if vipView.Total != 108 {
		t.Fatalf("VIP 合计应为 108, got %.2f", vipView.Total)
	}
}

func TestCartService_PriceChangeAffectsTotal(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()
	buyer := seedBuyer(t, db, model.RoleNormalCustomer)
	product := seedProduct(t, db, "保温杯", 100, 60, 10)

	if err := svc.AddItem(ctx, buyer, &dto.CartAddRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("加购失败: %v", err)
	}

	// 行项不存价格快照，商家调价后合计随之变化
	db.Model(product).Update("retail_price", 120)

	view, _ := svc.Get(ctx, buyer)
	if view.Total != 240 {
		t.Fatalf("调价后合计应为 240, got %.2f", view.Total)
	}
}
