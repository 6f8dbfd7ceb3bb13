package service

import (
	"context"

	"go.uber.org/zap"

	"mall_dev_v1_202609/internal/api/dto"
	"mall_dev_v1_202609/internal/model"
	"mall_dev_v1_202609/internal/repository"
)

// ==================== CartService 购物车服务 ====================

// CartService 购物车服务
// 行项不存价格快照：读取时按当前角色价计算，价格变动会改变
// 历史购物车合计（已与业务确认是有意的一致性选择）
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, logger *zap.Logger) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// Get 获取购物车，首次访问自动建车
func (s *CartService) Get(ctx context.Context, user *model.User) (*dto.CartView, error) {
	cart, err := s.cartRepo.GetOrCreateByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	view := &dto.CartView{
		ID:    cart.ID,
		Items: make([]dto.CartItemView, 0, len(cart.Items)),
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.Product == nil {
			continue
		}
		unit := item.Product.PriceFor(user.Role)
		lineTotal := unit * float64(item.Quantity)
		view.Items = append(view.Items, dto.CartItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			UnitPrice:   unit,
			Quantity:    item.Quantity,
			LineTotal:   lineTotal,
		})
		view.Total += lineTotal
	}
	return view, nil
}

// AddItem 加购
// 同一商品重复加购合并数量；库存校验针对合并后的总量，
// 不足时整个操作不落库
func (s *CartService) AddItem(ctx context.Context, user *model.User, req *dto.CartAddRequest) error {
	if req.Quantity < 1 {
		return ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotFound
	}

	cart, err := s.cartRepo.GetOrCreateByUser(ctx, user.ID)
	if err != nil {
		return err
	}

	existing, err := s.cartRepo.GetItem(ctx, cart.ID, product.ID)
	if err != nil {
		return err
	}

	combined := req.Quantity
	if existing != nil {
		combined += existing.Quantity
	}
	if combined > product.StockQuantity {
		return ErrInsufficientStock
	}

	if existing != nil {
		return s.cartRepo.UpdateItemQuantity(ctx, existing.ID, combined)
	}
	return s.cartRepo.CreateItem(ctx, &model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  req.Quantity,
	})
}

// UpdateItem 修改行项数量，0 表示移除
func (s *CartService) UpdateItem(ctx context.Context, user *model.User, itemID int64, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	cart, err := s.cartRepo.GetOrCreateByUser(ctx, user.ID)
	if err != nil {
		return err
	}

	item, err := s.cartRepo.GetItemByID(ctx, cart.ID, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrCartItemNotFound
	}

	if quantity == 0 {
		return s.cartRepo.DeleteItem(ctx, item.ID)
	}

	product, err := s.productRepo.GetByID(ctx, item.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotFound
	}
	if quantity > product.StockQuantity {
		return ErrInsufficientStock
	}

	return s.cartRepo.UpdateItemQuantity(ctx, item.ID, quantity)
}

// RemoveItem 移除行项
func (s *CartService) RemoveItem(ctx context.Context, user *model.User, itemID int64) error {
	cart, err := s.cartRepo.GetOrCreateByUser(ctx, user.ID)
	if err != nil {
		return err
	}

	item, err := s.cartRepo.GetItemByID(ctx, cart.ID, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrCartItemNotFound
	}
	return s.cartRepo.DeleteItem(ctx, item.ID)
}
