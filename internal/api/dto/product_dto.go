package dto

// ==================== 商品 ====================

// ProductView 商品视图，Price 为按请求角色解析后的单价
type ProductView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	VendorID      string  `json:"vendor_id"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
	IsActive      bool    `json:"is_active"`
}

// VendorProductView 商家视角的商品，含双价位
type VendorProductView struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	RetailPrice    float64 `json:"retail_price"`
	WholesalePrice float64 `json:"wholesale_price"`
	StockQuantity  int     `json:"stock_quantity"`
	IsActive       bool    `json:"is_active"`
}

// ProductCreateRequest 创建商品请求
type ProductCreateRequest struct {
	Name           string  `json:"name" binding:"required,max=100"`
	RetailPrice    float64 `json:"retail_price" binding:"required,gt=0"`
	WholesalePrice float64 `json:"wholesale_price" binding:"required,gt=0"`
	StockQuantity  int     `json:"stock_quantity" binding:"gte=0"`
}

// ProductUpdateRequest 更新商品请求
type ProductUpdateRequest struct {
	Name           string  `json:"name" binding:"required,max=100"`
	RetailPrice    float64 `json:"retail_price" binding:"required,gt=0"`
	WholesalePrice float64 `json:"wholesale_price" binding:"required,gt=0"`
	StockQuantity  int     `json:"stock_quantity" binding:"gte=0"`
}
