package dto

// ==================== 购物车 ====================

// CartItemView 购物车行项视图
// UnitPrice 为读取时按当前角色解析的单价，不做加购时快照
type CartItemView struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	LineTotal   float64 `json:"line_total"`
}

// CartView 购物车视图
type CartView struct {
	ID    int64          `json:"id"`
	Items []CartItemView `json:"items"`
	Total float64        `json:"total"`
}

// CartAddRequest 加购请求
type CartAddRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// CartUpdateRequest 修改数量请求，0 表示移除该行
type CartUpdateRequest struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}
