package model

// ==================== Cart 购物车 ====================

// Cart 购物车，与账号一对一
type Cart struct {
	BaseModel

	UserID string     `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Items  []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem 购物车行项
// (cart, product) 唯一：同一商品重复加购时合并数量而不是新增行
type CartItem struct {
	BaseModel

	CartID    int64    `gorm:"uniqueIndex:idx_cart_product;not null" json:"cart_id"`
	ProductID int64    `gorm:"uniqueIndex:idx_cart_product;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	Quantity int `gorm:"not null" json:"quantity"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
