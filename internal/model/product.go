package model

// ==================== Product 商品 ====================

// Product 商品
// 删除为软删除：下架（IsActive=false）而不是物理删除，保留购物车/订单引用
type Product struct {
	BaseModel

	VendorID string `gorm:"type:uuid;index;not null" json:"vendor_id"`
	Vendor   *User  `gorm:"foreignKey:VendorID" json:"-"`

	Name string `gorm:"size:100;not null" json:"name"`

	// 双价位：零售价对普通买家，批发价是 VIP 折扣的基准
	RetailPrice    float64 `gorm:"type:decimal(10,2);not null" json:"retail_price"`
	WholesalePrice float64 `gorm:"type:decimal(10,2);not null" json:"wholesale_price"`

	StockQuantity int  `gorm:"not null;default:0" json:"stock_quantity"`
	IsActive      bool `gorm:"default:true;index" json:"is_active"`
}

func (Product) TableName() string {
	return "products"
}

// VIP 在批发价基础上再打九折
const vipDiscount = 0.9

// PriceFor 按角色解析单价
// VIP 买家拿批发价九折，其余角色一律零售价
func (p *Product) PriceFor(role Role) float64 {
	if role == RoleVIPCustomer {
		return p.WholesalePrice * vipDiscount
	}
	return p.RetailPrice
}
