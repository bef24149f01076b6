package models

import "time"

// GuestCartItem 游客购物车项（本地 sqlite 持久化）
// 展示字段与价格快照在加入时冗余落库，离线也能渲染
type GuestCartItem struct {
	UID             string    `gorm:"primarykey;type:varchar(36)" json:"uid"`
	ProductUID      string    `gorm:"type:varchar(64);not null;index" json:"product_uid"`
	VariantUID      *string   `gorm:"type:varchar(64)" json:"variant_uid,omitempty"`
	Quantity        int       `gorm:"not null" json:"quantity"`
	PriceSnapshot   Money     `gorm:"type:decimal(12,2);not null" json:"price_snapshot"`
	Currency        string    `gorm:"type:varchar(8);not null" json:"currency"`
	IsSavedForLater bool      `gorm:"not null;default:false" json:"is_saved_for_later"`
	ProductName     string    `gorm:"type:varchar(255)" json:"product_name"`
	ImageURL        string    `gorm:"type:varchar(512)" json:"image_url"`
	VariantLabel    string    `gorm:"type:varchar(255)" json:"variant_label,omitempty"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName 指定表名
func (GuestCartItem) TableName() string {
	return "guest_cart_items"
}

// ToCartItem 转换为通用购物车项
func (g GuestCartItem) ToCartItem() CartItem {
	return CartItem{
		UID:             g.UID,
		ProductUID:      g.ProductUID,
		VariantUID:      g.VariantUID,
		Quantity:        g.Quantity,
		PriceSnapshot:   g.PriceSnapshot,
		IsSavedForLater: g.IsSavedForLater,
		ProductName:     g.ProductName,
		ImageURL:        g.ImageURL,
		VariantLabel:    g.VariantLabel,
	}
}

// GuestSchema 游客存储结构版本记录（单行）
type GuestSchema struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Version   int       `gorm:"not null" json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (GuestSchema) TableName() string {
	return "guest_schema"
}
