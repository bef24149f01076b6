package models

// CartItem 购物车项
// PriceSnapshot 为加入购物车时的快照价格，入车后不随目录价变化，
// 小计始终按快照价计算
type CartItem struct {
	UID             string  `json:"uid"`
	ProductUID      string  `json:"product_uid"`
	VariantUID      *string `json:"variant_uid,omitempty"`
	Quantity        int     `json:"quantity"`
	PriceSnapshot   Money   `json:"price_snapshot"`
	IsSavedForLater bool    `json:"is_saved_for_later"`

	// 展示用冗余字段，仅供渲染，非权威数据
	ProductName  string `json:"product_name"`
	ImageURL     string `json:"image_url"`
	VariantLabel string `json:"variant_label,omitempty"`
}

// CartSummary 购物车汇总
type CartSummary struct {
	Subtotal       Money  `json:"subtotal"`
	TaxAmount      Money  `json:"tax_amount"`
	ShippingAmount Money  `json:"shipping_amount"`
	DiscountAmount Money  `json:"discount_amount"`
	TotalAmount    Money  `json:"total_amount"`
	Currency       string `json:"currency"`
	ItemCount      int    `json:"item_count"`
}

// Recalculate 按分量重算总额：total = subtotal + shipping + tax - discount
func (s *CartSummary) Recalculate() {
	s.TotalAmount = s.Subtotal.
		AddMoney(s.ShippingAmount).
		AddMoney(s.TaxAmount).
		SubMoney(s.DiscountAmount)
}

// Cart 购物车聚合
// CartUID 为 nil 表示尚无服务端购物车（游客态或未发生首次加购）
type Cart struct {
	CartUID *string     `json:"cart_uid"`
	Items   []CartItem  `json:"items"`
	Summary CartSummary `json:"summary"`
}

// ActiveItems 返回活跃购物车项（未移入稍后购买）
// 活跃/稍后购买是同一列表上按标记派生的视图，不是两份数据
func (c Cart) ActiveItems() []CartItem {
	items := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if !item.IsSavedForLater {
			items = append(items, item)
		}
	}
	return items
}

// SavedItems 返回已移入稍后购买的项
func (c Cart) SavedItems() []CartItem {
	items := make([]CartItem, 0)
	for _, item := range c.Items {
		if item.IsSavedForLater {
			items = append(items, item)
		}
	}
	return items
}

// FindItem 按 uid 查找购物车项，未找到返回 -1
func (c Cart) FindItem(itemUID string) int {
	for i := range c.Items {
		if c.Items[i].UID == itemUID {
			return i
		}
	}
	return -1
}

// Clone 深拷贝购物车（切片独立，便于快照/回退）
func (c Cart) Clone() Cart {
	clone := c
	if c.CartUID != nil {
		uid := *c.CartUID
		clone.CartUID = &uid
	}
	clone.Items = make([]CartItem, len(c.Items))
	copy(clone.Items, c.Items)
	for i := range clone.Items {
		if clone.Items[i].VariantUID != nil {
			v := *clone.Items[i].VariantUID
			clone.Items[i].VariantUID = &v
		}
	}
	return clone
}
