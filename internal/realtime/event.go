package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jiancai-next/internal/constants"
	"github.com/jiancai-next/internal/models"
)

var ErrEventInvalid = errors.New("cart update event invalid")

// UpdateType 购物车推送事件类型
type UpdateType string

const (
	UpdateItemAdded       UpdateType = constants.CartUpdateItemAdded
	UpdateItemRemoved     UpdateType = constants.CartUpdateItemRemoved
	UpdateQuantityChanged UpdateType = constants.CartUpdateQuantityChanged
	UpdateMovedToSaved    UpdateType = constants.CartUpdateMovedToSaved
	UpdatePriceChanged    UpdateType = constants.CartUpdatePriceChanged
	UpdateItemUnavailable UpdateType = constants.CartUpdateItemUnavailable
)

// Known 判断事件类型是否为已定义的辨识值
func (t UpdateType) Known() bool {
	switch t {
	case UpdateItemAdded, UpdateItemRemoved, UpdateQuantityChanged,
		UpdateMovedToSaved, UpdatePriceChanged, UpdateItemUnavailable:
		return true
	}
	return false
}

// CartUpdate 服务端购物车变更事件
// 载荷携带的是变更后的绝对值（item_count / cart_total），不是增量。
// 各字段按事件类型选用：
//   - item_added:       仅 Type（显式空载荷，折叠为 no-op）
//   - item_removed:     ItemUID + ItemCount + CartTotal
//   - quantity_changed: ItemUID + NewQuantity + ItemCount + CartTotal
//   - moved_to_saved:   ItemUID + ItemCount + CartTotal
//   - price_changed:    ItemUID（不更新任何字段，要求整车刷新）
//   - item_unavailable: ItemUID（未定义界面行为，显式 no-op）
type CartUpdate struct {
	Type        UpdateType    `json:"update_type"`
	ItemUID     string        `json:"item_uid,omitempty"`
	NewQuantity *int          `json:"new_quantity,omitempty"`
	ItemCount   *int          `json:"item_count,omitempty"`
	CartTotal   *models.Money `json:"cart_total,omitempty"`
}

// DecodeCartUpdate 解析推送帧
// 未知事件类型不报错，由调用方丢弃并记日志，避免后端新增类型打断读循环
func DecodeCartUpdate(raw []byte) (CartUpdate, error) {
	var event CartUpdate
	if err := json.Unmarshal(raw, &event); err != nil {
		return CartUpdate{}, fmt.Errorf("%w: %v", ErrEventInvalid, err)
	}
	if event.Type == "" {
		return CartUpdate{}, fmt.Errorf("%w: missing update_type", ErrEventInvalid)
	}
	return event, nil
}
