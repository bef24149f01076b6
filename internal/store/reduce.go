package store

import (
	"github.com/jiancai-next/internal/models"
	"github.com/jiancai-next/internal/realtime"
)

// State 购物车 Store 状态快照
type State struct {
	Cart    models.Cart `json:"cart"`
	Loading bool        `json:"loading"`
	// LastError 最近一次失败的提示文案，展示用，不向上抛
	LastError string `json:"last_error,omitempty"`
	// RefreshRequired 收到 price_changed 后置位，提示编排层触发整车刷新
	RefreshRequired bool `json:"refresh_required"`
}

// reduceCartUpdate 推送事件折叠核心：对事件类型做穷举分支的纯函数
// 输入状态不被修改，返回新状态。每个 no-op 分支都是显式决定：
//   - item_added 依约定不做本地插入，等整车刷新或由其它路径渲染
//   - item_unavailable 的界面行为未定义，这里不猜
//
// 载荷中的 item_count / cart_total 是变更后的绝对值，直接采纳；
// 总额始终按分量重算，保证 total = subtotal + shipping + tax - discount
func reduceCartUpdate(state State, event realtime.CartUpdate) State {
	next := state
	next.Cart = state.Cart.Clone()

	switch event.Type {
	case realtime.UpdateItemAdded:
		// 显式 no-op

	case realtime.UpdateItemRemoved:
		filtered := next.Cart.Items[:0]
		for _, item := range next.Cart.Items {
			if item.UID != event.ItemUID {
				filtered = append(filtered, item)
			}
		}
		next.Cart.Items = filtered
		adoptSummary(&next.Cart.Summary, event)

	case realtime.UpdateQuantityChanged:
		// uid 找不到时只采纳汇总字段，条目列表保持不变（部分应用）
		if idx := next.Cart.FindItem(event.ItemUID); idx >= 0 && event.NewQuantity != nil {
			next.Cart.Items[idx].Quantity = *event.NewQuantity
		}
		adoptSummary(&next.Cart.Summary, event)

	case realtime.UpdateMovedToSaved:
		if idx := next.Cart.FindItem(event.ItemUID); idx >= 0 {
			next.Cart.Items[idx].IsSavedForLater = true
		}
		adoptSummary(&next.Cart.Summary, event)

	case realtime.UpdatePriceChanged:
		// 不更新任何条目字段，置位等待整车刷新
		next.RefreshRequired = true

	case realtime.UpdateItemUnavailable:
		// 显式 no-op
	}

	return next
}

func adoptSummary(summary *models.CartSummary, event realtime.CartUpdate) {
	if event.ItemCount != nil {
		summary.ItemCount = *event.ItemCount
	}
	if event.CartTotal != nil {
		summary.Subtotal = *event.CartTotal
	}
	summary.Recalculate()
}
