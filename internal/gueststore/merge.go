package gueststore

import (
	"context"

	"github.com/jiancai-next/internal/backend"
	"github.com/jiancai-next/internal/logger"
)

// RemoteAdder 登录合并所需的远端加购接口
type RemoteAdder interface {
	AddItem(ctx context.Context, input backend.AddItemInput) error
}

// MergeIntoAccount 登录时把游客购物车合并进账户购物车
//
// 按加入顺序逐条回放到远端加购接口，全部回放完后清空本地。
// 单条失败记日志后跳过，不阻断登录；失败的条目保留在本地，
// 下次登录还有机会合并。返回成功回放的条数
func (s *Store) MergeIntoAccount(ctx context.Context, remote RemoteAdder) (int, error) {
	items, err := s.listItems()
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	merged := 0
	for _, row := range items {
		// 稍后购买的条目同样回放，服务端收到后仍是活跃项；
		// 标记本身不进加购接口，属于已知的合并损耗
		err := remote.AddItem(ctx, backend.AddItemInput{
			ProductUID: row.ProductUID,
			VariantUID: row.VariantUID,
			Quantity:   row.Quantity,
		})
		if err != nil {
			logger.Warnw("guest_merge_item_failed",
				"item_uid", row.UID,
				"product_uid", row.ProductUID,
				"error", err)
			continue
		}
		if err := s.RemoveItem(row.UID); err != nil {
			logger.Warnw("guest_merge_cleanup_failed", "item_uid", row.UID, "error", err)
		}
		merged++
	}

	logger.Infow("guest_cart_merged", "total", len(items), "merged", merged)
	return merged, nil
}
