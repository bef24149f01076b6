package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jiancai-next/internal/backend"
	"github.com/jiancai-next/internal/constants"
	"github.com/jiancai-next/internal/logger"
	"github.com/jiancai-next/internal/models"
	"github.com/jiancai-next/internal/realtime"
)

// ErrQuantityInvalid 本地数量校验失败，未发起网络请求
var ErrQuantityInvalid = errors.New(constants.QuantityErrorMessage)

// RemoteCart 远端购物车接口（backend.Client 的消费面）
type RemoteCart interface {
	FetchCart(ctx context.Context) (*models.Cart, error)
	AddItem(ctx context.Context, input backend.AddItemInput) error
	UpdateItem(ctx context.Context, itemUID string, input backend.UpdateItemInput) error
	RemoveItem(ctx context.Context, itemUID string) (*models.CartSummary, error)
}

// Store 客户端购物车唯一事实源
//
// 单写者纪律：所有变更都经由持锁的 apply* 方法落到状态上，
// 推送事件统一走 reduceCartUpdate 纯折叠。并发请求不做排队，
// 字段级以"最后到达的响应为准"，最终一致依赖整车刷新自愈。
//
// 各操作的更新路径（乐观 / 延迟）：
//   - Fetch   权威全量替换，覆盖一切未确认的乐观修改
//   - Add     延迟：成功后不做本地插入，等推送事件
//   - Update  延迟：成功后不做本地修改，等推送事件
//   - Remove  乐观：成功后立即本地过滤，并原样采纳服务端汇总
type Store struct {
	mu     sync.Mutex
	state  State
	remote RemoteCart

	// onChange 权威状态变化后的回调（快照缓存写入等），持锁外调用
	onChange func(models.Cart)
}

// New 创建购物车 Store
func New(remote RemoteCart) *Store {
	return &Store{
		remote: remote,
		state: State{
			Cart: models.Cart{Items: []models.CartItem{}},
		},
	}
}

// SetOnChange 注册权威状态变化回调
func (s *Store) SetOnChange(fn func(models.Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Snapshot 返回当前状态的深拷贝
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.state
	snapshot.Cart = s.state.Cart.Clone()
	return snapshot
}

// Fetch 拉取整车快照并全量替换本地状态
// 无论之前有多少未确认的乐观修改，最后一次完成的全量刷新都是权威；
// 失败时保持原状态不动，仅记录错误文案，不自动重试
func (s *Store) Fetch(ctx context.Context) error {
	s.setLoading(true)
	cart, err := s.remote.FetchCart(ctx)
	if err != nil {
		s.mu.Lock()
		s.state.Loading = false
		s.state.LastError = err.Error()
		s.mu.Unlock()
		logger.Warnw("cart_fetch_failed", "error", err)
		return err
	}

	s.mu.Lock()
	s.state.Loading = false
	s.state.LastError = ""
	s.state.RefreshRequired = false
	s.state.Cart = cart.Clone()
	onChange := s.onChange
	snapshot := s.state.Cart.Clone()
	s.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
	return nil
}

// Add 加购（延迟更新）
// 成功后不做本地插入，界面更新依赖随后的推送事件或整车刷新
func (s *Store) Add(ctx context.Context, input backend.AddItemInput) error {
	if input.Quantity < constants.MinCartQuantity {
		return ErrQuantityInvalid
	}

	s.setLoading(true)
	err := s.remote.AddItem(ctx, input)

	s.mu.Lock()
	s.state.Loading = false
	if err != nil {
		s.state.LastError = err.Error()
	} else {
		s.state.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		logger.Warnw("cart_add_failed", "product_uid", input.ProductUID, "error", err)
	}
	return err
}

// Update 更新购物车项（延迟更新）
// 调用返回与条目反映新值之间存在时间窗，调用方不得假设立即一致
func (s *Store) Update(ctx context.Context, itemUID string, input backend.UpdateItemInput) error {
	if input.Quantity != nil && *input.Quantity < constants.MinCartQuantity {
		return ErrQuantityInvalid
	}

	s.setLoading(true)
	err := s.remote.UpdateItem(ctx, itemUID, input)

	s.mu.Lock()
	s.state.Loading = false
	if err != nil {
		s.state.LastError = err.Error()
	} else {
		s.state.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		logger.Warnw("cart_update_failed", "item_uid", itemUID, "error", err)
	}
	return err
}

// Remove 删除购物车项（乐观更新）
// 成功后立即本地过滤该项，汇总原样采纳服务端返回值，不重算
func (s *Store) Remove(ctx context.Context, itemUID string) error {
	s.setLoading(true)
	summary, err := s.remote.RemoveItem(ctx, itemUID)
	if err != nil {
		s.mu.Lock()
		s.state.Loading = false
		s.state.LastError = err.Error()
		s.mu.Unlock()
		logger.Warnw("cart_remove_failed", "item_uid", itemUID, "error", err)
		return err
	}

	s.mu.Lock()
	s.state.Loading = false
	s.state.LastError = ""
	filtered := make([]models.CartItem, 0, len(s.state.Cart.Items))
	for _, item := range s.state.Cart.Items {
		if item.UID != itemUID {
			filtered = append(filtered, item)
		}
	}
	s.state.Cart.Items = filtered
	if summary != nil {
		s.state.Cart.Summary = *summary
	}
	onChange := s.onChange
	snapshot := s.state.Cart.Clone()
	s.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
	return nil
}

// ApplyUpdate 折叠一条推送事件（realtime.Sink 实现）
func (s *Store) ApplyUpdate(event realtime.CartUpdate) {
	s.mu.Lock()
	s.state = reduceCartUpdate(s.state, event)
	refreshRequired := s.state.RefreshRequired
	onChange := s.onChange
	snapshot := s.state.Cart.Clone()
	s.mu.Unlock()

	logger.Debugw("cart_update_applied", "update_type", string(event.Type), "item_uid", event.ItemUID)
	if event.Type == realtime.UpdateItemUnavailable {
		logger.Warnw("cart_item_unavailable_ignored", "item_uid", event.ItemUID)
	}
	if refreshRequired && event.Type == realtime.UpdatePriceChanged {
		logger.Infow("cart_refresh_required", "reason", "price_changed", "item_uid", event.ItemUID)
	}
	if onChange != nil {
		onChange(snapshot)
	}
}

// RequestRefresh 触发一次整车刷新（realtime.Sink 实现，重连自愈）
func (s *Store) RequestRefresh(ctx context.Context) {
	if err := s.Fetch(ctx); err != nil {
		logger.Warnw("cart_refresh_failed", "error", err)
	}
}

// RefreshRequired 判断是否有待处理的整车刷新
func (s *Store) RefreshRequired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.RefreshRequired
}

// Reset 登出时清空本地状态（服务端购物车独立存续）
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Cart: models.Cart{Items: []models.CartItem{}}}
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.state.Loading = loading
	s.mu.Unlock()
}

// String 调试输出
func (s *Store) String() string {
	snapshot := s.Snapshot()
	return fmt.Sprintf("cart[items=%d loading=%v refresh=%v]",
		len(snapshot.Cart.Items), snapshot.Loading, snapshot.RefreshRequired)
}
