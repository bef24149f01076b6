package constants

// 购物车实时事件类型常量
const (
	CartUpdateItemAdded       = "item_added"
	CartUpdateItemRemoved     = "item_removed"
	CartUpdateQuantityChanged = "quantity_changed"
	CartUpdateMovedToSaved    = "moved_to_saved"
	CartUpdatePriceChanged    = "price_changed"
	CartUpdateItemUnavailable = "item_unavailable"
)

// 会话模式常量
const (
	SessionModeGuest         = "guest"
	SessionModeAuthenticated = "authenticated"
)

// 默认配置常量
const (
	DefaultCurrency       = "CNY"
	DefaultGuestStorePath = "./data/guest_cart.db"
	DefaultListenHost     = "127.0.0.1"
	DefaultListenPort     = "8900"
)

// GuestSchemaVersion 游客购物车本地存储结构版本
// 版本不一致时直接重建本地表，不做迁移
const GuestSchemaVersion = 1

// MinCartQuantity 购物车项最小数量
const MinCartQuantity = 1

// QuantityErrorMessage 数量校验失败的提示文案（界面直接展示）
const QuantityErrorMessage = "Quantity must be at least 1"
