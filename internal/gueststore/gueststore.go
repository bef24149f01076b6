package gueststore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jiancai-next/internal/constants"
	"github.com/jiancai-next/internal/logger"
	"github.com/jiancai-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound    = errors.New("guest cart item not found")
	ErrQuantityInvalid = errors.New(constants.QuantityErrorMessage)
)

// Store 游客购物车本地存储
//
// 未登录时的替代路径：整车落在本地 sqlite，不发任何服务端请求。
// 汇总由客户端简单累加（小计 = Σ 快照价 × 数量），税费/运费/折扣恒为零。
// 单进程单写者，无跨进程同步
type Store struct {
	db *gorm.DB
}

// AddItemInput 游客加购输入
type AddItemInput struct {
	ProductUID    string
	VariantUID    *string
	Quantity      int
	PriceSnapshot models.Money
	Currency      string
	ProductName   string
	ImageURL      string
	VariantLabel  string
}

// UpdateItemInput 游客购物车项更新输入（nil 字段不修改）
type UpdateItemInput struct {
	Quantity        *int
	IsSavedForLater *bool
}

// Open 打开（必要时创建）本地存储
// 结构版本不一致时整体重建，不做迁移：游客购物车可丢，猜错结构不可
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = constants.DefaultGuestStorePath
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create guest store dir failed: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open guest store failed: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// OpenInMemory 打开内存存储（测试用）
func OpenInMemory(name string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(&models.GuestSchema{}, &models.GuestCartItem{}); err != nil {
		return fmt.Errorf("guest store migrate failed: %w", err)
	}

	var schema models.GuestSchema
	err := s.db.First(&schema).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		schema = models.GuestSchema{Version: constants.GuestSchemaVersion, UpdatedAt: time.Now()}
		if err := s.db.Create(&schema).Error; err != nil {
			return fmt.Errorf("guest store init version failed: %w", err)
		}
	case err != nil:
		return fmt.Errorf("guest store read version failed: %w", err)
	case schema.Version != constants.GuestSchemaVersion:
		logger.Warnw("guest_store_schema_mismatch",
			"stored_version", schema.Version,
			"expected_version", constants.GuestSchemaVersion)
		if err := s.rebuild(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) rebuild() error {
	migrator := s.db.Migrator()
	if err := migrator.DropTable(&models.GuestCartItem{}, &models.GuestSchema{}); err != nil {
		return fmt.Errorf("guest store drop failed: %w", err)
	}
	if err := s.db.AutoMigrate(&models.GuestSchema{}, &models.GuestCartItem{}); err != nil {
		return fmt.Errorf("guest store rebuild failed: %w", err)
	}
	schema := models.GuestSchema{Version: constants.GuestSchemaVersion, UpdatedAt: time.Now()}
	if err := s.db.Create(&schema).Error; err != nil {
		return fmt.Errorf("guest store init version failed: %w", err)
	}
	return nil
}

// Snapshot 返回游客购物车快照（条目按加入顺序 + 客户端重算的汇总）
func (s *Store) Snapshot() (*models.Cart, error) {
	items, err := s.listItems()
	if err != nil {
		return nil, err
	}

	cart := &models.Cart{
		CartUID: nil, // 游客购物车没有服务端 uid
		Items:   make([]models.CartItem, 0, len(items)),
	}
	currency := constants.DefaultCurrency
	for _, row := range items {
		cart.Items = append(cart.Items, row.ToCartItem())
		if row.Currency != "" {
			currency = row.Currency
		}
	}

	summary := models.CartSummary{Currency: currency}
	for _, row := range items {
		if row.IsSavedForLater {
			continue
		}
		summary.Subtotal = summary.Subtotal.AddMoney(row.PriceSnapshot.MulInt(row.Quantity))
		summary.ItemCount += row.Quantity
	}
	// 税费/运费/折扣只有服务端能算，游客态保持为零
	summary.Recalculate()
	cart.Summary = summary
	return cart, nil
}

// AddItem 加购
// 追加语义：同一商品重复加购会生成两条记录，不做按商品合并
func (s *Store) AddItem(input AddItemInput) (*models.GuestCartItem, error) {
	if input.Quantity < constants.MinCartQuantity {
		return nil, ErrQuantityInvalid
	}
	if strings.TrimSpace(input.ProductUID) == "" {
		return nil, errors.New("product uid is required")
	}

	now := time.Now()
	row := models.GuestCartItem{
		UID:           uuid.NewString(),
		ProductUID:    input.ProductUID,
		VariantUID:    input.VariantUID,
		Quantity:      input.Quantity,
		PriceSnapshot: input.PriceSnapshot,
		Currency:      input.Currency,
		ProductName:   input.ProductName,
		ImageURL:      input.ImageURL,
		VariantLabel:  input.VariantLabel,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if row.Currency == "" {
		row.Currency = constants.DefaultCurrency
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("guest cart add failed: %w", err)
	}
	return &row, nil
}

// UpdateItem 更新购物车项
func (s *Store) UpdateItem(itemUID string, input UpdateItemInput) (*models.GuestCartItem, error) {
	if input.Quantity != nil && *input.Quantity < constants.MinCartQuantity {
		return nil, ErrQuantityInvalid
	}

	var row models.GuestCartItem
	if err := s.db.First(&row, "uid = ?", itemUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("guest cart lookup failed: %w", err)
	}

	if input.Quantity != nil {
		row.Quantity = *input.Quantity
	}
	if input.IsSavedForLater != nil {
		row.IsSavedForLater = *input.IsSavedForLater
	}
	row.UpdatedAt = time.Now()
	if err := s.db.Save(&row).Error; err != nil {
		return nil, fmt.Errorf("guest cart update failed: %w", err)
	}
	return &row, nil
}

// RemoveItem 删除购物车项
func (s *Store) RemoveItem(itemUID string) error {
	result := s.db.Delete(&models.GuestCartItem{}, "uid = ?", itemUID)
	if result.Error != nil {
		return fmt.Errorf("guest cart remove failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// MoveToSaved 移入稍后购买
func (s *Store) MoveToSaved(itemUID string) (*models.GuestCartItem, error) {
	saved := true
	return s.UpdateItem(itemUID, UpdateItemInput{IsSavedForLater: &saved})
}

// MoveToCart 移回购物车
func (s *Store) MoveToCart(itemUID string) (*models.GuestCartItem, error) {
	saved := false
	return s.UpdateItem(itemUID, UpdateItemInput{IsSavedForLater: &saved})
}

// Clear 清空游客购物车
func (s *Store) Clear() error {
	if err := s.db.Where("1 = 1").Delete(&models.GuestCartItem{}).Error; err != nil {
		return fmt.Errorf("guest cart clear failed: %w", err)
	}
	return nil
}

func (s *Store) listItems() ([]models.GuestCartItem, error) {
	var items []models.GuestCartItem
	if err := s.db.Order("created_at asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("guest cart list failed: %w", err)
	}
	return items, nil
}

// SchemaVersion 返回当前落库的结构版本（测试用）
func (s *Store) SchemaVersion() (int, error) {
	var schema models.GuestSchema
	if err := s.db.First(&schema).Error; err != nil {
		return 0, err
	}
	return schema.Version, nil
}
