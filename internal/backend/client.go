package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jiancai-next/internal/models"
)

var (
	ErrConfigInvalid   = errors.New("backend config invalid")
	ErrRequestFailed   = errors.New("backend request failed")
	ErrResponseInvalid = errors.New("backend response invalid")
	ErrBackendRejected = errors.New("backend rejected request")
	ErrUnauthorized    = errors.New("backend session unauthorized")
)

// TokenSource 提供当前会话的 Bearer Token；空串表示游客态
type TokenSource interface {
	Token() string
}

// Config 后端接口配置
type Config struct {
	BaseURL string // REST 基础地址
	// 请求超时。0 表示不设超时，挂起的请求不会被中断
	Timeout time.Duration
}

// Client 远端购物车接口客户端，自身不持有购物车状态
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// CartEnvelope 获取购物车响应
type CartEnvelope struct {
	Cart models.Cart `json:"cart"`
}

// SummaryEnvelope 删除购物车项响应
type SummaryEnvelope struct {
	CartSummary models.CartSummary `json:"cart_summary"`
}

// AddItemInput 加购输入
type AddItemInput struct {
	ProductUID string  `json:"product_uid"`
	VariantUID *string `json:"variant_uid,omitempty"`
	Quantity   int     `json:"quantity"`
}

// UpdateItemInput 购物车项更新输入（nil 字段不提交）
type UpdateItemInput struct {
	Quantity        *int  `json:"quantity,omitempty"`
	IsSavedForLater *bool `json:"is_saved_for_later,omitempty"`
}

// errorBody 后端错误响应体
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// New 创建后端客户端
func New(cfg Config, tokens TokenSource) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if tokens == nil {
		return nil, fmt.Errorf("%w: token source is required", ErrConfigInvalid)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
	}, nil
}

// FetchCart 获取购物车完整快照
func (c *Client) FetchCart(ctx context.Context) (*models.Cart, error) {
	var envelope CartEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Cart, nil
}

// AddItem 新增购物车项
// 成功响应不携带购物车状态，本地更新依赖后续推送事件
func (c *Client) AddItem(ctx context.Context, input AddItemInput) error {
	return c.do(ctx, http.MethodPost, "/api/cart/items", input, nil)
}

// UpdateItem 更新购物车项（数量/稍后购买标记）
func (c *Client) UpdateItem(ctx context.Context, itemUID string, input UpdateItemInput) error {
	if strings.TrimSpace(itemUID) == "" {
		return fmt.Errorf("%w: item uid is empty", ErrRequestFailed)
	}
	return c.do(ctx, http.MethodPut, "/api/cart/items/"+itemUID, input, nil)
}

// RemoveItem 删除购物车项，返回服务端重算后的汇总
func (c *Client) RemoveItem(ctx context.Context, itemUID string) (*models.CartSummary, error) {
	if strings.TrimSpace(itemUID) == "" {
		return nil, fmt.Errorf("%w: item uid is empty", ErrRequestFailed)
	}
	var envelope SummaryEnvelope
	if err := c.do(ctx, http.MethodDelete, "/api/cart/items/"+itemUID, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.CartSummary, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal body failed: %v", ErrRequestFailed, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s", ErrBackendRejected, readErrorMessage(resp))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode failed: %v", ErrResponseInvalid, err)
	}
	return nil
}

func readErrorMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(raw) == 0 {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	var parsed errorBody
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if msg := strings.TrimSpace(parsed.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(parsed.Error); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
