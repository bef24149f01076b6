package view

import (
	"github.com/jiancai-next/internal/backend"
	"github.com/jiancai-next/internal/cache"
	"github.com/jiancai-next/internal/gueststore"
	"github.com/jiancai-next/internal/http/response"
	"github.com/jiancai-next/internal/models"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 加购请求
// 价格快照与展示字段仅游客路径使用（由视图层从目录页带入），
// 登录路径下这些字段被忽略，权威数据来自服务端
type CartItemRequest struct {
	ProductUID    string       `json:"product_uid" binding:"required"`
	VariantUID    *string      `json:"variant_uid"`
	Quantity      int          `json:"quantity" binding:"required"`
	PriceSnapshot models.Money `json:"price_snapshot"`
	Currency      string       `json:"currency"`
	ProductName   string       `json:"product_name"`
	ImageURL      string       `json:"image_url"`
	VariantLabel  string       `json:"variant_label"`
}

// CartItemUpdateRequest 购物车项更新请求
type CartItemUpdateRequest struct {
	Quantity        *int  `json:"quantity"`
	IsSavedForLater *bool `json:"is_saved_for_later"`
}

// GetCart 获取购物车快照
// 登录态返回 Store 状态；首次整车拉取未完成时退回最后一次缓存快照；
// 游客态返回本地存储快照
func (h *Handler) GetCart(c *gin.Context) {
	if !h.Session.Authenticated() {
		cart, err := h.Guest.Snapshot()
		if err != nil {
			respondCartError(c, err)
			return
		}
		response.Success(c, gin.H{
			"mode": h.Session.Mode(),
			"cart": cart,
		})
		return
	}

	snapshot := h.CartStore.Snapshot()
	if snapshot.Loading && len(snapshot.Cart.Items) == 0 && cache.Enabled() {
		if cached, err := cache.GetCartSnapshot(c.Request.Context(), h.Session.Subject()); err == nil && cached != nil {
			response.Success(c, gin.H{
				"mode":  h.Session.Mode(),
				"cart":  cached,
				"stale": true,
			})
			return
		}
	}

	response.Success(c, gin.H{
		"mode":             h.Session.Mode(),
		"cart":             snapshot.Cart,
		"loading":          snapshot.Loading,
		"last_error":       snapshot.LastError,
		"refresh_required": snapshot.RefreshRequired,
	})
}

// AddItem 加购
func (h *Handler) AddItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if !h.Session.Authenticated() {
		item, err := h.Guest.AddItem(gueststore.AddItemInput{
			ProductUID:    req.ProductUID,
			VariantUID:    req.VariantUID,
			Quantity:      req.Quantity,
			PriceSnapshot: req.PriceSnapshot,
			Currency:      req.Currency,
			ProductName:   req.ProductName,
			ImageURL:      req.ImageURL,
			VariantLabel:  req.VariantLabel,
		})
		if err != nil {
			respondCartError(c, err)
			return
		}
		response.Success(c, gin.H{"added": true, "item": item})
		return
	}

	err := h.CartStore.Add(c.Request.Context(), backend.AddItemInput{
		ProductUID: req.ProductUID,
		VariantUID: req.VariantUID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		respondCartError(c, err)
		return
	}
	// 延迟更新：等推送事件或整车刷新，响应不带新条目
	response.Success(c, gin.H{"added": true})
}

// UpdateItem 更新购物车项（数量 / 稍后购买标记）
func (h *Handler) UpdateItem(c *gin.Context) {
	itemUID := c.Param("item_uid")
	var req CartItemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Quantity == nil && req.IsSavedForLater == nil {
		response.BadRequest(c, "nothing to update")
		return
	}

	if !h.Session.Authenticated() {
		item, err := h.Guest.UpdateItem(itemUID, gueststore.UpdateItemInput{
			Quantity:        req.Quantity,
			IsSavedForLater: req.IsSavedForLater,
		})
		if err != nil {
			respondCartError(c, err)
			return
		}
		response.Success(c, gin.H{"updated": true, "item": item})
		return
	}

	err := h.CartStore.Update(c.Request.Context(), itemUID, backend.UpdateItemInput{
		Quantity:        req.Quantity,
		IsSavedForLater: req.IsSavedForLater,
	})
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// RemoveItem 删除购物车项
func (h *Handler) RemoveItem(c *gin.Context) {
	itemUID := c.Param("item_uid")

	if !h.Session.Authenticated() {
		if err := h.Guest.RemoveItem(itemUID); err != nil {
			respondCartError(c, err)
			return
		}
		response.Success(c, gin.H{"deleted": true})
		return
	}

	if err := h.CartStore.Remove(c.Request.Context(), itemUID); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// Refresh 显式触发整车刷新
// price_changed 推送或断线恢复后由视图层调用
func (h *Handler) Refresh(c *gin.Context) {
	if !h.Session.Authenticated() {
		response.Unauthorized(c, "refresh requires an authenticated session")
		return
	}
	if err := h.CartStore.Fetch(c.Request.Context()); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{"refreshed": true, "cart": h.CartStore.Snapshot().Cart})
}
