package view

import (
	"context"

	"github.com/jiancai-next/internal/cache"
	"github.com/jiancai-next/internal/http/response"
	"github.com/jiancai-next/internal/logger"

	"github.com/gin-gonic/gin"
)

// SessionRequest 登录请求：后端签发的会话令牌由视图层转交
type SessionRequest struct {
	Token string `json:"token" binding:"required"`
}

// Login 建立登录态
// 顺序：设令牌 → 游客购物车合并回放 → 整车拉取 → 拉起推送监听。
// 合并失败的条目留在本地，不阻断登录
func (h *Handler) Login(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.Session.SetToken(req.Token); err != nil {
		response.Unauthorized(c, "invalid session token")
		return
	}

	merged, err := h.Guest.MergeIntoAccount(c.Request.Context(), h.Remote)
	if err != nil {
		logger.Warnw("guest_merge_failed", "error", err)
	}

	if err := h.CartStore.Fetch(c.Request.Context()); err != nil {
		// 登录不因首次拉取失败而回滚，监听连上后还会触发刷新
		logger.Warnw("initial_cart_fetch_failed", "error", err)
	}

	if err := h.Realtime.StartSession(context.Background()); err != nil {
		logger.Errorw("realtime_start_failed", "error", err)
	}

	response.Success(c, gin.H{
		"mode":         h.Session.Mode(),
		"merged_items": merged,
		"cart":         h.CartStore.Snapshot().Cart,
	})
}

// Logout 清除登录态
// 撤下推送监听、清空本地 Store 与快照缓存；服务端购物车独立存续
func (h *Handler) Logout(c *gin.Context) {
	subject := h.Session.Subject()
	h.Realtime.StopSession()
	h.CartStore.Reset()
	if err := cache.DeleteCartSnapshot(c.Request.Context(), subject); err != nil {
		logger.Warnw("snapshot_cache_delete_failed", "error", err)
	}
	h.Session.Clear()

	response.Success(c, gin.H{"mode": h.Session.Mode()})
}
