package view

import (
	"github.com/jiancai-next/internal/backend"
	"github.com/jiancai-next/internal/gueststore"
	"github.com/jiancai-next/internal/realtime"
	"github.com/jiancai-next/internal/session"
	"github.com/jiancai-next/internal/store"
)

// Handler 本地门面处理器
// 仅供视图层访问：登录态下转发到购物车 Store（远端同步路径），
// 游客态下转发到本地 gueststore
type Handler struct {
	Session   *session.Session
	CartStore *store.Store
	Guest     *gueststore.Store
	Remote    *backend.Client
	Realtime  *realtime.Supervisor
}

// New 创建门面处理器
func New(sess *session.Session, cartStore *store.Store, guest *gueststore.Store, remote *backend.Client, supervisor *realtime.Supervisor) *Handler {
	return &Handler{
		Session:   sess,
		CartStore: cartStore,
		Guest:     guest,
		Remote:    remote,
		Realtime:  supervisor,
	}
}
