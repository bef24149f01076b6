package realtime

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/jiancai-next/internal/backend"
	"github.com/jiancai-next/internal/logger"

	"github.com/gorilla/websocket"
)

var ErrListenerConfigInvalid = errors.New("realtime listener config invalid")

// Sink 接收推送事件的目的地（购物车 Store）
type Sink interface {
	// ApplyUpdate 按到达顺序折叠一条推送事件
	ApplyUpdate(event CartUpdate)
	// RequestRefresh 请求一次整车刷新（重连后的唯一恢复路径）
	RequestRefresh(ctx context.Context)
}

// Listener 购物车推送通道监听器
// 事件按到达顺序应用，无序号、无去重、无断线缓冲；
// 断开后不回放错过的事件，重连时只触发一次整车刷新自愈
type Listener struct {
	url    string
	tokens backend.TokenSource
	sink   Sink
	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewListener 创建监听器
func NewListener(wsURL string, tokens backend.TokenSource, sink Sink) (*Listener, error) {
	if strings.TrimSpace(wsURL) == "" {
		return nil, errors.New("ws url is required")
	}
	if tokens == nil || sink == nil {
		return nil, ErrListenerConfigInvalid
	}
	return &Listener{
		url:    wsURL,
		tokens: tokens,
		sink:   sink,
		dialer: websocket.DefaultDialer,
	}, nil
}

// Name 服务名称
func (l *Listener) Name() string {
	return "realtime"
}

// Start 连接推送通道并进入读循环，直到连接关闭或 ctx 取消
func (l *Listener) Start(ctx context.Context) error {
	header := http.Header{}
	if token := l.tokens.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := l.dialer.DialContext(ctx, l.url, header)
	if err != nil {
		return err
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		conn.Close()
		return nil
	}
	l.conn = conn
	l.mu.Unlock()

	logger.Infow("realtime_connected", "url", l.url)
	// 连接期间错过的事件不可追回，连上即请求整车刷新
	l.sink.RequestRefresh(ctx)

	for {
		if ctx.Err() != nil {
			return nil
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if l.isClosed() || errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			logger.Warnw("realtime_read_failed", "error", err)
			return err
		}

		event, err := DecodeCartUpdate(raw)
		if err != nil {
			logger.Warnw("realtime_event_invalid", "error", err, "payload", string(raw))
			continue
		}
		if !event.Type.Known() {
			logger.Warnw("realtime_event_unknown_type", "update_type", string(event.Type))
			continue
		}
		l.sink.ApplyUpdate(event)
	}
}

// Stop 关闭连接（登出或进程退出时调用）
func (l *Listener) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.conn != nil {
		err := l.conn.Close()
		l.conn = nil
		return err
	}
	return nil
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
