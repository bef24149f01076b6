package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/jiancai-next/internal/backend"
	"github.com/jiancai-next/internal/logger"
)

const reconnectDelay = 5 * time.Second

// Supervisor 按会话生命周期托管监听器
//
// 登录后拉起读循环并在断线后定时重连（每次连上都会经由 Sink
// 触发一次整车刷新），登出时整体撤下。断开期间没有事件缓冲
type Supervisor struct {
	wsURL  string
	tokens backend.TokenSource
	sink   Sink

	mu       sync.Mutex
	cancel   context.CancelFunc
	listener *Listener
}

// NewSupervisor 创建监听托管器
func NewSupervisor(wsURL string, tokens backend.TokenSource, sink Sink) *Supervisor {
	return &Supervisor{wsURL: wsURL, tokens: tokens, sink: sink}
}

// StartSession 登录后启动监听（重复调用会先撤下旧连接）
func (s *Supervisor) StartSession(parent context.Context) error {
	s.StopSession()

	listener, err := NewListener(s.wsURL, s.tokens, s.sink)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	s.cancel = cancel
	s.listener = listener
	s.mu.Unlock()

	go s.run(ctx, listener)
	return nil
}

// StopSession 登出时撤下监听
func (s *Supervisor) StopSession() {
	s.mu.Lock()
	cancel := s.cancel
	listener := s.listener
	s.cancel = nil
	s.listener = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if listener != nil {
		_ = listener.Stop(context.Background())
	}
}

// Running 判断当前是否有托管中的监听
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

func (s *Supervisor) run(ctx context.Context, listener *Listener) {
	for {
		err := listener.Start(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warnw("realtime_disconnected", "error", err, "retry_in", reconnectDelay.String())
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}
