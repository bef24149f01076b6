package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jiancai-next/internal/constants"
	"github.com/jiancai-next/internal/logger"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenInvalid = errors.New("session token invalid")

// Session 持有后端会话令牌，决定当前走账户路径还是游客路径
//
// 令牌只做本地解析（不验签，验签是后端的事），提取过期时间与主体；
// 令牌为空或已过期时视为游客态
type Session struct {
	mu        sync.RWMutex
	token     string
	subject   string
	expiresAt time.Time
}

// New 创建空会话（游客态）
func New() *Session {
	return &Session{}
}

// SetToken 设置会话令牌（登录）
func (s *Session) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenInvalid
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return errors.Join(ErrTokenInvalid, err)
	}

	var subject string
	if sub, err := claims.GetSubject(); err == nil {
		subject = sub
	}
	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	if !expiresAt.IsZero() && time.Now().After(expiresAt) {
		return errors.Join(ErrTokenInvalid, errors.New("token expired"))
	}

	s.mu.Lock()
	s.token = token
	s.subject = subject
	s.expiresAt = expiresAt
	s.mu.Unlock()

	logger.Infow("session_established", "subject", subject, "expires_at", expiresAt)
	return nil
}

// Clear 清除会话（登出）
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.subject = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// Token 返回当前令牌（backend.TokenSource 实现），游客态返回空串
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expired() {
		return ""
	}
	return s.token
}

// Subject 返回令牌主体
func (s *Session) Subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subject
}

// Authenticated 判断是否处于已登录态
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && !s.expired()
}

// Mode 返回当前会话模式
func (s *Session) Mode() string {
	if s.Authenticated() {
		return constants.SessionModeAuthenticated
	}
	return constants.SessionModeGuest
}

func (s *Session) expired() bool {
	return !s.expiresAt.IsZero() && time.Now().After(s.expiresAt)
}
