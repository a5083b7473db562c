// auth.go

package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleHost 主持人，可以控制游戏
const RoleHost = "host"

var (
	// ErrInvalidToken 令牌无效或已过期
	ErrInvalidToken = errors.New("令牌无效")
	// ErrTokenSession 令牌不属于该会话
	ErrTokenSession = errors.New("令牌与会话不匹配")
)

// ControlClaims 控制令牌声明
type ControlClaims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager 签发和校验控制令牌
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager 创建令牌管理器
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue 为会话签发主持人令牌
func (m *TokenManager) Issue(sessionID string) (string, error) {
	now := m.now()
	claims := ControlClaims{
		SessionID: sessionID,
		Role:      RoleHost,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return token, nil
}

// Verify 校验令牌是否为该会话的主持人令牌
func (m *TokenManager) Verify(tokenString, sessionID string) (*ControlClaims, error) {
	claims := &ControlClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.SessionID != sessionID || claims.Role != RoleHost {
		return nil, ErrTokenSession
	}
	return claims, nil
}
