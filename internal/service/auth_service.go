// file: internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeAccess 是唯一允许访问业务接口的令牌类型
const TokenTypeAccess = "access"

const tokenIssuer = "ShopAegis"

// ErrInvalidToken 表示 JWT 无效、过期或解析失败。
var ErrInvalidToken = errors.New("invalid or expired token")

// Claim 定义 JWT 的载荷结构。
// ID 为主体 ID: 客户令牌中是客户 ID，员工令牌中是账号 ID。
// Roles 非空时调用方为员工，按角色授予的权限鉴权。
type Claim struct {
	ID    int64    `json:"uid"`
	Roles []string `json:"roles,omitempty"`
	Type  string   `json:"typ"`
	jwt.RegisteredClaims
}

// Elevated 判断令牌是否携带角色
func (c *Claim) Elevated() bool { return len(c.Roles) > 0 }

// TokenManager 负责签发与校验 HS256 令牌
type TokenManager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenManager 创建令牌管理器，ttl <= 0 时为 24 小时
func NewTokenManager(key string, ttl time.Duration) (*TokenManager, error) {
	if key == "" {
		return nil, errors.New("JWT 密钥不能为空")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{key: []byte(key), ttl: ttl, now: time.Now}, nil
}

// GenToken 生成一个访问令牌，返回令牌与过期时间
func (m *TokenManager) GenToken(subject int64, roles []string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claim{
		ID:    subject,
		Roles: roles,
		Type:  TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subject, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("签名 JWT 失败: %w", err)
	}
	return signed, exp, nil
}

// ParseToken 解析并验证 JWT 字符串
func (m *TokenManager) ParseToken(tokenString string) (*Claim, error) {
	claims := &Claim{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非预期的签名方法: %v", token.Header["alg"])
		}
		return m.key, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, jwt.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w (detail: %v)", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

/* ---------- Context Helpers for Claims ---------- */

type ctxKey int

const claimKey ctxKey = 0

// ContextWithClaim 把已验证的令牌放入 context
func ContextWithClaim(ctx context.Context, c *Claim) context.Context {
	return context.WithValue(ctx, claimKey, c)
}

// ClaimFrom 取出已验证的令牌，没有时返回 nil
func ClaimFrom(ctx context.Context) *Claim {
	c, _ := ctx.Value(claimKey).(*Claim)
	return c
}
