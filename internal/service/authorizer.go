// file: internal/service/authorizer.go
package service

import (
	"context"
	"time"

	"ShopAegis/internal/aegobserve"
	"ShopAegis/internal/core/port"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// UnauthorizedMessage 是所有鉴权失败对外统一的提示
const UnauthorizedMessage = "Unauthorized - missing valid access token"

// PrivilegeSource 提供角色到权限的映射
type PrivilegeSource interface {
	PrivilegesForRole(ctx context.Context, role string) ([]string, error)
}

// Authorizer 校验令牌所携带角色是否被授予某项权限。
// 角色的权限集合缓存在带过期时间的 LRU 中。
type Authorizer struct {
	src   PrivilegeSource
	cache *lru.LRU[string, map[string]struct{}]
}

// NewAuthorizer 创建鉴权器。maxEntries/ttl 非正数时使用默认值。
func NewAuthorizer(src PrivilegeSource, maxEntries int, ttl time.Duration) *Authorizer {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Authorizer{
		src:   src,
		cache: lru.NewLRU[string, map[string]struct{}](maxEntries, nil, ttl),
	}
}

// AssertPrivilegeGranted 当令牌的任一角色拥有 privilege 时返回 nil，否则返回 Unauthorized
func (a *Authorizer) AssertPrivilegeGranted(ctx context.Context, claim *Claim, privilege string) error {
	if claim == nil {
		return denied("missing_token")
	}
	for _, role := range claim.Roles {
		granted, err := a.privileges(ctx, role)
		if err != nil {
			return err
		}
		if _, ok := granted[privilege]; ok {
			return nil
		}
	}
	return denied("missing_privilege")
}

// Invalidate 清空缓存，角色授权变化后调用
func (a *Authorizer) Invalidate() { a.cache.Purge() }

func (a *Authorizer) privileges(ctx context.Context, role string) (map[string]struct{}, error) {
	if set, ok := a.cache.Get(role); ok {
		return set, nil
	}
	names, err := a.src.PrivilegesForRole(ctx, role)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	a.cache.Add(role, set)
	return set, nil
}

// caller 是通过校验的调用方
type caller struct {
	claim    *Claim
	elevated bool
}

// owns 判断调用方能否操作属于 customerID 的数据，员工不受归属限制
func (c caller) owns(customerID int64) bool {
	return c.elevated || c.claim.ID == customerID
}

// guard 校验访问令牌。
// 携带角色的令牌必须被授予 privilege；不带角色的令牌视为客户，只要求主体 ID 有效。
// staffOnly 为 true 时客户令牌一律拒绝。
func (a *Authorizer) guard(ctx context.Context, claim *Claim, privilege string, staffOnly bool) (caller, error) {
	if claim == nil || claim.Type != TokenTypeAccess {
		return caller{}, denied("missing_token")
	}
	if claim.Elevated() {
		if err := a.AssertPrivilegeGranted(ctx, claim, privilege); err != nil {
			return caller{}, err
		}
		return caller{claim: claim, elevated: true}, nil
	}
	if staffOnly || claim.ID == 0 {
		return caller{}, denied("customer_forbidden")
	}
	return caller{claim: claim}, nil
}

func denied(reason string) error {
	aegobserve.AccessDenied.WithLabelValues(reason).Inc()
	return port.Unauthorized(UnauthorizedMessage)
}
