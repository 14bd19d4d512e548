// file: internal/service/account_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ShopAegis/internal/adapter/datasource/sqlite"
	"ShopAegis/internal/core/domain"
	"ShopAegis/internal/core/port"

	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid username or password"

// LoginInput 是登录请求
type LoginInput struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// RegisterInput 为新客户同时创建客户档案和登录账号
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8,max=200"`
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=50"`
}

// Session 是登录成功后返回给客户端的令牌
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Subject   int64     `json:"subject"`
	Roles     []string  `json:"roles,omitempty"`
}

// AccountService 负责账号登录、注册与管理员引导
type AccountService struct {
	store  *sqlite.Store
	tokens *TokenManager
}

func NewAccountService(store *sqlite.Store, tokens *TokenManager) *AccountService {
	return &AccountService{store: store, tokens: tokens}
}

// Login 校验用户名与密码并签发访问令牌。
// 客户账号的令牌主体为客户 ID 且不带角色；员工账号的主体为账号 ID 并携带其角色。
func (s *AccountService) Login(ctx context.Context, in LoginInput) (sess *Session, err error) {
	defer func() { err = normalize("Login", err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}
	acc, err := s.store.FindAccount(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		// 未知用户名也执行一次比较，两种失败的耗时一致
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(in.Password))
		return nil, port.Unauthorized(invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(in.Password)); err != nil {
		return nil, port.Unauthorized(invalidCredentials)
	}

	subject, roles := acc.ID, acc.Roles
	if len(roles) == 0 {
		if acc.CustomerID == nil {
			slog.Warn("账号既无角色也未关联客户，拒绝登录", "username", acc.Username)
			return nil, port.Unauthorized(invalidCredentials)
		}
		subject = *acc.CustomerID
	}
	token, exp, err := s.tokens.GenToken(subject, roles)
	if err != nil {
		return nil, err
	}
	slog.Info("账号登录成功", "username", acc.Username, "subject", subject, "roles", strings.Join(roles, ","))
	return &Session{Token: token, ExpiresAt: exp, Subject: subject, Roles: roles}, nil
}

// Register 创建客户及其登录账号，两者在同一事务中写入
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (c *domain.Customer, err error) {
	defer func() { err = normalize("Register", err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}
	existing, err := s.store.FindAccount(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, port.InvalidState("Username '%s' is already taken", in.Username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("生成密码哈希失败: %w", err)
	}

	c = &domain.Customer{Name: in.Name, Email: in.Email, Phone: in.Phone}
	err = s.store.InTx(ctx, func(tx *sqlite.Store) error {
		if err := tx.Customers.Insert(ctx, c); err != nil {
			return err
		}
		return tx.CreateAccount(ctx, &domain.Account{
			Username:     in.Username,
			PasswordHash: string(hash),
			CustomerID:   &c.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// EnsureAdmin 在尚无任何账号时创建一个拥有 admin 角色的账号。
// 返回 true 表示本次创建了账号。
func (s *AccountService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.store.CountAccounts(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if username == "" || password == "" {
		return false, errors.New("用户名或密码不能为空")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("生成密码哈希失败: %w", err)
	}
	acc := &domain.Account{Username: username, PasswordHash: string(hash), Roles: []string{domain.AdminRole}}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return false, fmt.Errorf("创建管理员账号 '%s' 失败: %w", username, err)
	}
	slog.Info("已创建初始管理员账号", "username", username)
	return true, nil
}

// dummyHash 是一个固定的 cost=10 bcrypt 哈希，仅用于未知用户名时的比较
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
