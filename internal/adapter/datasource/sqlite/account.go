// Package sqlite file: internal/adapter/datasource/sqlite/account.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ShopAegis/internal/core/domain"
	"ShopAegis/internal/core/port"
)

// FindAccount 按用户名读取账号，不存在时返回 nil, nil
func (s *Store) FindAccount(ctx context.Context, username string) (*domain.Account, error) {
	var (
		acc        domain.Account
		customerID sql.NullInt64
		roles      string
	)
	err := s.exec.QueryRowContext(ctx,
		`SELECT "id", "username", "passwordHash", "customerId", "roles" FROM "_account" WHERE "username" = ?`,
		username).Scan(&acc.ID, &acc.Username, &acc.PasswordHash, &customerID, &roles)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, port.Internal(fmt.Errorf("查询账号 '%s' 失败: %w", username, err))
	}
	if customerID.Valid {
		acc.CustomerID = &customerID.Int64
	}
	acc.Roles = splitRoles(roles)
	return &acc, nil
}

// CountAccounts 返回账号总数
func (s *Store) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM "_account"`).Scan(&n); err != nil {
		return 0, port.Internal(fmt.Errorf("统计账号数量失败: %w", err))
	}
	return n, nil
}

// CreateAccount 写入一个账号并回填 ID。passwordHash 必须已经是 bcrypt 哈希。
func (s *Store) CreateAccount(ctx context.Context, acc *domain.Account) error {
	var customerID any
	if acc.CustomerID != nil {
		customerID = *acc.CustomerID
	}
	res, err := s.exec.ExecContext(ctx,
		`INSERT INTO "_account" ("username", "passwordHash", "customerId", "roles") VALUES (?, ?, ?, ?)`,
		acc.Username, acc.PasswordHash, customerID, strings.Join(acc.Roles, ","))
	if err != nil {
		return port.Internal(fmt.Errorf("插入账号 '%s' 失败: %w", acc.Username, err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return port.Internal(fmt.Errorf("读取账号 '%s' 的 ID 失败: %w", acc.Username, err))
	}
	acc.ID = id
	return nil
}

func splitRoles(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
