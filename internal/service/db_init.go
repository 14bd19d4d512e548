// file: internal/service/db_init.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"ShopAegis/internal/adapter/datasource/sqlite"
	"ShopAegis/internal/core/domain"
)

// 启动时写入的订单状态，第一个为新订单的默认状态
var defaultOrderStatuses = []struct{ name, desc string }{
	{DefaultOrderStatus, "订单已创建"},
	{"PROCESSING", "订单处理中"},
	{"SHIPPED", "已发货"},
	{"DELIVERED", "已送达"},
	{"CANCELLED", "已取消"},
}

var defaultProductStatuses = []struct{ name, desc string }{
	{"AVAILABLE", "在售"},
	{"DISCONTINUED", "已下架"},
}

// InitPlatform 在系统启动时建表，并写入内置权限、admin 角色及字典数据。
// 可以重复执行，已存在的记录不会被重复写入。
func InitPlatform(ctx context.Context, store *sqlite.Store) error {
	if err := sqlite.InitSchema(ctx, store.Executor()); err != nil {
		return fmt.Errorf("初始化表结构失败: %w", err)
	}
	err := store.InTx(ctx, func(tx *sqlite.Store) error {
		role, err := ensureNamed(ctx, tx.Roles, domain.AdminRole, func() *domain.Role {
			return &domain.Role{Name: domain.AdminRole, Description: "系统管理员，拥有全部权限"}
		})
		if err != nil {
			return err
		}
		for _, name := range domain.AllPrivileges {
			p, err := ensureNamed(ctx, tx.Privileges, name, func() *domain.Privilege {
				return &domain.Privilege{Name: name}
			})
			if err != nil {
				return err
			}
			if err := tx.GrantPrivilege(ctx, role.ID, p.ID); err != nil {
				return err
			}
		}
		for _, st := range defaultOrderStatuses {
			if _, err := ensureNamed(ctx, tx.OrderStatuses, st.name, func() *domain.OrderStatus {
				return &domain.OrderStatus{Name: st.name, Description: st.desc}
			}); err != nil {
				return err
			}
		}
		for _, st := range defaultProductStatuses {
			if _, err := ensureNamed(ctx, tx.ProductStatuses, st.name, func() *domain.ProductStatus {
				return &domain.ProductStatus{Name: st.name, Description: st.desc}
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("写入内置数据失败: %w", err)
	}
	slog.Info("数据库: 表结构与内置数据初始化/检查完成")
	return nil
}

// ensureNamed 按 name 查找未删除的记录，不存在时用 build 的结果插入
func ensureNamed[T any, P sqlite.Entity[T]](ctx context.Context, repo *sqlite.Repository[T, P], name string, build func() *T) (*T, error) {
	where, err := whereEq(repo.Schema(), map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	found, err := repo.FindOne(ctx, where)
	if err != nil {
		return nil, err
	}
	if found != nil {
		return found, nil
	}
	e := build()
	if err := repo.Insert(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
