// Package sqlite file: internal/adapter/datasource/sqlite/store.go
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"ShopAegis/internal/core/domain"
	"ShopAegis/internal/core/port"

	_ "modernc.org/sqlite"
)

type (
	PrivilegeRepository       = Repository[domain.Privilege, *domain.Privilege]
	RoleRepository            = Repository[domain.Role, *domain.Role]
	CustomerRepository        = Repository[domain.Customer, *domain.Customer]
	DeliveryTypeRepository    = Repository[domain.DeliveryType, *domain.DeliveryType]
	OrderStatusRepository     = Repository[domain.OrderStatus, *domain.OrderStatus]
	ProductCategoryRepository = Repository[domain.ProductCategory, *domain.ProductCategory]
	ProductStatusRepository   = Repository[domain.ProductStatus, *domain.ProductStatus]
	ProductRepository         = Repository[domain.Product, *domain.Product]
	OrderRepository           = Repository[domain.Order, *domain.Order]
	OrderItemRepository       = Repository[domain.OrderItem, *domain.OrderItem]
)

// Open 打开 SQLite 数据库文件并开启 WAL 与外键约束
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)&_time_format=sqlite", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open '%s' 失败: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping 数据库 '%s' 失败: %w", path, err)
	}
	return db, nil
}

// Store 聚合了所有实体仓储，并提供事务边界
type Store struct {
	db   port.Database
	exec port.Executor

	Privileges        *PrivilegeRepository
	Roles             *RoleRepository
	Customers         *CustomerRepository
	DeliveryTypes     *DeliveryTypeRepository
	OrderStatuses     *OrderStatusRepository
	ProductCategories *ProductCategoryRepository
	ProductStatuses   *ProductStatusRepository
	Products          *ProductRepository
	Orders            *OrderRepository
	OrderItems        *OrderItemRepository
}

// NewStore 基于一个数据库句柄创建所有仓储
func NewStore(db port.Database) *Store {
	return bind(db, db)
}

func bind(db port.Database, exec port.Executor) *Store {
	return &Store{
		db:                db,
		exec:              exec,
		Privileges:        NewRepository[domain.Privilege](exec, PrivilegeModel),
		Roles:             NewRepository[domain.Role](exec, RoleModel),
		Customers:         NewRepository[domain.Customer](exec, CustomerModel),
		DeliveryTypes:     NewRepository[domain.DeliveryType](exec, DeliveryTypeModel),
		OrderStatuses:     NewRepository[domain.OrderStatus](exec, OrderStatusModel),
		ProductCategories: NewRepository[domain.ProductCategory](exec, ProductCategoryModel),
		ProductStatuses:   NewRepository[domain.ProductStatus](exec, ProductStatusModel),
		Products:          NewRepository[domain.Product](exec, ProductModel),
		Orders:            NewRepository[domain.Order](exec, OrderModel),
		OrderItems:        NewRepository[domain.OrderItem](exec, OrderItemModel),
	}
}

// Executor 返回当前绑定的执行器，事务内即为 *sql.Tx
func (s *Store) Executor() port.Executor { return s.exec }

// InTx 在一个事务中执行 fn。fn 返回错误或 panic 时回滚，否则提交。
// fn 收到的 Store 中所有仓储都绑定在该事务上。
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return port.Internal(fmt.Errorf("开启事务失败: %w", err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("事务回滚失败", "error", rbErr)
			}
		}
	}()

	if err = fn(bind(s.db, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return port.Internal(fmt.Errorf("提交事务失败: %w", err))
	}
	return nil
}

// PrivilegesForRole 返回角色被授予的全部权限名。角色不存在时返回空切片。
func (s *Store) PrivilegesForRole(ctx context.Context, role string) ([]string, error) {
	const q = `
		SELECT p."name"
		FROM "Role" r
		JOIN "RolePrivilege" rp ON rp."roleId" = r."id"
		JOIN "Privilege" p ON p."id" = rp."privilegeId"
		WHERE r."name" = ? AND r."deletedAt" IS NULL AND p."deletedAt" IS NULL
		ORDER BY p."name"`
	rows, err := s.exec.QueryContext(ctx, q, role)
	if err != nil {
		return nil, port.Internal(fmt.Errorf("查询角色 '%s' 的权限失败: %w", role, err))
	}
	defer rows.Close()

	names := make([]string, 0, len(domain.AllPrivileges))
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, port.Internal(fmt.Errorf("扫描权限行失败: %w", err))
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, port.Internal(fmt.Errorf("遍历权限行失败: %w", err))
	}
	return names, nil
}

// GrantPrivilege 把权限授予角色，已存在的授权被忽略
func (s *Store) GrantPrivilege(ctx context.Context, roleID, privilegeID int64) error {
	_, err := s.exec.ExecContext(ctx,
		`INSERT OR IGNORE INTO "RolePrivilege" ("roleId", "privilegeId") VALUES (?, ?)`, roleID, privilegeID)
	if err != nil {
		return port.Internal(fmt.Errorf("授予权限失败 (role=%d, privilege=%d): %w", roleID, privilegeID, err))
	}
	return nil
}
