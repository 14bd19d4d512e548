// Package domain file: internal/core/domain/auth_models.go
package domain

// 系统内置的权限名称，启动时写入 Privilege 表
const (
	PrivilegeReadOrder     = "READ_ORDER"
	PrivilegeWriteOrder    = "WRITE_ORDER"
	PrivilegeReadProduct   = "READ_PRODUCT"
	PrivilegeWriteProduct  = "WRITE_PRODUCT"
	PrivilegeReadPrivilege = "READ_PRIVILEGE"
	PrivilegeReadCustomer  = "READ_CUSTOMER"
)

// AllPrivileges 按固定顺序列出所有内置权限
var AllPrivileges = []string{
	PrivilegeReadOrder,
	PrivilegeWriteOrder,
	PrivilegeReadProduct,
	PrivilegeWriteProduct,
	PrivilegeReadPrivilege,
	PrivilegeReadCustomer,
}

// AdminRole 是启动时自动创建、拥有全部权限的角色
const AdminRole = "admin"

// Privilege 代表一项可授予角色的能力
type Privilege struct {
	Meta
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Role 是权限的集合，访问令牌中以名称携带
type Role struct {
	Meta
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Account 是登录账号，不通过通用模型暴露
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	CustomerID   *int64
	Roles        []string
}
