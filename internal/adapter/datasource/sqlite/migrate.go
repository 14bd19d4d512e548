// Package sqlite file: internal/adapter/datasource/sqlite/migrate.go
package sqlite

import (
	"context"
	"fmt"

	"ShopAegis/internal/core/port"
)

// lookupTables 是只有 name/description 两个业务列的字典表
var lookupTables = []string{"Privilege", "Role", "OrderStatus", "ProductCategory", "ProductStatus"}

const metaColumns = `
	"createdAt" DATETIME NOT NULL,
	"updatedAt" DATETIME,
	"deletedAt" DATETIME`

func schemaStatements() []string {
	stmts := make([]string, 0, 24)
	for _, t := range lookupTables {
		stmts = append(stmts, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %q (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"name" TEXT NOT NULL,
	"description" TEXT NOT NULL DEFAULT '',%s
);`, t, metaColumns),
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS "uq_%s_name" ON %q ("name") WHERE "deletedAt" IS NULL;`, t, t))
	}

	return append(stmts,
		`
CREATE TABLE IF NOT EXISTS "RolePrivilege" (
	"roleId" INTEGER NOT NULL REFERENCES "Role" ("id"),
	"privilegeId" INTEGER NOT NULL REFERENCES "Privilege" ("id"),
	PRIMARY KEY ("roleId", "privilegeId")
);`,
		`
CREATE TABLE IF NOT EXISTS "Customer" (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"name" TEXT NOT NULL,
	"email" TEXT NOT NULL DEFAULT '',
	"phone" TEXT NOT NULL DEFAULT '',`+metaColumns+`
);`,
		`
CREATE TABLE IF NOT EXISTS "DeliveryType" (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"name" TEXT NOT NULL,
	"description" TEXT NOT NULL DEFAULT '',
	"price" REAL NOT NULL DEFAULT 0,`+metaColumns+`
);`,
		`
CREATE TABLE IF NOT EXISTS "Product" (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"name" TEXT NOT NULL,
	"description" TEXT NOT NULL DEFAULT '',
	"price" REAL NOT NULL DEFAULT 0,
	"categoryId" INTEGER REFERENCES "ProductCategory" ("id"),
	"statusId" INTEGER REFERENCES "ProductStatus" ("id"),`+metaColumns+`
);`,
		`
CREATE TABLE IF NOT EXISTS "Order" (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"customerId" INTEGER NOT NULL REFERENCES "Customer" ("id"),
	"deliveryTypeId" INTEGER NOT NULL REFERENCES "DeliveryType" ("id"),
	"statusId" INTEGER REFERENCES "OrderStatus" ("id"),
	"deliveryTo" TEXT NOT NULL DEFAULT '',`+metaColumns+`
);`,
		`CREATE INDEX IF NOT EXISTS "idx_Order_customerId" ON "Order" ("customerId");`,
		`
CREATE TABLE IF NOT EXISTS "OrderItem" (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"orderId" INTEGER NOT NULL REFERENCES "Order" ("id"),
	"productId" INTEGER NOT NULL REFERENCES "Product" ("id"),
	"quantity" INTEGER NOT NULL CHECK ("quantity" > 0),`+metaColumns+`
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS "uq_OrderItem_order_product" ON "OrderItem" ("orderId", "productId") WHERE "deletedAt" IS NULL;`,
		`
CREATE TABLE IF NOT EXISTS "_account" (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"username" TEXT UNIQUE NOT NULL,
	"passwordHash" TEXT NOT NULL,
	"customerId" INTEGER REFERENCES "Customer" ("id"),
	"roles" TEXT NOT NULL DEFAULT ''
);`,
	)
}

// InitSchema 检查并创建所有业务表，可重复执行
func InitSchema(ctx context.Context, exec port.Executor) error {
	for _, stmt := range schemaStatements() {
		if _, err := exec.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("执行建表语句失败: %w. SQL: %s", err, stmt)
		}
	}
	return nil
}
