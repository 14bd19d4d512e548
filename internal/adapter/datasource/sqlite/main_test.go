// file: internal/adapter/datasource/sqlite/main_test.go
package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"ShopAegis/internal/core/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// ============================================================================
//  共享测试辅助工具
// ============================================================================

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// newTestStore 在临时目录中创建一个已建表的真实 SQLite 数据库。
// 内存库在连接池中每个连接相互独立，不适合事务测试。
func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, InitSchema(ctx, db))
	return NewStore(db), db
}

// newMockProductRepo 返回一个基于 sqlmock 的 Product 仓储，时间固定为 fixedNow
func newMockProductRepo(t *testing.T) (*ProductRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewRepository[domain.Product](db, ProductModel)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func productColumns() []string {
	return []string{
		"Product_id", "Product_name", "Product_description", "Product_price",
		"Product_categoryId", "Product_statusId",
		"Product_createdAt", "Product_updatedAt", "Product_deletedAt",
	}
}

func ptr[T any](v T) *T { return &v }
