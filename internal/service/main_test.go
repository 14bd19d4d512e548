// file: internal/service/main_test.go
package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ShopAegis/internal/adapter/datasource/sqlite"
	"ShopAegis/internal/core/domain"

	"github.com/stretchr/testify/require"
)

// fixture 是服务层测试共用的数据库与种子数据
type fixture struct {
	store    *sqlite.Store
	auth     *Authorizer
	orders   *OrderService
	products *ProductService
	lookups  *Lookups

	alice, bob   *domain.Customer
	courier      *domain.DeliveryType
	tea, coffee  *domain.Product
	adminClaim   *Claim
	aliceClaim   *Claim
	bobClaim     *Claim
	cashierClaim *Claim
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := sqlite.NewStore(db)
	require.NoError(t, InitPlatform(ctx, store))

	f := &fixture{store: store, auth: NewAuthorizer(store, 16, time.Minute)}
	f.orders = NewOrderService(store, f.auth)
	f.products = NewProductService(store, f.auth)
	f.lookups = NewLookups(store, f.auth)

	f.alice = &domain.Customer{Name: "Alice", Email: "alice@example.com"}
	f.bob = &domain.Customer{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, store.Customers.Insert(ctx, f.alice))
	require.NoError(t, store.Customers.Insert(ctx, f.bob))

	f.courier = &domain.DeliveryType{Name: "courier", Price: 5}
	require.NoError(t, store.DeliveryTypes.Insert(ctx, f.courier))

	f.tea = &domain.Product{Name: "Green tea", Price: 3.5}
	f.coffee = &domain.Product{Name: "Coffee", Price: 4}
	require.NoError(t, store.Products.Insert(ctx, f.tea))
	require.NoError(t, store.Products.Insert(ctx, f.coffee))

	// cashier 角色只有读订单的权限
	cashier := &domain.Role{Name: "cashier"}
	require.NoError(t, store.Roles.Insert(ctx, cashier))
	w, err := whereEq(store.Privileges.Schema(), map[string]any{"name": domain.PrivilegeReadOrder})
	require.NoError(t, err)
	readOrder, err := store.Privileges.FindOne(ctx, w)
	require.NoError(t, err)
	require.NotNil(t, readOrder)
	require.NoError(t, store.GrantPrivilege(ctx, cashier.ID, readOrder.ID))

	f.adminClaim = &Claim{ID: 1, Roles: []string{domain.AdminRole}, Type: TokenTypeAccess}
	f.cashierClaim = &Claim{ID: 2, Roles: []string{"cashier"}, Type: TokenTypeAccess}
	f.aliceClaim = &Claim{ID: f.alice.ID, Type: TokenTypeAccess}
	f.bobClaim = &Claim{ID: f.bob.ID, Type: TokenTypeAccess}
	return f
}

// placeOrder 以 alice 的身份下一个只含 tea 的订单
func (f *fixture) placeOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), f.aliceClaim, CreateOrderInput{
		DeliveryTypeID: f.courier.ID,
		DeliveryTo:     "1 Main St",
		Items:          []OrderItemInput{{ProductID: f.tea.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	return order
}

func ptr[T any](v T) *T { return &v }
