// file: internal/adapter/datasource/sqlite/store_test.go
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ShopAegis/internal/core/domain"
	"ShopAegis/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProducts(t *testing.T, s *Store, n int) []*domain.Product {
	t.Helper()
	out := make([]*domain.Product, 0, n)
	for i := 1; i <= n; i++ {
		p := &domain.Product{Name: fmt.Sprintf("p%02d", i), Price: float64(i)}
		require.NoError(t, s.Products.Insert(context.Background(), p))
		out = append(out, p)
	}
	return out
}

func TestStore_InitSchemaIsIdempotent(t *testing.T) {
	_, db := newTestStore(t)
	require.NoError(t, InitSchema(context.Background(), db))
}

func TestStore_Pagination(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	seedProducts(t, s, 11)

	order, err := query.OrderByFrom([]query.OrderInput{{Field: "name"}}, ProductModel.Schema)
	require.NoError(t, err)

	first, err := s.Products.GetAll(ctx, ListOptions{Page: ptr(1), Limit: ptr(10), OrderBy: order})
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, "p01", first[0].Name)
	assert.Equal(t, "p10", first[9].Name)

	second, err := s.Products.GetAll(ctx, ListOptions{Page: ptr(2), Limit: ptr(10), OrderBy: order})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "p11", second[0].Name)

	third, err := s.Products.GetAll(ctx, ListOptions{Page: ptr(3), Limit: ptr(10), OrderBy: order})
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestStore_SoftDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	products := seedProducts(t, s, 3)
	victim := products[1]

	// 保留一份未删除状态的副本，模拟并发读者手中的旧实体
	stale := *victim
	ok, err := s.Products.Delete(ctx, victim)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.StateDeleted, victim.State())

	got, err := s.Products.Get(ctx, victim.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := s.Products.GetAll(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, p := range all {
		assert.NotEqual(t, victim.ID, p.ID)
	}

	n, err := s.Products.Count(ctx, query.MatchAll())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// 过滤条件显式引用 deletedAt 时不再追加默认的软删除过滤
	deletedOnly, err := query.ConditionFrom(&query.FilterInput{Field: "deletedAt", Operator: "isNull", Value: false}, ProductModel.Schema)
	require.NoError(t, err)
	n, err = s.Products.Count(ctx, deletedOnly)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = s.Products.DeleteByID(ctx, victim.ID)
	require.NoError(t, err)
	assert.False(t, ok, "重复删除应返回 false")

	// 旧副本仍是 PERSISTED，但底层行已删除
	stale.Price = 100
	ok, err = s.Products.Update(ctx, &stale)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.Products.Delete(ctx, &stale)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_UpdateRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cat := &domain.ProductCategory{Name: "Tea"}
	require.NoError(t, s.ProductCategories.Insert(ctx, cat))

	p := &domain.Product{Name: "Sencha", Price: 5, CategoryID: &cat.ID}
	require.NoError(t, s.Products.Insert(ctx, p))

	p.Price = 6.5
	p.Description = "spring harvest"
	ok, err := s.Products.Update(ctx, p)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 6.5, got.Price)
	assert.Equal(t, "spring harvest", got.Description)
	assert.Equal(t, &cat.ID, got.CategoryID)
	assert.NotNil(t, got.UpdatedAt)
	assert.False(t, got.CreatedAt.IsZero())
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))
}

func TestStore_FindOne(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	seedProducts(t, s, 3)

	w, err := query.ConditionFrom(&query.FilterInput{Field: "name", Operator: "eq", Value: "p02"}, ProductModel.Schema)
	require.NoError(t, err)
	p, err := s.Products.FindOne(ctx, w)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "p02", p.Name)

	w, err = query.ConditionFrom(&query.FilterInput{Field: "name", Operator: "eq", Value: "nope"}, ProductModel.Schema)
	require.NoError(t, err)
	p, err = s.Products.FindOne(ctx, w)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestStore_InTxRollsBack(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	var insertedID int64
	err := s.InTx(ctx, func(tx *Store) error {
		p := &domain.Product{Name: "ghost"}
		if err := tx.Products.Insert(ctx, p); err != nil {
			return err
		}
		insertedID = p.ID
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NotZero(t, insertedID)

	byID, err := query.ConditionFrom(&query.FilterInput{Field: "id", Operator: "eq", Value: insertedID}, ProductModel.Schema)
	require.NoError(t, err)
	n, err := s.Products.Count(ctx, byID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// 同时统计已软删除的行，确认回滚后不留任何记录
	withDeleted, err := query.ConditionFrom(&query.FilterInput{Or: []query.FilterInput{
		{Field: "deletedAt", Operator: "isNull", Value: true},
		{Field: "deletedAt", Operator: "isNull", Value: false},
	}}, ProductModel.Schema)
	require.NoError(t, err)
	n, err = s.Products.Count(ctx, withDeleted)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_InTxCommits(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var id int64
	require.NoError(t, s.InTx(ctx, func(tx *Store) error {
		p := &domain.Product{Name: "real"}
		if err := tx.Products.Insert(ctx, p); err != nil {
			return err
		}
		id = p.ID
		return nil
	}))

	got, err := s.Products.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "real", got.Name)
}

func TestStore_OrderItemUniquePerOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	c := &domain.Customer{Name: "Ada"}
	require.NoError(t, s.Customers.Insert(ctx, c))
	d := &domain.DeliveryType{Name: "Courier"}
	require.NoError(t, s.DeliveryTypes.Insert(ctx, d))
	o := &domain.Order{CustomerID: c.ID, DeliveryTypeID: d.ID}
	require.NoError(t, s.Orders.Insert(ctx, o))
	p := seedProducts(t, s, 1)[0]

	first := &domain.OrderItem{OrderID: o.ID, ProductID: p.ID, Quantity: 1}
	require.NoError(t, s.OrderItems.Insert(ctx, first))

	dup := &domain.OrderItem{OrderID: o.ID, ProductID: p.ID, Quantity: 2}
	require.Error(t, s.OrderItems.Insert(ctx, dup))

	// 软删除后同一商品可以重新加入订单
	ok, err := s.OrderItems.Delete(ctx, first)
	require.NoError(t, err)
	require.True(t, ok)
	again := &domain.OrderItem{OrderID: o.ID, ProductID: p.ID, Quantity: 3}
	require.NoError(t, s.OrderItems.Insert(ctx, again))
}

func TestStore_PrivilegesForRole(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	role := &domain.Role{Name: "clerk"}
	require.NoError(t, s.Roles.Insert(ctx, role))
	for _, name := range []string{domain.PrivilegeReadOrder, domain.PrivilegeReadProduct} {
		p := &domain.Privilege{Name: name}
		require.NoError(t, s.Privileges.Insert(ctx, p))
		require.NoError(t, s.GrantPrivilege(ctx, role.ID, p.ID))
		require.NoError(t, s.GrantPrivilege(ctx, role.ID, p.ID))
	}

	names, err := s.PrivilegesForRole(ctx, "clerk")
	require.NoError(t, err)
	assert.Equal(t, []string{domain.PrivilegeReadOrder, domain.PrivilegeReadProduct}, names)

	names, err = s.PrivilegesForRole(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStore_Accounts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	n, err := s.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	acc := &domain.Account{Username: "root", PasswordHash: "$2a$hash", Roles: []string{"admin", "clerk"}}
	require.NoError(t, s.CreateAccount(ctx, acc))
	assert.NotZero(t, acc.ID)

	got, err := s.FindAccount(ctx, "root")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"admin", "clerk"}, got.Roles)
	assert.Nil(t, got.CustomerID)

	got, err = s.FindAccount(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}
