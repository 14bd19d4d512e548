// file: internal/service/lookup_service.go
package service

import (
	"context"

	"ShopAegis/internal/adapter/datasource/sqlite"
	"ShopAegis/internal/core/domain"
	"ShopAegis/internal/core/port"
)

// LookupService 是字典类实体的只读控制器。
// privilege 为空时接口公开，否则调用方必须是被授予该权限的员工。
type LookupService[T any, P sqlite.Entity[T]] struct {
	name      string
	repo      *sqlite.Repository[T, P]
	auth      *Authorizer
	privilege string
}

func NewLookupService[T any, P sqlite.Entity[T]](name string, repo *sqlite.Repository[T, P], auth *Authorizer, privilege string) *LookupService[T, P] {
	return &LookupService[T, P]{name: name, repo: repo, auth: auth, privilege: privilege}
}

// Name 返回该字典在路由中使用的名称
func (s *LookupService[T, P]) Name() string { return s.name }

func (s *LookupService[T, P]) check(ctx context.Context, claim *Claim) error {
	if s.privilege == "" {
		return nil
	}
	_, err := s.auth.guard(ctx, claim, s.privilege, true)
	return err
}

// Get 返回单条记录，不存在时为 nil
func (s *LookupService[T, P]) Get(ctx context.Context, claim *Claim, id int64) (e *T, err error) {
	defer func() { err = normalize("Get:"+s.name, err) }()

	if err := s.check(ctx, claim); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *LookupService[T, P]) GetAll(ctx context.Context, claim *Claim, in ListInput) (page *port.Page[T], err error) {
	defer func() { err = normalize("GetAll:"+s.name, err) }()

	if err := s.check(ctx, claim); err != nil {
		return nil, err
	}
	return listPage(ctx, s.repo, in)
}

// Lookups 汇总系统中所有字典控制器
type Lookups struct {
	Privileges        *LookupService[domain.Privilege, *domain.Privilege]
	Customers         *LookupService[domain.Customer, *domain.Customer]
	ProductCategories *LookupService[domain.ProductCategory, *domain.ProductCategory]
	ProductStatuses   *LookupService[domain.ProductStatus, *domain.ProductStatus]
	OrderStatuses     *LookupService[domain.OrderStatus, *domain.OrderStatus]
	DeliveryTypes     *LookupService[domain.DeliveryType, *domain.DeliveryType]
}

func NewLookups(store *sqlite.Store, auth *Authorizer) *Lookups {
	return &Lookups{
		Privileges:        NewLookupService("privileges", store.Privileges, auth, domain.PrivilegeReadPrivilege),
		Customers:         NewLookupService("customers", store.Customers, auth, domain.PrivilegeReadCustomer),
		ProductCategories: NewLookupService("product-categories", store.ProductCategories, auth, ""),
		ProductStatuses:   NewLookupService("product-statuses", store.ProductStatuses, auth, domain.PrivilegeReadProduct),
		OrderStatuses:     NewLookupService("order-statuses", store.OrderStatuses, auth, ""),
		DeliveryTypes:     NewLookupService("delivery-types", store.DeliveryTypes, auth, ""),
	}
}
