// file: internal/service/product_service.go
package service

import (
	"context"

	"ShopAegis/internal/adapter/datasource/sqlite"
	"ShopAegis/internal/core/domain"
	"ShopAegis/internal/core/port"
)

// CreateProductInput 是新建商品的输入
type CreateProductInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	CategoryID  *int64  `json:"categoryId" validate:"omitempty,gt=0"`
	StatusID    *int64  `json:"statusId" validate:"omitempty,gt=0"`
}

// UpdateProductInput 是商品的部分更新，nil 字段保持不变
type UpdateProductInput struct {
	ID          int64    `json:"id" validate:"gt=0"`
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	CategoryID  *int64   `json:"categoryId" validate:"omitempty,gt=0"`
	StatusID    *int64   `json:"statusId" validate:"omitempty,gt=0"`
}

// ProductService 维护商品目录。读操作公开，写操作需要 WRITE_PRODUCT。
type ProductService struct {
	store *sqlite.Store
	auth  *Authorizer
}

func NewProductService(store *sqlite.Store, auth *Authorizer) *ProductService {
	return &ProductService{store: store, auth: auth}
}

func (s *ProductService) CreateProduct(ctx context.Context, claim *Claim, in CreateProductInput) (p *domain.Product, err error) {
	defer func() { err = normalize("CreateProduct", err) }()

	if _, err := s.auth.guard(ctx, claim, domain.PrivilegeWriteProduct, true); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, in.CategoryID, in.StatusID); err != nil {
		return nil, err
	}
	p = &domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		CategoryID:  in.CategoryID,
		StatusID:    in.StatusID,
	}
	if err := s.store.Products.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, claim *Claim, in UpdateProductInput) (p *domain.Product, err error) {
	defer func() { err = normalize("UpdateProduct", err) }()

	if _, err := s.auth.guard(ctx, claim, domain.PrivilegeWriteProduct, true); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	p, err = s.store.Products.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, port.NotFound("Cannot find product")
	}
	if err := s.checkRefs(ctx, in.CategoryID, in.StatusID); err != nil {
		return nil, err
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.CategoryID != nil {
		p.CategoryID = in.CategoryID
	}
	if in.StatusID != nil {
		p.StatusID = in.StatusID
	}
	ok, err := s.store.Products.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, port.NotFound("Cannot find product")
	}
	return p, nil
}

// DeleteProduct 软删除商品，返回被删除的商品
func (s *ProductService) DeleteProduct(ctx context.Context, claim *Claim, id int64) (p *domain.Product, err error) {
	defer func() { err = normalize("DeleteProduct", err) }()

	if _, err := s.auth.guard(ctx, claim, domain.PrivilegeWriteProduct, true); err != nil {
		return nil, err
	}
	p, err = s.store.Products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, port.NotFound("Cannot find product")
	}
	ok, err := s.store.Products.Delete(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, port.NotFound("Cannot find product")
	}
	return p, nil
}

// GetProduct 返回商品，不存在时为 nil
func (s *ProductService) GetProduct(ctx context.Context, id int64) (p *domain.Product, err error) {
	defer func() { err = normalize("GetProduct", err) }()
	return s.store.Products.Get(ctx, id)
}

func (s *ProductService) GetAllProducts(ctx context.Context, in ListInput) (page *port.Page[domain.Product], err error) {
	defer func() { err = normalize("GetAllProducts", err) }()
	return listPage(ctx, s.store.Products, in)
}

func (s *ProductService) checkRefs(ctx context.Context, categoryID, statusID *int64) error {
	if categoryID != nil {
		cat, err := s.store.ProductCategories.Get(ctx, *categoryID)
		if err != nil {
			return err
		}
		if cat == nil {
			return port.NotFound("Cannot find product category")
		}
	}
	if statusID != nil {
		st, err := s.store.ProductStatuses.Get(ctx, *statusID)
		if err != nil {
			return err
		}
		if st == nil {
			return port.NotFound("Cannot find product status")
		}
	}
	return nil
}
