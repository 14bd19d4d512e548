// Package domain file: internal/core/domain/catalog_models.go
package domain

// ProductCategory 商品分类
type ProductCategory struct {
	Meta
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProductStatus 商品状态 (在售、下架等)
type ProductStatus struct {
	Meta
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Product 商品
type Product struct {
	Meta
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	CategoryID  *int64  `json:"categoryId"`
	StatusID    *int64  `json:"statusId"`
}
