// Package sqlite file: internal/adapter/datasource/sqlite/models.go
package sqlite

import (
	"ShopAegis/internal/core/domain"
	"ShopAegis/internal/query"
)

var metaFilterable = []string{"id", "createdAt", "updatedAt", "deletedAt"}

// withMeta 把 id 与三个时间戳列加到业务字段两侧
func withMeta(fields ...string) []string {
	out := append([]string{"id"}, fields...)
	return append(out, "createdAt", "updatedAt", "deletedAt")
}

func hydrateMeta(rec Record) domain.Meta {
	return domain.Meta{
		ID:        rec.Int64("id"),
		CreatedAt: rec.Time("createdAt"),
		UpdatedAt: rec.NullTime("updatedAt"),
		DeletedAt: rec.NullTime("deletedAt"),
	}
}

// nullable 把 nil 指针写成 SQL NULL
func nullable(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

// ---- 字典型实体: name + description ----

func namedSchema(table string) *query.Schema {
	return query.MustSchema(table,
		withMeta("name", "description"),
		append([]string{"name", "description"}, metaFilterable...),
		[]string{"id", "name", "description", "createdAt"},
	)
}

var PrivilegeModel = Model[domain.Privilege]{
	Schema: namedSchema("Privilege"),
	Hydrate: func(rec Record) *domain.Privilege {
		return &domain.Privilege{Meta: hydrateMeta(rec), Name: rec.String("name"), Description: rec.String("description")}
	},
	Dehydrate: func(e *domain.Privilege) map[string]any {
		return map[string]any{"name": e.Name, "description": e.Description}
	},
}

var RoleModel = Model[domain.Role]{
	Schema: namedSchema("Role"),
	Hydrate: func(rec Record) *domain.Role {
		return &domain.Role{Meta: hydrateMeta(rec), Name: rec.String("name"), Description: rec.String("description")}
	},
	Dehydrate: func(e *domain.Role) map[string]any {
		return map[string]any{"name": e.Name, "description": e.Description}
	},
}

var OrderStatusModel = Model[domain.OrderStatus]{
	Schema: namedSchema("OrderStatus"),
	Hydrate: func(rec Record) *domain.OrderStatus {
		return &domain.OrderStatus{Meta: hydrateMeta(rec), Name: rec.String("name"), Description: rec.String("description")}
	},
	Dehydrate: func(e *domain.OrderStatus) map[string]any {
		return map[string]any{"name": e.Name, "description": e.Description}
	},
}

var ProductCategoryModel = Model[domain.ProductCategory]{
	Schema: namedSchema("ProductCategory"),
	Hydrate: func(rec Record) *domain.ProductCategory {
		return &domain.ProductCategory{Meta: hydrateMeta(rec), Name: rec.String("name"), Description: rec.String("description")}
	},
	Dehydrate: func(e *domain.ProductCategory) map[string]any {
		return map[string]any{"name": e.Name, "description": e.Description}
	},
}

var ProductStatusModel = Model[domain.ProductStatus]{
	Schema: namedSchema("ProductStatus"),
	Hydrate: func(rec Record) *domain.ProductStatus {
		return &domain.ProductStatus{Meta: hydrateMeta(rec), Name: rec.String("name"), Description: rec.String("description")}
	},
	Dehydrate: func(e *domain.ProductStatus) map[string]any {
		return map[string]any{"name": e.Name, "description": e.Description}
	},
}

// ---- 业务实体 ----

var CustomerModel = Model[domain.Customer]{
	Schema: query.MustSchema("Customer",
		withMeta("name", "email", "phone"),
		append([]string{"name", "email", "phone"}, metaFilterable...),
		[]string{"id", "name", "email", "createdAt"},
	),
	Hydrate: func(rec Record) *domain.Customer {
		return &domain.Customer{
			Meta:  hydrateMeta(rec),
			Name:  rec.String("name"),
			Email: rec.String("email"),
			Phone: rec.String("phone"),
		}
	},
	Dehydrate: func(e *domain.Customer) map[string]any {
		return map[string]any{"name": e.Name, "email": e.Email, "phone": e.Phone}
	},
}

var DeliveryTypeModel = Model[domain.DeliveryType]{
	Schema: query.MustSchema("DeliveryType",
		withMeta("name", "description", "price"),
		append([]string{"name", "description", "price"}, metaFilterable...),
		[]string{"id", "name", "price"},
	),
	Hydrate: func(rec Record) *domain.DeliveryType {
		return &domain.DeliveryType{
			Meta:        hydrateMeta(rec),
			Name:        rec.String("name"),
			Description: rec.String("description"),
			Price:       rec.Float64("price"),
		}
	},
	Dehydrate: func(e *domain.DeliveryType) map[string]any {
		return map[string]any{"name": e.Name, "description": e.Description, "price": e.Price}
	},
}

var ProductModel = Model[domain.Product]{
	Schema: query.MustSchema("Product",
		withMeta("name", "description", "price", "categoryId", "statusId"),
		append([]string{"name", "description", "price", "categoryId", "statusId"}, metaFilterable...),
		[]string{"id", "name", "price", "createdAt"},
	),
	Hydrate: func(rec Record) *domain.Product {
		return &domain.Product{
			Meta:        hydrateMeta(rec),
			Name:        rec.String("name"),
			Description: rec.String("description"),
			Price:       rec.Float64("price"),
			CategoryID:  rec.NullInt64("categoryId"),
			StatusID:    rec.NullInt64("statusId"),
		}
	},
	Dehydrate: func(e *domain.Product) map[string]any {
		return map[string]any{
			"name":        e.Name,
			"description": e.Description,
			"price":       e.Price,
			"categoryId":  nullable(e.CategoryID),
			"statusId":    nullable(e.StatusID),
		}
	},
}

var OrderModel = Model[domain.Order]{
	Schema: query.MustSchema("Order",
		withMeta("customerId", "deliveryTypeId", "statusId", "deliveryTo"),
		append([]string{"customerId", "deliveryTypeId", "statusId", "deliveryTo"}, metaFilterable...),
		[]string{"id", "customerId", "createdAt", "updatedAt"},
	),
	Hydrate: func(rec Record) *domain.Order {
		return &domain.Order{
			Meta:           hydrateMeta(rec),
			CustomerID:     rec.Int64("customerId"),
			DeliveryTypeID: rec.Int64("deliveryTypeId"),
			StatusID:       rec.NullInt64("statusId"),
			DeliveryTo:     rec.String("deliveryTo"),
		}
	},
	Dehydrate: func(e *domain.Order) map[string]any {
		return map[string]any{
			"customerId":     e.CustomerID,
			"deliveryTypeId": e.DeliveryTypeID,
			"statusId":       nullable(e.StatusID),
			"deliveryTo":     e.DeliveryTo,
		}
	},
}

var OrderItemModel = Model[domain.OrderItem]{
	Schema: query.MustSchema("OrderItem",
		withMeta("orderId", "productId", "quantity"),
		append([]string{"orderId", "productId", "quantity"}, metaFilterable...),
		[]string{"id", "productId", "quantity"},
	),
	Hydrate: func(rec Record) *domain.OrderItem {
		return &domain.OrderItem{
			Meta:      hydrateMeta(rec),
			OrderID:   rec.Int64("orderId"),
			ProductID: rec.Int64("productId"),
			Quantity:  rec.Int64("quantity"),
		}
	},
	Dehydrate: func(e *domain.OrderItem) map[string]any {
		return map[string]any{"orderId": e.OrderID, "productId": e.ProductID, "quantity": e.Quantity}
	},
}
