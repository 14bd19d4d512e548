// Package domain file: internal/core/domain/order_models.go
package domain

// Customer 代表一个下单客户
type Customer struct {
	Meta
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// DeliveryType 代表一种配送方式
type DeliveryType struct {
	Meta
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// OrderStatus 代表订单状态字典项
type OrderStatus struct {
	Meta
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Order 代表一个订单。Items 不落在 Order 表中，由服务层按需装配。
type Order struct {
	Meta
	CustomerID     int64        `json:"customerId"`
	DeliveryTypeID int64        `json:"deliveryTypeId"`
	StatusID       *int64       `json:"statusId"`
	DeliveryTo     string       `json:"deliveryTo"`
	Items          []*OrderItem `json:"items,omitempty"`
}

// OrderItem 是订单中的一行商品。同一订单内 (orderId, productId) 在未删除记录中唯一。
type OrderItem struct {
	Meta
	OrderID   int64 `json:"orderId"`
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}
