// file: internal/service/order_service.go
package service

import (
	"context"

	"ShopAegis/internal/adapter/datasource/sqlite"
	"ShopAegis/internal/core/domain"
	"ShopAegis/internal/core/port"
)

// DefaultOrderStatus 是新订单在未指定状态时使用的状态名
const DefaultOrderStatus = "NEW"

// OrderItemInput 是下单时的一行商品
type OrderItemInput struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int64 `json:"quantity"`
}

// CreateOrderInput 是创建订单的输入。客户令牌可以省略 CustomerID。
type CreateOrderInput struct {
	CustomerID     int64            `json:"customerId"`
	DeliveryTypeID int64            `json:"deliveryTypeId" validate:"gt=0"`
	StatusID       *int64           `json:"statusId" validate:"omitempty,gt=0"`
	DeliveryTo     string           `json:"deliveryTo" validate:"max=512"`
	Items          []OrderItemInput `json:"items" validate:"dive"`
}

// UpdateOrderInput 是订单的部分更新，nil 字段保持不变
type UpdateOrderInput struct {
	ID             int64   `json:"id" validate:"gt=0"`
	CustomerID     *int64  `json:"customerId" validate:"omitempty,gt=0"`
	DeliveryTypeID *int64  `json:"deliveryTypeId" validate:"omitempty,gt=0"`
	DeliveryTo     *string `json:"deliveryTo" validate:"omitempty,max=512"`
	StatusID       *int64  `json:"statusId" validate:"omitempty,gt=0"`
}

// OrderService 实现订单与订单行的业务规则
type OrderService struct {
	store *sqlite.Store
	auth  *Authorizer
}

func NewOrderService(store *sqlite.Store, auth *Authorizer) *OrderService {
	return &OrderService{store: store, auth: auth}
}

// CreateOrder 在一个事务中写入订单及其所有订单行。
// 任一商品不存在或订单行写入失败时整体回滚，不会留下没有订单行的订单。
func (s *OrderService) CreateOrder(ctx context.Context, claim *Claim, in CreateOrderInput) (order *domain.Order, err error) {
	defer func() { err = normalize("CreateOrder", err) }()

	c, err := s.auth.guard(ctx, claim, domain.PrivilegeWriteOrder, false)
	if err != nil {
		return nil, err
	}
	if in.CustomerID == 0 && !c.elevated {
		in.CustomerID = c.claim.ID
	}
	if !c.owns(in.CustomerID) {
		return nil, denied("not_owner")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, port.InvalidInput("Cannot create order without any item")
	}
	seen := make(map[int64]struct{}, len(in.Items))
	for _, item := range in.Items {
		if err := checkQuantity(item.Quantity); err != nil {
			return nil, err
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, port.InvalidInput("Product %d appears more than once", item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}

	deliveryType, err := s.store.DeliveryTypes.Get(ctx, in.DeliveryTypeID)
	if err != nil {
		return nil, err
	}
	if deliveryType == nil {
		return nil, port.NotFound("Cannot find delivery type")
	}
	customer, err := s.store.Customers.Get(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, port.NotFound("Cannot find customer")
	}
	statusID, err := s.resolveStatus(ctx, in.StatusID)
	if err != nil {
		return nil, err
	}

	order = &domain.Order{
		CustomerID:     customer.ID,
		DeliveryTypeID: deliveryType.ID,
		StatusID:       statusID,
		DeliveryTo:     in.DeliveryTo,
	}
	err = s.store.InTx(ctx, func(tx *sqlite.Store) error {
		if err := tx.Orders.Insert(ctx, order); err != nil {
			return err
		}
		order.Items = make([]*domain.OrderItem, 0, len(in.Items))
		for _, item := range in.Items {
			product, err := tx.Products.Get(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return port.NotFound("Cannot find product")
			}
			row := &domain.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: item.Quantity}
			if err := tx.OrderItems.Insert(ctx, row); err != nil {
				return err
			}
			order.Items = append(order.Items, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// resolveStatus 校验显式指定的状态；未指定时取名为 NEW 的状态 (不存在则为空)
func (s *OrderService) resolveStatus(ctx context.Context, id *int64) (*int64, error) {
	if id != nil {
		st, err := s.store.OrderStatuses.Get(ctx, *id)
		if err != nil {
			return nil, err
		}
		if st == nil {
			return nil, port.NotFound("Cannot find order status")
		}
		return &st.ID, nil
	}
	w, err := whereEq(sqlite.OrderStatusModel.Schema, map[string]any{"name": DefaultOrderStatus})
	if err != nil {
		return nil, err
	}
	st, err := s.store.OrderStatuses.FindOne(ctx, w)
	if err != nil || st == nil {
		return nil, err
	}
	return &st.ID, nil
}

// UpdateOrder 按字段是否出现进行部分更新
func (s *OrderService) UpdateOrder(ctx context.Context, claim *Claim, in UpdateOrderInput) (order *domain.Order, err error) {
	defer func() { err = normalize("UpdateOrder", err) }()

	c, err := s.auth.guard(ctx, claim, domain.PrivilegeWriteOrder, false)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	order, err = s.ownedOrder(ctx, c, in.ID)
	if err != nil {
		return nil, err
	}

	if in.CustomerID != nil {
		if !c.owns(*in.CustomerID) {
			return nil, denied("not_owner")
		}
		customer, err := s.store.Customers.Get(ctx, *in.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, port.NotFound("Cannot find customer")
		}
		order.CustomerID = customer.ID
	}
	if in.DeliveryTypeID != nil {
		dt, err := s.store.DeliveryTypes.Get(ctx, *in.DeliveryTypeID)
		if err != nil {
			return nil, err
		}
		if dt == nil {
			return nil, port.NotFound("Cannot find delivery type")
		}
		order.DeliveryTypeID = dt.ID
	}
	if in.DeliveryTo != nil {
		order.DeliveryTo = *in.DeliveryTo
	}
	if in.StatusID != nil {
		if order.StatusID, err = s.resolveStatus(ctx, in.StatusID); err != nil {
			return nil, err
		}
	}

	ok, err := s.store.Orders.Update(ctx, order)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, port.NotFound("Cannot find order")
	}
	if order.Items, err = s.items(ctx, s.store, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteOrder 软删除订单及其订单行，返回被删除的订单
func (s *OrderService) DeleteOrder(ctx context.Context, claim *Claim, id int64) (order *domain.Order, err error) {
	defer func() { err = normalize("DeleteOrder", err) }()

	c, err := s.auth.guard(ctx, claim, domain.PrivilegeWriteOrder, false)
	if err != nil {
		return nil, err
	}
	order, err = s.ownedOrder(ctx, c, id)
	if err != nil {
		return nil, err
	}
	err = s.store.InTx(ctx, func(tx *sqlite.Store) error {
		items, err := s.items(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		ok, err := tx.Orders.Delete(ctx, order)
		if err != nil {
			return err
		}
		if !ok {
			return port.NotFound("Cannot find order")
		}
		w, err := whereEq(tx.OrderItems.Schema(), map[string]any{"orderId": order.ID})
		if err != nil {
			return err
		}
		if _, err := tx.OrderItems.DeleteWhere(ctx, w); err != nil {
			return err
		}
		for _, item := range items {
			item.DeletedAt = order.DeletedAt
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder 读取单个订单及其订单行。订单不存在时返回 nil。
func (s *OrderService) GetOrder(ctx context.Context, claim *Claim, id int64) (order *domain.Order, err error) {
	defer func() { err = normalize("GetOrder", err) }()

	c, err := s.auth.guard(ctx, claim, domain.PrivilegeReadOrder, false)
	if err != nil {
		return nil, err
	}
	order, err = s.store.Orders.Get(ctx, id)
	if err != nil || order == nil {
		return nil, err
	}
	if !c.owns(order.CustomerID) {
		return nil, denied("not_owner")
	}
	if order.Items, err = s.items(ctx, s.store, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// GetAllOrders 分页查询订单，仅对拥有 READ_ORDER 的员工开放
func (s *OrderService) GetAllOrders(ctx context.Context, claim *Claim, in ListInput) (page *port.Page[domain.Order], err error) {
	defer func() { err = normalize("GetAllOrders", err) }()

	if _, err := s.auth.guard(ctx, claim, domain.PrivilegeReadOrder, true); err != nil {
		return nil, err
	}
	return listPage(ctx, s.store.Orders, in)
}

// AddOrderItem 向订单加入一种商品
func (s *OrderService) AddOrderItem(ctx context.Context, claim *Claim, orderID, productID, quantity int64) (item *domain.OrderItem, err error) {
	defer func() { err = normalize("AddOrderItem", err) }()

	c, err := s.auth.guard(ctx, claim, domain.PrivilegeWriteOrder, false)
	if err != nil {
		return nil, err
	}
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	order, err := s.ownedOrder(ctx, c, orderID)
	if err != nil {
		return nil, err
	}
	product, err := s.store.Products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, port.NotFound("Cannot find product")
	}
	existing, err := s.findItem(ctx, order.ID, product.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, port.InvalidState("Product %d is already in order %d", product.ID, order.ID)
	}

	item = &domain.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: quantity}
	if err := s.store.OrderItems.Insert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateOrderItem 修改订单行数量。quantity 为 nil 时没有可更新的内容。
func (s *OrderService) UpdateOrderItem(ctx context.Context, claim *Claim, orderID, productID int64, quantity *int64) (item *domain.OrderItem, err error) {
	defer func() { err = normalize("UpdateOrderItem", err) }()

	c, err := s.auth.guard(ctx, claim, domain.PrivilegeWriteOrder, false)
	if err != nil {
		return nil, err
	}
	if quantity == nil {
		return nil, port.InvalidInput("Nothing to update")
	}
	if err := checkQuantity(*quantity); err != nil {
		return nil, err
	}
	order, err := s.ownedOrder(ctx, c, orderID)
	if err != nil {
		return nil, err
	}
	item, err = s.findItem(ctx, order.ID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, port.NotFound("Cannot find order item")
	}
	item.Quantity = *quantity
	ok, err := s.store.OrderItems.Update(ctx, item)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, port.NotFound("Cannot find order item")
	}
	return item, nil
}

// RemoveOrderItem 软删除订单行
func (s *OrderService) RemoveOrderItem(ctx context.Context, claim *Claim, orderID, productID int64) (removed bool, err error) {
	defer func() { err = normalize("RemoveOrderItem", err) }()

	c, err := s.auth.guard(ctx, claim, domain.PrivilegeWriteOrder, false)
	if err != nil {
		return false, err
	}
	order, err := s.ownedOrder(ctx, c, orderID)
	if err != nil {
		return false, err
	}
	item, err := s.findItem(ctx, order.ID, productID)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, port.NotFound("Cannot find order item")
	}
	return s.store.OrderItems.Delete(ctx, item)
}

// ownedOrder 读取订单并校验归属: 不存在时返回 NotFound，属于其他客户时返回 Unauthorized
func (s *OrderService) ownedOrder(ctx context.Context, c caller, id int64) (*domain.Order, error) {
	order, err := s.store.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, port.NotFound("Cannot find order")
	}
	if !c.owns(order.CustomerID) {
		return nil, denied("not_owner")
	}
	return order, nil
}

func (s *OrderService) findItem(ctx context.Context, orderID, productID int64) (*domain.OrderItem, error) {
	w, err := whereEq(sqlite.OrderItemModel.Schema, map[string]any{"orderId": orderID, "productId": productID})
	if err != nil {
		return nil, err
	}
	return s.store.OrderItems.FindOne(ctx, w)
}

func (s *OrderService) items(ctx context.Context, store *sqlite.Store, orderID int64) ([]*domain.OrderItem, error) {
	w, err := whereEq(sqlite.OrderItemModel.Schema, map[string]any{"orderId": orderID})
	if err != nil {
		return nil, err
	}
	all := make([]*domain.OrderItem, 0)
	limit := itemPageSize
	// 未指定排序时按 id 升序，分页结果稳定
	for page := 1; ; page++ {
		batch, err := store.OrderItems.GetAll(ctx, sqlite.ListOptions{Page: &page, Limit: &limit, Where: w})
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < limit {
			return all, nil
		}
	}
}

// itemPageSize 是读取订单行时每批的行数
var itemPageSize = sqlite.MaxLimit

func checkQuantity(q int64) error {
	if q <= 0 {
		return port.InvalidInput("Quantity must be greater than zero")
	}
	return nil
}
