// file: internal/transport/http/router/handlers.go
package router

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"ShopAegis/internal/core/port"
	"ShopAegis/internal/service"

	"github.com/gin-gonic/gin"
)

// =============================================================================
//  公共辅助函数
// =============================================================================

func claimOf(c *gin.Context) *service.Claim { return service.ClaimFrom(c.Request.Context()) }

// respond 成功时写出 {"data": v}，失败时交给错误处理中间件
func respond(c *gin.Context, code int, v any, err error) {
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(code, gin.H{"data": v})
}

func notFound(c *gin.Context, msg string) {
	_ = c.Error(port.NotFound("%s", msg))
}

func pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(port.InvalidInput("Invalid %s '%s'", name, raw))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		_ = c.Error(err)
		return false
	}
	return true
}

// bindList 解析搜索请求体，空请求体 (包括分块传输的空体) 等同于 {}
func bindList(c *gin.Context) (service.ListInput, bool) {
	var in service.ListInput
	if c.Request.ContentLength == 0 || c.Request.Body == nil {
		return in, true
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return service.ListInput{}, true
		}
		_ = c.Error(err)
		return in, false
	}
	return in, true
}

// =============================================================================
//  认证
// =============================================================================

func loginHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in service.LoginInput
		if !bindJSON(c, &in) {
			return
		}
		sess, err := accounts.Login(c.Request.Context(), in)
		respond(c, http.StatusOK, sess, err)
	}
}

func registerHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in service.RegisterInput
		if !bindJSON(c, &in) {
			return
		}
		customer, err := accounts.Register(c.Request.Context(), in)
		respond(c, http.StatusCreated, customer, err)
	}
}

// =============================================================================
//  订单
// =============================================================================

func createOrderHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in service.CreateOrderInput
		if !bindJSON(c, &in) {
			return
		}
		order, err := orders.CreateOrder(c.Request.Context(), claimOf(c), in)
		respond(c, http.StatusCreated, order, err)
	}
}

func searchOrdersHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindList(c)
		if !ok {
			return
		}
		page, err := orders.GetAllOrders(c.Request.Context(), claimOf(c), in)
		respond(c, http.StatusOK, page, err)
	}
}

func getOrderHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		order, err := orders.GetOrder(c.Request.Context(), claimOf(c), id)
		if err == nil && order == nil {
			notFound(c, "Cannot find order")
			return
		}
		respond(c, http.StatusOK, order, err)
	}
}

func updateOrderHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var in service.UpdateOrderInput
		if !bindJSON(c, &in) {
			return
		}
		in.ID = id
		order, err := orders.UpdateOrder(c.Request.Context(), claimOf(c), in)
		respond(c, http.StatusOK, order, err)
	}
}

func deleteOrderHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		order, err := orders.DeleteOrder(c.Request.Context(), claimOf(c), id)
		respond(c, http.StatusOK, order, err)
	}
}

func addOrderItemHandler(orders *service.OrderService) gin.HandlerFunc {
	type body struct {
		ProductID int64 `json:"productId"`
		Quantity  int64 `json:"quantity"`
	}
	return func(c *gin.Context) {
		orderID, ok := pathID(c, "id")
		if !ok {
			return
		}
		var in body
		if !bindJSON(c, &in) {
			return
		}
		item, err := orders.AddOrderItem(c.Request.Context(), claimOf(c), orderID, in.ProductID, in.Quantity)
		respond(c, http.StatusCreated, item, err)
	}
}

func updateOrderItemHandler(orders *service.OrderService) gin.HandlerFunc {
	type body struct {
		Quantity *int64 `json:"quantity"`
	}
	return func(c *gin.Context) {
		orderID, ok := pathID(c, "id")
		if !ok {
			return
		}
		productID, ok := pathID(c, "productId")
		if !ok {
			return
		}
		var in body
		if !bindJSON(c, &in) {
			return
		}
		item, err := orders.UpdateOrderItem(c.Request.Context(), claimOf(c), orderID, productID, in.Quantity)
		respond(c, http.StatusOK, item, err)
	}
}

func removeOrderItemHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := pathID(c, "id")
		if !ok {
			return
		}
		productID, ok := pathID(c, "productId")
		if !ok {
			return
		}
		removed, err := orders.RemoveOrderItem(c.Request.Context(), claimOf(c), orderID, productID)
		respond(c, http.StatusOK, removed, err)
	}
}

// =============================================================================
//  商品
// =============================================================================

func createProductHandler(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in service.CreateProductInput
		if !bindJSON(c, &in) {
			return
		}
		p, err := products.CreateProduct(c.Request.Context(), claimOf(c), in)
		respond(c, http.StatusCreated, p, err)
	}
}

func searchProductsHandler(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindList(c)
		if !ok {
			return
		}
		page, err := products.GetAllProducts(c.Request.Context(), in)
		respond(c, http.StatusOK, page, err)
	}
}

func getProductHandler(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		p, err := products.GetProduct(c.Request.Context(), id)
		if err == nil && p == nil {
			notFound(c, "Cannot find product")
			return
		}
		respond(c, http.StatusOK, p, err)
	}
}

func updateProductHandler(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var in service.UpdateProductInput
		if !bindJSON(c, &in) {
			return
		}
		in.ID = id
		p, err := products.UpdateProduct(c.Request.Context(), claimOf(c), in)
		respond(c, http.StatusOK, p, err)
	}
}

func deleteProductHandler(products *service.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		p, err := products.DeleteProduct(c.Request.Context(), claimOf(c), id)
		respond(c, http.StatusOK, p, err)
	}
}
