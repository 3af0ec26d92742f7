package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/bookshop/internal/application/order"
	"github.com/xiebiao/bookshop/internal/interface/http/dto"
	"github.com/xiebiao/bookshop/pkg/response"
)

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	createOrder *apporder.CreateOrderUseCase
	addItems    *apporder.AddOrderItemsUseCase
	getOrder    *apporder.GetOrderUseCase
	listOrders  *apporder.ListOrdersUseCase
	listItems   *apporder.ListOrderItemsUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	createOrder *apporder.CreateOrderUseCase,
	addItems *apporder.AddOrderItemsUseCase,
	getOrder *apporder.GetOrderUseCase,
	listOrders *apporder.ListOrdersUseCase,
	listItems *apporder.ListOrderItemsUseCase,
) *OrderHandler {
	return &OrderHandler{
		createOrder: createOrder,
		addItems:    addItems,
		getOrder:    getOrder,
		listOrders:  listOrders,
		listItems:   listItems,
	}
}

// CreateOrder 创建订单
// @Summary      创建订单
// @Description  下单购买图书:校验明细、逐条扣减库存、返回按当前价格聚合的总额。任意一条明细失败整单拒绝并回滚已扣库存
// @Tags         订单模块
// @Accept       json
// @Produce      json
// @Param        X-Idempotency-Key header string false "幂等键,重试时携带相同的键返回首次创建的订单"
// @Param        request body dto.CreateOrderRequest true "订单信息"
// @Success      200 {object} response.Response{data=dto.OrderResponse} "下单成功"
// @Failure      200 {object} response.Response "业务错误:40402图书不存在 40600数量不合法 40001库存不足"
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40901, "参数错误: "+err.Error())
		return
	}

	result, err := h.createOrder.Execute(c.Request.Context(), &apporder.CreateOrderRequest{
		IdempotencyKey: c.GetHeader("X-Idempotency-Key"),
		Items:          toAppItems(req.Items),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toOrderDTO(result))
}

// GetOrder 查询订单
// @Summary      查询订单
// @Description  根据ID查询订单,总额按图书当前价格实时聚合
// @Tags         订单模块
// @Produce      json
// @Param        id path string true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse} "查询成功"
// @Failure      200 {object} response.Response "40403订单不存在"
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	result, err := h.getOrder.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toOrderDTO(result))
}

// ListOrders 订单列表
// @Summary      订单列表
// @Description  分页查询订单,每个订单附带实时聚合的总额
// @Tags         订单模块
// @Produce      json
// @Param        page query int false "页码(默认1)"
// @Param        page_size query int false "每页数量(默认20,最大100)"
// @Success      200 {object} response.Response{data=dto.ListOrdersResponse} "查询成功"
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, 40901, "参数错误: "+err.Error())
		return
	}

	result, err := h.listOrders.Execute(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	list := make([]*dto.OrderResponse, 0, len(result.Orders))
	for _, o := range result.Orders {
		list = append(list, toOrderDTO(o))
	}
	response.Success(c, &dto.ListOrdersResponse{
		List:  list,
		Total: result.Total,
		Page:  result.Page,
		Size:  result.PageSize,
	})
}

// AddOrderItems 追加订单明细
// @Summary      追加订单明细
// @Description  向已有订单追加明细,走与创建相同的库存预占规则
// @Tags         订单模块
// @Accept       json
// @Produce      json
// @Param        id path string true "订单ID"
// @Param        request body dto.AddItemsRequest true "追加的明细"
// @Success      200 {object} response.Response{data=dto.OrderResponse} "追加成功,返回完整订单"
// @Failure      200 {object} response.Response "40403订单不存在 40402图书不存在 40600数量不合法 40001库存不足"
// @Router       /orders/{id}/items [post]
func (h *OrderHandler) AddOrderItems(c *gin.Context) {
	var req dto.AddItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40901, "参数错误: "+err.Error())
		return
	}

	result, err := h.addItems.Execute(c.Request.Context(), &apporder.AddItemsRequest{
		OrderID: c.Param("id"),
		Items:   toAppItems(req.Items),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toOrderDTO(result))
}

// ListOrderItems 查询订单明细
// @Summary      查询订单明细
// @Description  查询订单下的全部明细,行净额按当前价格实时计算,图书已删除的明细net_amount为null
// @Tags         订单模块
// @Produce      json
// @Param        id path string true "订单ID"
// @Success      200 {object} response.Response{data=[]dto.OrderItemResponse} "查询成功"
// @Failure      200 {object} response.Response "40403订单不存在"
// @Router       /orders/{id}/items [get]
func (h *OrderHandler) ListOrderItems(c *gin.Context) {
	result, err := h.listItems.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]*dto.OrderItemResponse, 0, len(result))
	for _, item := range result {
		items = append(items, toItemDTO(item))
	}
	response.Success(c, items)
}

// toAppItems HTTP明细转应用层DTO
func toAppItems(items []dto.OrderItemRequest) []apporder.OrderItemRequest {
	out := make([]apporder.OrderItemRequest, len(items))
	for i, item := range items {
		out[i] = apporder.OrderItemRequest{
			BookID:   item.BookID,
			Quantity: item.Quantity,
		}
	}
	return out
}

// toOrderDTO 应用层响应转HTTP DTO
func toOrderDTO(o *apporder.OrderResponse) *dto.OrderResponse {
	items := make([]*dto.OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, toItemDTO(item))
	}
	return &dto.OrderResponse{
		ID:        o.ID,
		OrderNo:   o.OrderNo,
		Total:     o.Total,
		Items:     items,
		CreatedAt: o.CreatedAt.Format(time.DateTime),
	}
}

func toItemDTO(item *apporder.OrderItemResponse) *dto.OrderItemResponse {
	return &dto.OrderItemResponse{
		ID:        item.ID,
		BookID:    item.BookID,
		Quantity:  item.Quantity,
		NetAmount: item.NetAmount,
	}
}
