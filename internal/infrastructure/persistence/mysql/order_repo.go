package mysql

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/domain/order"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// orderRepository 订单仓储实现(MySQL)
// 设计说明:
// 1. Order和OrderItem是聚合关系,必须一起保存
// 2. 查询时使用Preload预加载明细,避免N+1问题
// 3. 事务通过context传递(dbFromContext)
// 4. 净额/总额是派生字段,模型里没有对应列,转换时不处理
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单(包含订单明细)
// GORM通过foreignKey自动保存关联的Items;
// 必须在事务中调用(库存扣减与落库同生共死)
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	for _, item := range o.Items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = o.ID
	}

	model := toOrderModel(o)
	db := dbFromContext(ctx, r.db)
	if err := db.Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return order.ErrOrderNoDuplicate
		}
		return apperrors.Wrap(err, "创建订单失败")
	}

	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt
	return nil
}

// AddItems 向已存在的订单追加明细
func (r *orderRepository) AddItems(ctx context.Context, orderID string, items []*order.OrderItem) error {
	db := dbFromContext(ctx, r.db)

	// 先确认父订单存在
	var count int64
	if err := db.Model(&OrderModel{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, "查询订单失败")
	}
	if count == 0 {
		return order.ErrOrderNotFound
	}

	models := make([]OrderItemModel, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = orderID
		models[i] = *toOrderItemModel(item)
	}

	if err := db.Create(&models).Error; err != nil {
		return apperrors.Wrap(err, "创建订单明细失败")
	}
	return nil
}

// FindByID 根据ID查找订单
// 使用Preload预加载Items,避免N+1查询
func (r *orderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	var model OrderModel
	db := dbFromContext(ctx, r.db)

	err := db.Preload("Items").Where("id = ?", id).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}

	return toOrderEntity(&model), nil
}

// FindByOrderNo 根据订单号查找订单
func (r *orderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	var model OrderModel
	db := dbFromContext(ctx, r.db)

	err := db.Preload("Items").Where("order_no = ?", orderNo).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}

	return toOrderEntity(&model), nil
}

// List 分页查询订单列表(含明细)
func (r *orderRepository) List(ctx context.Context, page, pageSize int) ([]*order.Order, int64, error) {
	var models []OrderModel
	var total int64

	db := dbFromContext(ctx, r.db)
	query := db.Model(&OrderModel{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单总数失败")
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Items").
		Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单列表失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, total, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toOrderModel 领域实体 → GORM模型
func toOrderModel(o *order.Order) *OrderModel {
	items := make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		items[i] = *toOrderItemModel(item)
	}
	return &OrderModel{
		ID:      o.ID,
		OrderNo: o.OrderNo,
		Items:   items,
	}
}

func toOrderItemModel(item *order.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		ID:       item.ID,
		OrderID:  item.OrderID,
		BookID:   item.BookID,
		Quantity: item.Quantity,
	}
}

// toOrderEntity GORM模型 → 领域实体
// Total/NetAmount不在库中,由读取后的聚合计算填充
func toOrderEntity(model *OrderModel) *order.Order {
	items := make([]*order.OrderItem, len(model.Items))
	for i := range model.Items {
		items[i] = toOrderItemEntity(&model.Items[i])
	}
	return &order.Order{
		ID:        model.ID,
		OrderNo:   model.OrderNo,
		Items:     items,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toOrderItemEntity(model *OrderItemModel) *order.OrderItem {
	return &order.OrderItem{
		ID:       model.ID,
		OrderID:  model.OrderID,
		BookID:   model.BookID,
		Quantity: model.Quantity,
	}
}
