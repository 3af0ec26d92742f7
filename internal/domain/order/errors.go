package order

import (
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// 订单领域错误定义
// 设计说明:
// 1. 校验失败的错误消息必须携带业务标识(图书ID/订单ID/明细ID),便于定位
// 2. 错误种类通过业务错误码区分,调用方用errors.Is(err, 哨兵错误)判断
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrInvalidOrderItems 订单明细不合法
	ErrInvalidOrderItems = apperrors.New(apperrors.ErrCodeInvalidParams, "订单明细不能为空")

	// ErrOrderNoDuplicate 订单号冲突
	ErrOrderNoDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "订单号已存在")
)

// errBookNotFound 图书不存在(含图书ID)
// bookID为空串时同样返回此错误:空的图书ID视为无法解析的图书
func errBookNotFound(bookID string) *apperrors.AppError {
	return apperrors.Newf(apperrors.ErrCodeBookNotFound, "图书不存在: %s", bookID)
}

// errQuantityNotAcceptable 数量不合法(必须>0)
// 消息携带图书ID、所属订单ID、明细ID三个标识
func errQuantityNotAcceptable(item *OrderItem) *apperrors.AppError {
	return apperrors.Newf(apperrors.ErrCodeNotAcceptable,
		"订单 %s 明细 %s 中图书 %s 的购买数量必须大于0",
		item.OrderID, item.ID, item.BookID)
}

// errInsufficientStock 库存不足(含当前库存与需求量)
func errInsufficientStock(bookID string, stock, need int) *apperrors.AppError {
	return apperrors.Newf(apperrors.ErrCodeInsufficientStock,
		"图书 %s 库存不足,当前库存:%d,需要:%d", bookID, stock, need)
}
