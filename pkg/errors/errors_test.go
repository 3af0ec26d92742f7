package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAppError_Is 测试按错误码比较错误种类
func TestAppError_Is(t *testing.T) {
	// 同一错误码、不同消息，应判定为同类错误
	err1 := Newf(ErrCodeBookNotFound, "图书不存在: %s", "b-1")
	assert.True(t, errors.Is(err1, ErrBookNotFound))

	// 不同错误码不相等
	err2 := Newf(ErrCodeInsufficientStock, "图书 %s 库存不足", "b-1")
	assert.False(t, errors.Is(err2, ErrBookNotFound))
}

// TestAppError_Unwrap 测试包装错误可以被Unwrap
func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	wrapped := Wrap(inner, "数据库错误")

	assert.True(t, errors.Is(wrapped, inner))
	assert.Equal(t, ErrCodeInternal, wrapped.Code)
}

// TestGetAppError 测试非AppError被包装为内部错误
func TestGetAppError(t *testing.T) {
	plain := fmt.Errorf("some io error")
	appErr := GetAppError(plain)

	assert.Equal(t, ErrCodeInternal, appErr.Code)
	assert.Equal(t, plain, appErr.Err)

	// AppError原样返回
	orig := New(ErrCodeNotAcceptable, "数量必须大于0")
	assert.Same(t, orig, GetAppError(orig))
}

// TestCodeOf 测试错误码提取
func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeOrderNotFound, CodeOf(ErrOrderNotFound))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("x")))
}
