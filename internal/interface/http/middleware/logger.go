package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// RequestIDKey 请求ID在gin.Context中的键
const RequestIDKey = "request_id"

// RequestLogger 请求日志中间件
// 设计说明:
// 1. 每个请求分配一个request_id(客户端传入X-Request-ID则复用),
//    写回响应头便于排查问题时和客户端对账
// 2. 记录路由模板而不是原始URL,避免日志基数爆炸
// 3. trace_id来自OpenTelemetry上下文,用于日志和链路关联
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if traceID := tracing.ExtractTraceID(c.Request.Context()); traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}

		if len(c.Errors) > 0 {
			logger.L().Error("HTTP请求", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		logger.L().Info("HTTP请求", fields...)
	}
}
