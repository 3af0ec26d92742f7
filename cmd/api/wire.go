//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 使用方式：
// Step 1: 修改本文件中的Provider
// Step 2: 运行 `wire gen ./cmd/api`
// Step 3: Wire生成wire_gen.go,包含完整的依赖创建代码
//
// main.go中的手动注入与本文件等价,二者保持同步

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"gorm.io/gorm"

	apporder "github.com/xiebiao/bookshop/internal/application/order"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshop/internal/interface/http/handler"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/pkg/mq"
)

// infrastructureSet 基础设施层依赖
var infrastructureSet = wire.NewSet(
	config.Load,
	mysql.NewDB,
)

// repositorySet 仓储层依赖
var repositorySet = wire.NewSet(
	mysql.NewOrderRepository,
	mysql.NewGateway,
	provideTxManager,
)

// domainSet 领域层依赖
var domainSet = wire.NewSet(
	order.NewService,
)

// applicationSet 应用层依赖
var applicationSet = wire.NewSet(
	provideIdempotencyStore,
	provideEventPublisher,
	apporder.NewCreateOrderUseCase,
	apporder.NewAddOrderItemsUseCase,
	apporder.NewGetOrderUseCase,
	apporder.NewListOrdersUseCase,
	apporder.NewListOrderItemsUseCase,
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	handler.NewOrderHandler,
)

// provideTxManager mysql事务管理器绑定到应用层接口
func provideTxManager(db *gorm.DB) apporder.TxManager {
	return mysql.NewTxManager(db)
}

// provideIdempotencyStore 按配置创建幂等键存储
// Redis未启用时返回nil,创建订单用例跳过幂等检查
func provideIdempotencyStore(cfg *config.Config) (apporder.IdempotencyStore, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return redis.NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL), nil
}

// provideEventPublisher 按配置创建事件发布器
// MQ未启用时返回nil,创建订单用例跳过事件发布
func provideEventPublisher(cfg *config.Config) (*apporder.EventPublisher, error) {
	if !cfg.MQ.Enabled {
		return nil, nil
	}
	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
	if err != nil {
		return nil, err
	}
	return apporder.NewEventPublisher(publisher), nil
}

// provideGinEngine 创建并配置Gin引擎
func provideGinEngine(cfg *config.Config, orderHandler *handler.OrderHandler) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())

	registerRoutes(r, orderHandler)
	return r
}

// InitializeApp 初始化整个应用
// Wire会在wire_gen.go中生成实际的初始化代码
func InitializeApp() (*gin.Engine, error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		handlerSet,
		provideGinEngine,
	)
	return nil, nil
}
