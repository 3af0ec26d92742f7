package mysql

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/pkg/logger"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（生产环境应使用版本化的迁移脚本）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	logLevel := gormlogger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = gormlogger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	// 最大打开连接数（建议：CPU核数 * 2 + 磁盘数量）
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	// 最大空闲连接数（建议：MaxOpenConns的1/4到1/2）
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	// 连接最大存活时间（防止数据库主动断开连接）
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	logger.L().Info("✓ 数据库连接成功")

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	if cfg.Database.SeedDemo {
		if err := seedDemoBooks(db); err != nil {
			return nil, fmt.Errorf("写入演示图书失败: %w", err)
		}
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// 注意：AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&BookModel{},
		&OrderModel{},
		&OrderItemModel{},
	)
}

// seedDemoBooks 写入固定ID的演示图书
// 图书目录由外部系统维护;开发/联调环境用种子数据代替。
// FirstOrCreate保证重复启动不会重置库存
func seedDemoBooks(db *gorm.DB) error {
	books := []*book.Book{
		{ID: "demo-wuthering-heights", Title: "Wuthering Heights", Author: "Emily Brontë",
			Price: decimal.RequireFromString("11.11"), Stock: 10000},
		{ID: "demo-jane-eyre", Title: "Jane Eyre", Author: "Charlotte Brontë",
			Price: decimal.RequireFromString("12.34"), Stock: 10000},
		{ID: "demo-raven", Title: "The Raven", Author: "Edgar Allen Poe",
			Price: decimal.RequireFromString("13.13"), Stock: 10000},
	}
	for _, b := range books {
		model := toBookModel(b)
		if err := db.Where("id = ?", model.ID).FirstOrCreate(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// toBookModel 领域实体转GORM模型
func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Price:     b.Price,
		Stock:     b.Stock,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// BookModel GORM图书模型
// 设计说明:
// 1. 价格使用DECIMAL(10,2)精确小数,shopspring/decimal负责运算
// 2. 图书目录由外部维护,本服务只读价格/库存并扣减库存
type BookModel struct {
	ID        string          `gorm:"primaryKey;size:64;comment:图书ID"`
	Title     string          `gorm:"size:200;not null;comment:书名"`
	Author    string          `gorm:"size:100;comment:作者"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:单价"`
	Stock     int             `gorm:"not null;default:0;comment:库存数量"`
	CreatedAt time.Time       `gorm:"comment:创建时间"`
	UpdatedAt time.Time       `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// OrderModel GORM订单模型
// 设计说明:
// 1. 与OrderItemModel是一对多关系
// 2. OrderNo有唯一索引(业务主键)
// 3. 没有total列:订单总额是派生值,每次读取基于当前价格重新计算
type OrderModel struct {
	ID        string           `gorm:"primaryKey;size:36;comment:订单ID"`
	OrderNo   string           `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	Items     []OrderItemModel `gorm:"foreignKey:OrderID"` // 一对多关联
	CreatedAt time.Time        `gorm:"index;comment:创建时间"`
	UpdatedAt time.Time        `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel GORM订单明细模型
// 设计说明:
// 1. 没有净额列也没有价格快照:行净额永远按图书当前价格重算
// 2. OrderID外键关联orders表,BookID加索引支持按图书统计
type OrderItemModel struct {
	ID       string `gorm:"primaryKey;size:36;comment:明细ID"`
	OrderID  string `gorm:"index;size:36;not null;comment:订单ID"`
	BookID   string `gorm:"index;size:64;not null;comment:图书ID"`
	Quantity int    `gorm:"not null;comment:购买数量"`
}

// TableName 指定表名
func (OrderItemModel) TableName() string {
	return "order_items"
}
