// Package logger 提供基于zap的结构化日志
//
// 设计说明：
// 1. 全局单例:Init在进程启动时调用一次,业务代码通过L()取日志器
// 2. 配置驱动:级别/格式/输出位置全部来自config.yaml的log段
// 3. 未初始化时L()返回一个开发模式日志器,保证单测里可直接使用
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global *zap.Logger
)

// Options 日志配置(与config.LogConfig字段对应,避免循环依赖)
type Options struct {
	Level        string // debug | info | warn | error
	Format       string // console | json
	Output       string // stdout | stderr | /path/to/file
	EnableCaller bool
}

// Init 初始化全局日志器
func Init(opts Options) error {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return fmt.Errorf("无效的日志级别 %q: %w", opts.Level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableCaller = !opts.EnableCaller

	if opts.Format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if opts.Output != "" {
		cfg.OutputPaths = []string{opts.Output}
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("构建日志器失败: %w", err)
	}

	mu.Lock()
	global = l
	mu.Unlock()
	return nil
}

// L 获取全局日志器
func L() *zap.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	// 未初始化时退回开发模式日志器(主要服务于单测)
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global, _ = zap.NewDevelopment()
	}
	return global
}

// Sync 刷新缓冲的日志(进程退出前调用)
func Sync() {
	_ = L().Sync()
}
