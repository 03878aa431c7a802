package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"alert-trader/internal/alert"
	"alert-trader/internal/config"
	"alert-trader/internal/execution"
	"alert-trader/internal/ledger"
	"alert-trader/internal/store"
	"alert-trader/internal/venue"
	"alert-trader/internal/webhook"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。使用文件账本时 sqliteStore 可以为 nil。
func New(cfg *config.Config, logger *zap.Logger, sqliteStore *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  sqliteStore,
	}
}

// NewLedgerStore 根据配置选择账本后端。
func NewLedgerStore(cfg *config.Config, sqliteStore *store.Store, logger *zap.Logger) (ledger.Store, error) {
	switch cfg.Ledger.Backend {
	case config.LedgerBackendFile:
		return ledger.NewFileStore(cfg.Ledger.Path, logger)
	case config.LedgerBackendSQLite:
		if sqliteStore == nil {
			return nil, errors.New("app: sqlite 账本需要数据库连接")
		}
		return ledger.NewSQLiteStore(sqliteStore, logger)
	default:
		return nil, fmt.Errorf("app: 未知账本后端 %q", cfg.Ledger.Backend)
	}
}

// NewCoordinator 组装场所客户端与执行协调器。
func NewCoordinator(cfg *config.Config, ledgerStore ledger.Store, logger *zap.Logger) (*execution.Coordinator, error) {
	client, err := venue.NewCoinbase(cfg.Venue, logger)
	if err != nil {
		return nil, err
	}

	resolver := execution.NewFillPriceResolver(client, cfg.Fill.MaxWait, cfg.Fill.PollInterval, logger)
	return execution.NewCoordinator(client, ledgerStore, resolver, logger), nil
}

// Run 启动告警接收服务并阻塞至退出信号。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("告警交易系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("venue", a.cfg.Venue.Name),
		zap.String("ledger_backend", a.cfg.Ledger.Backend),
		zap.Int("webhook_port", a.cfg.Webhook.Port),
	)

	ledgerStore, err := NewLedgerStore(a.cfg, a.store, a.logger)
	if err != nil {
		return err
	}

	coordinator, err := NewCoordinator(a.cfg, ledgerStore, a.logger)
	if err != nil {
		return err
	}

	server := webhook.NewServer(
		a.cfg.Webhook,
		a.cfg.Trading,
		alert.NewParser(a.logger),
		coordinator,
		ledgerStore,
		a.logger,
	)

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("告警服务异常退出: %w", err)
	}

	a.logger.Info("系统收到退出信号，正在停止")
	return nil
}
