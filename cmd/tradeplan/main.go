package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"alert-trader/internal/app"
	"alert-trader/internal/config"
	"alert-trader/internal/execution"
	"alert-trader/internal/log"
	"alert-trader/internal/store"
)

func main() {
	var (
		configPath    string
		sideInput     string
		product       string
		size          string
		stopLossPrice float64
		rrRatio       float64
	)
	flag.StringVar(&configPath, "config", "", "配置文件路径，默认使用 configs/config.yaml")
	flag.StringVar(&sideInput, "side", "", "持仓方向 LONG 或 SHORT")
	flag.StringVar(&product, "product", "", "交易对，如 NEO-PERP-INTX")
	flag.StringVar(&size, "size", "", "下单数量")
	flag.Float64Var(&stopLossPrice, "stop-loss-price", 0, "止损触发价")
	flag.Float64Var(&rrRatio, "rr-ratio", execution.DefaultRiskReward, "止盈推导用盈亏比")
	flag.Parse()

	direction, err := parseSide(sideInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if product == "" || size == "" || stopLossPrice <= 0 {
		fmt.Fprintln(os.Stderr, "必须提供 -product、-size 与正的 -stop-loss-price")
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	var sqliteStore *store.Store
	if cfg.Ledger.Backend == config.LedgerBackendSQLite {
		sqliteStore, err = store.NewSQLite(cfg.Database)
		if err != nil {
			logger.Error("初始化数据库失败", zap.Error(err))
			os.Exit(1)
		}
		defer func() {
			if closeErr := sqliteStore.Close(); closeErr != nil {
				logger.Warn("关闭数据库失败", zap.Error(closeErr))
			}
		}()
	}

	ledgerStore, err := app.NewLedgerStore(cfg, sqliteStore, logger)
	if err != nil {
		logger.Error("初始化账本失败", zap.Error(err))
		os.Exit(1)
	}

	coordinator, err := app.NewCoordinator(cfg, ledgerStore, logger)
	if err != nil {
		logger.Error("初始化执行器失败", zap.Error(err))
		os.Exit(1)
	}

	plan := execution.Plan{
		Product:       product,
		Direction:     direction,
		Size:          size,
		StopLossPrice: stopLossPrice,
		RiskReward:    rrRatio,
		BufferPercent: cfg.Trading.StopLossBufferPercent,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, execErr := coordinator.ExecuteBracket(ctx, plan)
	if execErr != nil {
		logger.Error("执行失败", zap.Error(execErr))
	}

	if result.EntryFillAvg > 0 {
		fmt.Println(financialSummary(plan, result, rrRatio, sideInput))
	}

	if execErr != nil {
		os.Exit(1)
	}
}

func parseSide(input string) (execution.Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "LONG":
		return execution.DirectionLong, nil
	case "SHORT":
		return execution.DirectionShort, nil
	default:
		return "", fmt.Errorf("side %q 非法，必须为 LONG 或 SHORT", input)
	}
}
