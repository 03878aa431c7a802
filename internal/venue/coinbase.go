package venue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"

	"alert-trader/internal/config"
)

// Coinbase 基于 ccxt 封装 Coinbase Advanced Trade 下单与查询，并实现重试机制。
type Coinbase struct {
	cfg      config.VenueConfig
	logger   *zap.Logger
	exchange *ccxt.Coinbase

	marketsMu     sync.Mutex
	marketsLoaded bool
}

// NewCoinbase 构造 Coinbase 客户端。
func NewCoinbase(cfg config.VenueConfig, logger *zap.Logger) (*Coinbase, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	userConfig := map[string]interface{}{
		"enableRateLimit": true,
		"options": map[string]interface{}{
			"defaultType": "swap",
		},
	}

	if cfg.APIKey != "" {
		userConfig["apiKey"] = cfg.APIKey
	}
	if cfg.APISecret != "" {
		userConfig["secret"] = cfg.APISecret
	}
	if cfg.APIPass != "" {
		userConfig["password"] = cfg.APIPass
	}

	ex := ccxt.NewCoinbase(userConfig)
	if cfg.UseSandbox {
		ex.SetSandboxMode(true)
	}

	return &Coinbase{
		cfg:      cfg,
		logger:   logger,
		exchange: ex,
	}, nil
}

// Raw 返回底层 ccxt 客户端。
func (c *Coinbase) Raw() *ccxt.Coinbase {
	return c.exchange
}

// PlaceOrder 提交订单。场所侧拒单不作为 error 返回，
// 而是以 Success=false 携带规范化后的 ErrorInfo，由调用方决定记账状态。
func (c *Coinbase) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	amount, err := strconv.ParseFloat(req.Config.Size(), 64)
	if err != nil || amount <= 0 {
		return PlaceOrderResult{}, fmt.Errorf("%w: base_size %q 不是有效数量", ErrValidation, req.Config.Size())
	}

	params := map[string]interface{}{
		"clientOrderId": req.ClientOrderID,
	}

	var order ccxt.Order
	callErr := c.callWithRetry(ctx, "create_order_"+req.Config.Key(), func() error {
		if err := c.ensureMarketsLoaded(ctx); err != nil {
			return err
		}

		var innerErr error
		order, innerErr = c.createOrder(req, amount, params)
		return innerErr
	})
	if callErr != nil {
		if errors.Is(callErr, context.Canceled) || errors.Is(callErr, context.DeadlineExceeded) {
			return PlaceOrderResult{}, callErr
		}
		return PlaceOrderResult{Success: false, ErrorInfo: normalizeVenueError(callErr)}, nil
	}

	return PlaceOrderResult{
		Success:      true,
		VenueOrderID: derefString(order.Id),
	}, nil
}

func (c *Coinbase) createOrder(req PlaceOrderRequest, amount float64, params map[string]interface{}) (ccxt.Order, error) {
	side := strings.ToLower(string(req.Side))

	switch cfg := req.Config.(type) {
	case MarketIOC:
		return c.exchange.CreateMarketOrder(req.Product, side, amount,
			ccxt.WithCreateMarketOrderParams(params))
	case LimitIOC:
		params["timeInForce"] = "IOC"
		return c.limitOrder(req.Product, side, amount, cfg.LimitPrice, cfg.PostOnly, params)
	case LimitGTC:
		params["timeInForce"] = "GTC"
		return c.limitOrder(req.Product, side, amount, cfg.LimitPrice, cfg.PostOnly, params)
	case LimitGTD:
		params["timeInForce"] = "GTD"
		params["end_time"] = cfg.EndTime
		return c.limitOrder(req.Product, side, amount, cfg.LimitPrice, cfg.PostOnly, params)
	case LimitFOK:
		params["timeInForce"] = "FOK"
		return c.limitOrder(req.Product, side, amount, cfg.LimitPrice, cfg.PostOnly, params)
	case StopLimitGTC:
		params["timeInForce"] = "GTC"
		applyStop(params, cfg.StopPrice, cfg.StopDirection)
		return c.limitOrder(req.Product, side, amount, cfg.LimitPrice, false, params)
	case StopLimitGTD:
		params["timeInForce"] = "GTD"
		params["end_time"] = cfg.EndTime
		applyStop(params, cfg.StopPrice, cfg.StopDirection)
		return c.limitOrder(req.Product, side, amount, cfg.LimitPrice, false, params)
	case BracketGTC:
		params["timeInForce"] = "GTC"
		params["stop_trigger_price"] = cfg.StopTriggerPrice
		return c.limitOrder(req.Product, side, amount, cfg.LimitPrice, false, params)
	case BracketGTD:
		params["timeInForce"] = "GTD"
		params["end_time"] = cfg.EndTime
		params["stop_trigger_price"] = cfg.StopTriggerPrice
		return c.limitOrder(req.Product, side, amount, cfg.LimitPrice, false, params)
	default:
		return ccxt.Order{}, fmt.Errorf("%w: 未知订单配置 %T", ErrValidation, req.Config)
	}
}

func (c *Coinbase) limitOrder(product string, side string, amount float64, limitPrice string, postOnly bool, params map[string]interface{}) (ccxt.Order, error) {
	price, err := strconv.ParseFloat(limitPrice, 64)
	if err != nil || price <= 0 {
		return ccxt.Order{}, fmt.Errorf("%w: limit_price %q 不是有效价格", ErrValidation, limitPrice)
	}
	if postOnly {
		params["postOnly"] = true
	}
	return c.exchange.CreateLimitOrder(product, side, amount, price,
		ccxt.WithCreateLimitOrderParams(params))
}

func applyStop(params map[string]interface{}, stopPrice string, direction StopDirection) {
	if stopPrice != "" {
		params["stopPrice"] = stopPrice
	}
	if direction != "" {
		params["stop_direction"] = string(direction)
	}
}

// OrderStatus 查询订单状态与成交均价。
func (c *Coinbase) OrderStatus(ctx context.Context, venueOrderID string) (OrderStatusResult, error) {
	var order ccxt.Order
	err := c.callWithRetry(ctx, "fetch_order", func() error {
		result, innerErr := c.exchange.FetchOrder(venueOrderID)
		if innerErr != nil {
			return innerErr
		}
		order = result
		return nil
	})
	if err != nil {
		return OrderStatusResult{}, err
	}

	return OrderStatusResult{
		Status:         normalizeStatus(derefString(order.Status)),
		AvgFilledPrice: formatAverage(order.Average),
	}, nil
}

func normalizeStatus(status string) string {
	switch strings.ToLower(status) {
	case "closed":
		return StatusFilled
	case "canceled", "cancelled":
		return "CANCELLED"
	case "open":
		return "OPEN"
	case "":
		return ""
	default:
		return strings.ToUpper(status)
	}
}

func formatAverage(avg *float64) string {
	if avg == nil || *avg <= 0 {
		return ""
	}
	return strconv.FormatFloat(*avg, 'f', -1, 64)
}

// normalizeVenueError 将各种形态的拒单错误统一为 ErrorInfo。
// ccxt 的错误信息常内嵌场所返回的 JSON 响应体，优先从中提取结构化字段。
func normalizeVenueError(err error) *ErrorInfo {
	message := strings.TrimSpace(err.Error())
	if idx := strings.Index(message, "{"); idx >= 0 {
		var info ErrorInfo
		if jsonErr := json.Unmarshal([]byte(message[idx:]), &info); jsonErr == nil {
			if info.Reason() != "UNKNOWN" {
				return &info
			}
		}
	}

	var ccxtErr *ccxt.Error
	if errors.As(err, &ccxtErr) {
		return &ErrorInfo{Message: strings.TrimSpace(ccxtErr.Message), Err: string(ccxtErr.Type)}
	}

	return &ErrorInfo{Message: message}
}

func (c *Coinbase) ensureMarketsLoaded(ctx context.Context) error {
	if c.marketsLoaded {
		return nil
	}

	c.marketsMu.Lock()
	defer c.marketsMu.Unlock()

	if c.marketsLoaded {
		return nil
	}

	loadErr := c.callWithRetry(ctx, "load_markets", func() error {
		_, err := c.exchange.LoadMarkets()
		return err
	})
	if loadErr != nil {
		return loadErr
	}

	c.marketsLoaded = true
	c.logger.Info("已完成市场元数据加载", zap.String("venue", c.cfg.Name))
	return nil
}

func (c *Coinbase) callWithRetry(ctx context.Context, operation string, fn func() error) error {
	attempt := 0
	delay := c.cfg.Retry.MinDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	maxDelay := c.cfg.Retry.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		attempt++
		start := time.Now()
		err := fn()
		duration := time.Since(start)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("场所调用重试后成功",
					zap.String("operation", operation),
					zap.Int("attempts", attempt),
					zap.Duration("latency", duration),
				)
			}
			return nil
		}

		normalizedErr, retry := c.classifyError(err)

		if errors.Is(normalizedErr, ErrMaintenance) {
			c.logger.Warn("场所维护中",
				zap.String("operation", operation),
				zap.Error(normalizedErr),
			)
			return normalizedErr
		}

		if !retry || attempt >= c.cfg.Retry.MaxAttempts {
			c.logger.Error("场所调用失败",
				zap.String("operation", operation),
				zap.Int("attempts", attempt),
				zap.Duration("latency", duration),
				zap.Error(normalizedErr),
			)
			return normalizedErr
		}

		wait := delay
		if wait > maxDelay {
			wait = maxDelay
		}

		c.logger.Warn("场所调用失败，等待重试",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(normalizedErr),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

func (c *Coinbase) classifyError(err error) (error, bool) {
	if err == nil {
		return nil, false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err, false
	}

	if errors.Is(err, ErrValidation) {
		return err, false
	}

	var ccxtErr *ccxt.Error
	if errors.As(err, &ccxtErr) {
		if ccxtErr.Type == ccxt.OnMaintenanceErrType {
			message := strings.TrimSpace(ccxtErr.Message)
			if message == "" {
				message = "venue under maintenance"
			}
			return fmt.Errorf("%w: %s", ErrMaintenance, message), false
		}
		return err, IsRetryable(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return err, true
	}

	return err, false
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
