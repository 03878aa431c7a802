package execution

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"alert-trader/internal/venue"
)

// ErrFillTimeout 表示在限定时间内未能取得成交均价。
var ErrFillTimeout = errors.New("execution: 等待成交均价超时")

// FillPriceResolver 轮询场所直到订单完全成交并返回成交均价。
type FillPriceResolver struct {
	client       venue.Client
	maxWait      time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewFillPriceResolver 创建成交均价解析器。
func NewFillPriceResolver(client venue.Client, maxWait, pollInterval time.Duration, logger *zap.Logger) *FillPriceResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxWait <= 0 {
		maxWait = 20 * time.Second
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &FillPriceResolver{
		client:       client,
		maxWait:      maxWait,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Resolve 以固定节奏轮询订单状态，直到完全成交或超时。
func (r *FillPriceResolver) Resolve(ctx context.Context, venueOrderID string) (float64, error) {
	deadline := time.Now().Add(r.maxWait)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		status, err := r.client.OrderStatus(ctx, venueOrderID)
		if err != nil {
			r.logger.Warn("查询订单状态失败",
				zap.String("venue_order_id", venueOrderID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		} else if status.Status == venue.StatusFilled && status.AvgFilledPrice != "" {
			avg, parseErr := strconv.ParseFloat(status.AvgFilledPrice, 64)
			if parseErr != nil {
				return 0, fmt.Errorf("execution: 成交均价 %q 非法: %w", status.AvgFilledPrice, parseErr)
			}
			if avg > 0 {
				r.logger.Info("已取得成交均价",
					zap.String("venue_order_id", venueOrderID),
					zap.Float64("avg_filled_price", avg),
					zap.Int("attempts", attempt),
				)
				return avg, nil
			}
		}

		if time.Now().After(deadline) {
			return 0, fmt.Errorf("%w: venue_order_id=%s 等待 %s", ErrFillTimeout, venueOrderID, r.maxWait)
		}

		timer := time.NewTimer(r.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
	}
}
