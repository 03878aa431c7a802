package execution

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"alert-trader/internal/ledger"
	"alert-trader/internal/venue"
)

// Coordinator 将一次交易计划按固定顺序拆成三条腿执行：
// 市价入场、止损挂单、止盈挂单。入场失败立即中止，
// 两条离场腿相互独立，各自失败只记账不回撤。
type Coordinator struct {
	client   venue.Client
	store    ledger.Store
	resolver *FillPriceResolver
	logger   *zap.Logger
}

// NewCoordinator 创建执行协调器。
func NewCoordinator(client venue.Client, store ledger.Store, resolver *FillPriceResolver, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		client:   client,
		store:    store,
		resolver: resolver,
		logger:   logger,
	}
}

// ExecuteBracket 执行一次计划。返回的 Result 记录了每条腿的终态，
// error 汇总了中止原因或离场腿的失败。
func (c *Coordinator) ExecuteBracket(ctx context.Context, plan Plan) (Result, error) {
	result := Result{
		Product:       plan.Product,
		Direction:     plan.Direction,
		ExecutionTime: time.Now().UTC(),
	}

	if err := validatePlan(plan); err != nil {
		return result, err
	}

	riskReward := plan.RiskReward
	if riskReward <= 0 {
		riskReward = DefaultRiskReward
	}
	bufferPercent := plan.BufferPercent
	if bufferPercent <= 0 {
		bufferPercent = DefaultBufferPercent
	}

	entry, avg, err := c.placeEntry(ctx, plan)
	result.Legs = append(result.Legs, entry)
	if err != nil {
		return result, err
	}
	result.EntryFillAvg = avg

	if !plan.HasExits() {
		c.logger.Info("计划无止损价，仅执行入场腿",
			zap.String("product", plan.Product),
			zap.Int64("local_id", entry.LocalID),
		)
		return result, nil
	}

	takeProfit, err := TakeProfitPrice(plan.Direction, avg, plan.StopLossPrice, riskReward)
	if err != nil {
		c.logger.Error("止盈价推导失败，离场腿不再执行",
			zap.String("product", plan.Product),
			zap.Float64("entry_avg", avg),
			zap.Float64("stop_loss", plan.StopLossPrice),
			zap.Error(err),
		)
		return result, err
	}
	stopLimit := StopLimitPrice(plan.Direction, plan.StopLossPrice, bufferPercent)

	result.TakeProfit = takeProfit
	result.StopTrigger = plan.StopLossPrice
	result.StopLimit = stopLimit

	var errs error

	stopCfg, err := venue.BuildOrderConfig(venue.OrderTypeStopLimitGTC, venue.ConfigParams{
		BaseSize:      plan.Size,
		LimitPrice:    FormatPrice(stopLimit, StopPrecision),
		StopPrice:     FormatPrice(plan.StopLossPrice, StopPrecision),
		StopDirection: plan.Direction.StopDirection(),
	})
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		leg, legErr := c.placeExit(ctx, plan, LegStopLoss, stopCfg, FormatPrice(plan.StopLossPrice, StopPrecision))
		result.Legs = append(result.Legs, leg)
		errs = multierr.Append(errs, legErr)
	}

	profitCfg, err := venue.BuildOrderConfig(venue.OrderTypeLimitGTC, venue.ConfigParams{
		BaseSize:   plan.Size,
		LimitPrice: FormatPrice(takeProfit, PricePrecision),
	})
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		leg, legErr := c.placeExit(ctx, plan, LegTakeProfit, profitCfg, FormatPrice(takeProfit, PricePrecision))
		result.Legs = append(result.Legs, leg)
		errs = multierr.Append(errs, legErr)
	}

	return result, errs
}

func (c *Coordinator) placeEntry(ctx context.Context, plan Plan) (LegResult, float64, error) {
	leg := LegResult{Role: LegEntry, State: LegPending}

	localID, err := c.store.NextID(ctx)
	if err != nil {
		return leg, 0, err
	}
	leg.LocalID = localID

	cfg, err := venue.BuildOrderConfig(venue.OrderTypeMarket, venue.ConfigParams{BaseSize: plan.Size})
	if err != nil {
		return leg, 0, err
	}

	side := plan.Direction.EntrySide()
	c.logger.Info("提交入场腿",
		zap.Int64("local_id", localID),
		zap.String("product", plan.Product),
		zap.String("side", string(side)),
		zap.String("size", plan.Size),
	)

	placed, err := c.client.PlaceOrder(ctx, venue.PlaceOrderRequest{
		ClientOrderID: strconv.FormatInt(localID, 10),
		Product:       plan.Product,
		Side:          side,
		Config:        cfg,
	})
	if err != nil {
		return leg, 0, err
	}
	leg.State = LegSubmitted

	if !placed.Success {
		reason := placed.ErrorInfo.Reason()
		leg.State = LegFailed
		leg.Status = "failed_" + reason
		if appendErr := c.appendLeg(ctx, plan, leg, side, ""); appendErr != nil {
			return leg, 0, multierr.Append(fmt.Errorf("execution: 入场腿被拒: %s", reason), appendErr)
		}
		return leg, 0, fmt.Errorf("execution: 入场腿被拒: %s", reason)
	}
	leg.VenueOrderID = placed.VenueOrderID

	avg, resolveErr := c.resolver.Resolve(ctx, placed.VenueOrderID)

	// 入场单已被场所接受，无论均价是否取得都先记账
	leg.Status = "executed"
	avgText := ""
	if resolveErr == nil {
		leg.State = LegFilled
		avgText = strconv.FormatFloat(avg, 'f', -1, 64)
		leg.Price = avgText
	}
	if appendErr := c.appendLeg(ctx, plan, leg, side, avgText); appendErr != nil {
		return leg, 0, multierr.Append(resolveErr, appendErr)
	}

	if resolveErr != nil {
		c.logger.Error("未取得入场均价，离场腿不再执行",
			zap.Int64("local_id", localID),
			zap.String("venue_order_id", placed.VenueOrderID),
			zap.Error(resolveErr),
		)
		return leg, 0, resolveErr
	}

	return leg, avg, nil
}

func (c *Coordinator) placeExit(ctx context.Context, plan Plan, role LegRole, cfg venue.OrderConfig, price string) (LegResult, error) {
	leg := LegResult{Role: role, State: LegPending, Price: price}
	side := plan.Direction.ExitSide()

	localID, err := c.store.NextID(ctx)
	if err != nil {
		return leg, err
	}
	leg.LocalID = localID

	c.logger.Info("提交离场腿",
		zap.Int64("local_id", localID),
		zap.String("leg_role", string(role)),
		zap.String("product", plan.Product),
		zap.String("side", string(side)),
		zap.String("price", price),
	)

	placed, err := c.client.PlaceOrder(ctx, venue.PlaceOrderRequest{
		ClientOrderID: strconv.FormatInt(localID, 10),
		Product:       plan.Product,
		Side:          side,
		Config:        cfg,
	})
	if err != nil {
		return leg, err
	}
	leg.State = LegSubmitted

	if !placed.Success {
		reason := placed.ErrorInfo.Reason()
		leg.State = LegFailed
		leg.Status = "failed_" + reason
		if appendErr := c.appendLeg(ctx, plan, leg, side, ""); appendErr != nil {
			return leg, multierr.Append(fmt.Errorf("execution: %s 腿被拒: %s", role, reason), appendErr)
		}
		return leg, fmt.Errorf("execution: %s 腿被拒: %s", role, reason)
	}

	leg.VenueOrderID = placed.VenueOrderID
	leg.Status = "executed"
	if appendErr := c.appendLeg(ctx, plan, leg, side, ""); appendErr != nil {
		return leg, appendErr
	}
	return leg, nil
}

func (c *Coordinator) appendLeg(ctx context.Context, plan Plan, leg LegResult, side venue.Side, avgFilled string) error {
	return c.store.Append(ctx, ledger.Entry{
		LocalID:        leg.LocalID,
		Timestamp:      time.Now().UTC(),
		LegRole:        string(leg.Role),
		Side:           string(side),
		Product:        plan.Product,
		Size:           plan.Size,
		Status:         leg.Status,
		AvgFilledPrice: avgFilled,
		VenueOrderID:   leg.VenueOrderID,
	})
}

func validatePlan(plan Plan) error {
	if plan.Product == "" {
		return fmt.Errorf("execution: 计划缺少交易对")
	}
	if plan.Size == "" {
		return fmt.Errorf("execution: 计划缺少数量")
	}
	if _, err := strconv.ParseFloat(plan.Size, 64); err != nil {
		return fmt.Errorf("execution: 数量 %q 非法: %w", plan.Size, err)
	}
	if plan.Direction != DirectionLong && plan.Direction != DirectionShort {
		return fmt.Errorf("execution: 未知方向 %q", plan.Direction)
	}
	if plan.StopLossPrice < 0 {
		return fmt.Errorf("execution: 止损价不能为负")
	}
	return nil
}
