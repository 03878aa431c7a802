package execution

import (
	"time"

	"alert-trader/internal/venue"
)

// Direction 表示持仓方向。
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// EntrySide 返回开仓方向对应的下单方向。
func (d Direction) EntrySide() venue.Side {
	if d == DirectionShort {
		return venue.SideSell
	}
	return venue.SideBuy
}

// ExitSide 返回离场腿的下单方向。
func (d Direction) ExitSide() venue.Side {
	return d.EntrySide().Opposite()
}

// StopDirection 返回止损触发方向。
func (d Direction) StopDirection() venue.StopDirection {
	if d == DirectionShort {
		return venue.StopDirectionUp
	}
	return venue.StopDirectionDown
}

// LegRole 标识括号单中的一条腿。
type LegRole string

const (
	LegEntry      LegRole = "entry"
	LegStopLoss   LegRole = "stop_loss"
	LegTakeProfit LegRole = "take_profit"
)

// LegState 为腿的生命周期状态。
// 状态单向推进，终态只会写入账本一次。
type LegState string

const (
	LegPending   LegState = "PENDING"
	LegSubmitted LegState = "SUBMITTED"
	LegFilled    LegState = "FILLED"
	LegFailed    LegState = "FAILED"
)

// Plan 描述一次括号单执行计划。
// StopLossPrice 为零表示只执行入场腿。
type Plan struct {
	Product       string
	Direction     Direction
	Size          string
	StopLossPrice float64
	RiskReward    float64
	BufferPercent float64
}

// HasExits 判断计划是否包含离场腿。
func (p Plan) HasExits() bool {
	return p.StopLossPrice > 0
}

// LegResult 为单条腿的执行结果。
type LegResult struct {
	Role         LegRole
	State        LegState
	LocalID      int64
	VenueOrderID string
	Status       string
	Price        string
}

// Result 汇总一次执行的全部腿。
type Result struct {
	Product       string
	Direction     Direction
	EntryFillAvg  float64
	TakeProfit    float64
	StopTrigger   float64
	StopLimit     float64
	Legs          []LegResult
	ExecutionTime time.Time
}
