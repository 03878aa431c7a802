package execution

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// PricePrecision 为入场与止盈价格的小数位数。
	PricePrecision = 4
	// StopPrecision 为止损价格的小数位数。
	StopPrecision = 3

	// DefaultRiskReward 为默认盈亏比。
	DefaultRiskReward = 2.0
	// DefaultBufferPercent 为止损限价的默认缓冲百分比。
	DefaultBufferPercent = 0.5
)

// ErrPricing 表示价格推导失败，风险距离必须为正。
var ErrPricing = errors.New("execution: 价格推导失败")

// TakeProfitPrice 按盈亏比从入场均价与止损价推导止盈价。
// 多头要求入场价高于止损价，空头相反；风险距离非正时报错。
func TakeProfitPrice(direction Direction, entry, stop, riskReward float64) (float64, error) {
	if riskReward <= 0 {
		return 0, fmt.Errorf("%w: 盈亏比 %v 必须为正", ErrPricing, riskReward)
	}

	switch direction {
	case DirectionLong:
		risk := entry - stop
		if risk <= 0 {
			return 0, fmt.Errorf("%w: 多头入场价 %v 必须高于止损价 %v", ErrPricing, entry, stop)
		}
		return entry + risk*riskReward, nil
	case DirectionShort:
		risk := stop - entry
		if risk <= 0 {
			return 0, fmt.Errorf("%w: 空头入场价 %v 必须低于止损价 %v", ErrPricing, entry, stop)
		}
		return entry - risk*riskReward, nil
	default:
		return 0, fmt.Errorf("%w: 未知方向 %q", ErrPricing, direction)
	}
}

// StopLimitPrice 从止损触发价推导限价。
// 用户给定的止损价作为触发价，限价向亏损方向内收一个缓冲，
// 保证触发后限价单能够成交。
func StopLimitPrice(direction Direction, trigger, bufferPercent float64) float64 {
	buffer := bufferPercent / 100
	if direction == DirectionShort {
		return trigger * (1 + buffer)
	}
	return trigger * (1 - buffer)
}

// FormatPrice 以固定小数位格式化价格。
func FormatPrice(value float64, precision int) string {
	return strconv.FormatFloat(value, 'f', precision, 64)
}
