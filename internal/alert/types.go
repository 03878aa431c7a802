package alert

import (
	"strconv"
)

// Action 表示告警要求的交易方向。
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Quantity 保留原始数量的整数/小数形态。
// 自然语言告警中 "@ 10" 与 "@ 10.5" 在下游 JSON 输出里需要保持原样。
type Quantity struct {
	Value float64
	Whole bool
}

// MarshalJSON 按原始形态输出整数或小数。
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Whole {
		return []byte(strconv.FormatInt(int64(q.Value), 10)), nil
	}
	return []byte(strconv.FormatFloat(q.Value, 'f', -1, 64)), nil
}

// TradeIntent 为一条告警解析后的交易意图，创建后不再修改。
type TradeIntent struct {
	Action     Action   `json:"action"`
	Ticker     string   `json:"ticker"`
	Contract   Quantity `json:"contract"`
	Position   float64  `json:"position"`
	StopLoss   float64  `json:"stop_loss,omitempty"`
	TakeProfit float64  `json:"take_profit,omitempty"`
}

// HasStopLoss 判断意图是否携带止损价。
func (t TradeIntent) HasStopLoss() bool {
	return t.StopLoss > 0
}

// HasTakeProfit 判断意图是否携带止盈价。
func (t TradeIntent) HasTakeProfit() bool {
	return t.TakeProfit > 0
}
