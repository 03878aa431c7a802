package venue

import "context"

// Side 表示订单方向，使用场所侧的大写写法。
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite 返回相反方向。
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// StopDirection 表示止损触发方向。
type StopDirection string

const (
	StopDirectionUp   StopDirection = "STOP_DIRECTION_STOP_UP"
	StopDirectionDown StopDirection = "STOP_DIRECTION_STOP_DOWN"
)

// StatusFilled 为订单完全成交后的规范状态。
const StatusFilled = "FILLED"

// PlaceOrderRequest 描述一次下单请求。
// ClientOrderID 由本地账本分配，用于幂等与本地-场所关联。
type PlaceOrderRequest struct {
	ClientOrderID string
	Product       string
	Side          Side
	Config        OrderConfig
}

// PlaceOrderResult 为下单结果。场所拒单时 Success 为 false，
// 拒单原因已在边界处规范化为 ErrorInfo。
type PlaceOrderResult struct {
	Success      bool
	VenueOrderID string
	ErrorInfo    *ErrorInfo
}

// OrderStatusResult 为订单状态查询结果。
type OrderStatusResult struct {
	Status         string
	AvgFilledPrice string
}

// Client 抽象交易场所能力，便于切换真实或模拟实现。
type Client interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error)
	OrderStatus(ctx context.Context, venueOrderID string) (OrderStatusResult, error)
}

// ErrorInfo 在场所边界统一各种拒单错误的形态。
type ErrorInfo struct {
	PreviewFailureReason string `json:"preview_failure_reason,omitempty"`
	Message              string `json:"message,omitempty"`
	ErrorDetails         string `json:"error_details,omitempty"`
	Err                  string `json:"error,omitempty"`
}

// Reason 按固定优先级提取拒单原因，全部为空时返回 UNKNOWN。
func (e *ErrorInfo) Reason() string {
	if e == nil {
		return "UNKNOWN"
	}
	for _, candidate := range []string{e.PreviewFailureReason, e.Message, e.ErrorDetails, e.Err} {
		if candidate != "" {
			return candidate
		}
	}
	return "UNKNOWN"
}
