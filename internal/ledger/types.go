package ledger

import (
	"context"
	"time"
)

// FirstID 为账本的起始编号，空账本从这里开始分配。
const FirstID = 1001

// Entry 为账本中的一行终态记录。
// 编号同时用作场所侧的 client_order_id，价格与数量保持字符串形态。
type Entry struct {
	LocalID        int64     `json:"local_id"`
	Timestamp      time.Time `json:"timestamp"`
	LegRole        string    `json:"leg_role"`
	Side           string    `json:"side"`
	Product        string    `json:"product"`
	Size           string    `json:"size"`
	Status         string    `json:"status"`
	AvgFilledPrice string    `json:"avg_filled_price,omitempty"`
	VenueOrderID   string    `json:"venue_order_id,omitempty"`
}

// Store 抽象本地订单账本。
// NextID 读取下一个可用编号但不占用；追加该编号的行后编号才真正消耗。
// 单写者假设下编号在两次调用之间保持稳定。
type Store interface {
	NextID(ctx context.Context) (int64, error)
	Append(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
