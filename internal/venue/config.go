package venue

import (
	"encoding/json"
	"fmt"
)

// OrderType 为支持的订单类型，共十种。
type OrderType string

const (
	OrderTypeMarket       OrderType = "market"
	OrderTypeMarketIOC    OrderType = "market_ioc"
	OrderTypeLimitIOC     OrderType = "limit_ioc"
	OrderTypeLimitGTC     OrderType = "limit_gtc"
	OrderTypeLimitGTD     OrderType = "limit_gtd"
	OrderTypeLimitFOK     OrderType = "limit_fok"
	OrderTypeStopLimitGTC OrderType = "stop_limit_gtc"
	OrderTypeStopLimitGTD OrderType = "stop_limit_gtd"
	OrderTypeBracketGTC   OrderType = "bracket_gtc"
	OrderTypeBracketGTD   OrderType = "bracket_gtd"
)

// ConfigParams 为订单配置的原始参数。
// 价格一律为调用方按精度预先格式化的字符串，构建器不做二次取整。
type ConfigParams struct {
	BaseSize         string
	LimitPrice       string
	StopPrice        string
	StopDirection    StopDirection
	PostOnly         bool
	EndTime          string
	StopTriggerPrice string
}

// OrderConfig 为封闭的订单配置变体，每种订单类型对应一个独立形态。
// JSON 序列化结果即场所 order_configuration 的线格式。
type OrderConfig interface {
	isOrderConfig()
	// Key 返回场所侧的配置键名。
	Key() string
	// Size 返回下单数量（字符串形态）。
	Size() string
}

// MarketIOC 为立即成交市价单配置。
type MarketIOC struct {
	BaseSize string `json:"base_size"`
}

// LimitIOC 为立即成交限价单配置。
type LimitIOC struct {
	BaseSize   string `json:"base_size"`
	LimitPrice string `json:"limit_price,omitempty"`
	PostOnly   bool   `json:"post_only,omitempty"`
}

// LimitGTC 为撤销前有效限价单配置。
type LimitGTC struct {
	BaseSize   string `json:"base_size"`
	LimitPrice string `json:"limit_price,omitempty"`
	PostOnly   bool   `json:"post_only,omitempty"`
}

// LimitGTD 为限期限价单配置，end_time 必填。
type LimitGTD struct {
	BaseSize   string `json:"base_size"`
	EndTime    string `json:"end_time"`
	LimitPrice string `json:"limit_price,omitempty"`
	PostOnly   bool   `json:"post_only,omitempty"`
}

// LimitFOK 为全部成交或撤销限价单配置。
type LimitFOK struct {
	BaseSize   string `json:"base_size"`
	LimitPrice string `json:"limit_price,omitempty"`
	PostOnly   bool   `json:"post_only,omitempty"`
}

// StopLimitGTC 为撤销前有效止损限价单配置。
type StopLimitGTC struct {
	BaseSize      string        `json:"base_size"`
	LimitPrice    string        `json:"limit_price,omitempty"`
	StopPrice     string        `json:"stop_price,omitempty"`
	StopDirection StopDirection `json:"stop_direction,omitempty"`
}

// StopLimitGTD 为限期止损限价单配置，end_time 必填。
type StopLimitGTD struct {
	BaseSize      string        `json:"base_size"`
	EndTime       string        `json:"end_time"`
	LimitPrice    string        `json:"limit_price,omitempty"`
	StopPrice     string        `json:"stop_price,omitempty"`
	StopDirection StopDirection `json:"stop_direction,omitempty"`
}

// BracketGTC 为撤销前有效触发括号单配置。
type BracketGTC struct {
	BaseSize         string `json:"base_size"`
	LimitPrice       string `json:"limit_price,omitempty"`
	StopTriggerPrice string `json:"stop_trigger_price,omitempty"`
}

// BracketGTD 为限期触发括号单配置，end_time 必填。
type BracketGTD struct {
	BaseSize         string `json:"base_size"`
	EndTime          string `json:"end_time"`
	LimitPrice       string `json:"limit_price,omitempty"`
	StopTriggerPrice string `json:"stop_trigger_price,omitempty"`
}

func (MarketIOC) isOrderConfig()    {}
func (LimitIOC) isOrderConfig()     {}
func (LimitGTC) isOrderConfig()     {}
func (LimitGTD) isOrderConfig()     {}
func (LimitFOK) isOrderConfig()     {}
func (StopLimitGTC) isOrderConfig() {}
func (StopLimitGTD) isOrderConfig() {}
func (BracketGTC) isOrderConfig()   {}
func (BracketGTD) isOrderConfig()   {}

func (MarketIOC) Key() string    { return "market_market_ioc" }
func (LimitIOC) Key() string     { return "limit_limit_ioc" }
func (LimitGTC) Key() string     { return "limit_limit_gtc" }
func (LimitGTD) Key() string     { return "limit_limit_gtd" }
func (LimitFOK) Key() string     { return "limit_limit_fok" }
func (StopLimitGTC) Key() string { return "stop_limit_stop_limit_gtc" }
func (StopLimitGTD) Key() string { return "stop_limit_stop_limit_gtd" }
func (BracketGTC) Key() string   { return "trigger_bracket_gtc" }
func (BracketGTD) Key() string   { return "trigger_bracket_gtd" }

func (c MarketIOC) Size() string    { return c.BaseSize }
func (c LimitIOC) Size() string     { return c.BaseSize }
func (c LimitGTC) Size() string     { return c.BaseSize }
func (c LimitGTD) Size() string     { return c.BaseSize }
func (c LimitFOK) Size() string     { return c.BaseSize }
func (c StopLimitGTC) Size() string { return c.BaseSize }
func (c StopLimitGTD) Size() string { return c.BaseSize }
func (c BracketGTC) Size() string   { return c.BaseSize }
func (c BracketGTD) Size() string   { return c.BaseSize }

func (c MarketIOC) MarshalJSON() ([]byte, error) {
	type payload MarketIOC
	return wrapConfig(c.Key(), payload(c))
}

func (c LimitIOC) MarshalJSON() ([]byte, error) {
	type payload LimitIOC
	return wrapConfig(c.Key(), payload(c))
}

func (c LimitGTC) MarshalJSON() ([]byte, error) {
	type payload LimitGTC
	return wrapConfig(c.Key(), payload(c))
}

func (c LimitGTD) MarshalJSON() ([]byte, error) {
	type payload LimitGTD
	return wrapConfig(c.Key(), payload(c))
}

func (c LimitFOK) MarshalJSON() ([]byte, error) {
	type payload LimitFOK
	return wrapConfig(c.Key(), payload(c))
}

func (c StopLimitGTC) MarshalJSON() ([]byte, error) {
	type payload StopLimitGTC
	return wrapConfig(c.Key(), payload(c))
}

func (c StopLimitGTD) MarshalJSON() ([]byte, error) {
	type payload StopLimitGTD
	return wrapConfig(c.Key(), payload(c))
}

func (c BracketGTC) MarshalJSON() ([]byte, error) {
	type payload BracketGTC
	return wrapConfig(c.Key(), payload(c))
}

func (c BracketGTD) MarshalJSON() ([]byte, error) {
	type payload BracketGTD
	return wrapConfig(c.Key(), payload(c))
}

func wrapConfig(key string, payload interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{key: payload})
}

// BuildOrderConfig 将订单类型与参数映射为对应配置变体。
// 未识别的订单类型与缺失必填字段均返回 ErrValidation，不做静默兜底。
func BuildOrderConfig(orderType OrderType, p ConfigParams) (OrderConfig, error) {
	if p.BaseSize == "" {
		return nil, fmt.Errorf("%w: base_size 不能为空", ErrValidation)
	}

	switch orderType {
	case OrderTypeMarket, OrderTypeMarketIOC:
		return MarketIOC{BaseSize: p.BaseSize}, nil
	case OrderTypeLimitIOC:
		return LimitIOC{BaseSize: p.BaseSize, LimitPrice: p.LimitPrice, PostOnly: p.PostOnly}, nil
	case OrderTypeLimitGTC:
		return LimitGTC{BaseSize: p.BaseSize, LimitPrice: p.LimitPrice, PostOnly: p.PostOnly}, nil
	case OrderTypeLimitGTD:
		if p.EndTime == "" {
			return nil, fmt.Errorf("%w: %s 缺少 end_time", ErrValidation, orderType)
		}
		return LimitGTD{BaseSize: p.BaseSize, EndTime: p.EndTime, LimitPrice: p.LimitPrice, PostOnly: p.PostOnly}, nil
	case OrderTypeLimitFOK:
		return LimitFOK{BaseSize: p.BaseSize, LimitPrice: p.LimitPrice, PostOnly: p.PostOnly}, nil
	case OrderTypeStopLimitGTC:
		return StopLimitGTC{
			BaseSize:      p.BaseSize,
			LimitPrice:    p.LimitPrice,
			StopPrice:     p.StopPrice,
			StopDirection: p.StopDirection,
		}, nil
	case OrderTypeStopLimitGTD:
		if p.EndTime == "" {
			return nil, fmt.Errorf("%w: %s 缺少 end_time", ErrValidation, orderType)
		}
		return StopLimitGTD{
			BaseSize:      p.BaseSize,
			EndTime:       p.EndTime,
			LimitPrice:    p.LimitPrice,
			StopPrice:     p.StopPrice,
			StopDirection: p.StopDirection,
		}, nil
	case OrderTypeBracketGTC:
		return BracketGTC{
			BaseSize:         p.BaseSize,
			LimitPrice:       p.LimitPrice,
			StopTriggerPrice: p.StopTriggerPrice,
		}, nil
	case OrderTypeBracketGTD:
		if p.EndTime == "" {
			return nil, fmt.Errorf("%w: %s 缺少 end_time", ErrValidation, orderType)
		}
		return BracketGTD{
			BaseSize:         p.BaseSize,
			EndTime:          p.EndTime,
			LimitPrice:       p.LimitPrice,
			StopTriggerPrice: p.StopTriggerPrice,
		}, nil
	default:
		return nil, fmt.Errorf("%w: 不支持的订单类型 %q", ErrValidation, orderType)
	}
}
