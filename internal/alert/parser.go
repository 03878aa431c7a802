package alert

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrParse 表示告警文本不匹配任何已知格式。
var ErrParse = errors.New("alert: 无法解析告警文本")

// 永续合约标准后缀，以及需要剥离的稳定币后缀（按优先级顺序）。
const perpSuffix = "-PERP-INTX"

var stableSuffixes = []string{"USDTC", "USDT", "USDC", "USD"}

var naturalPattern = regexp.MustCompile(
	`(?i)order (\w+) @ ([\d.]+) filled on ([A-Za-z0-9]+)\. New strategy position is (-?\d+)`,
)

// Parser 将告警文本解析为 TradeIntent。
type Parser struct {
	logger *zap.Logger
}

// NewParser 创建解析器。
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse 依次尝试自然语言格式与分号分隔格式，两者相互独立。
// 解析失败不产生任何部分结果。
func (p *Parser) Parse(raw string) (TradeIntent, error) {
	if intent, ok, err := p.parseNatural(raw); ok || err != nil {
		return intent, err
	}
	if intent, ok, err := p.parseDelimited(raw); ok || err != nil {
		return intent, err
	}
	return TradeIntent{}, fmt.Errorf("%w: %q", ErrParse, truncate(raw, 120))
}

// parseNatural 解析 TradingView 策略告警：
// "... order <action> @ <qty> filled on <TICKER>. New strategy position is <signed-int>"
func (p *Parser) parseNatural(raw string) (TradeIntent, bool, error) {
	match := naturalPattern.FindStringSubmatch(raw)
	if match == nil {
		return TradeIntent{}, false, nil
	}

	action, err := parseAction(match[1])
	if err != nil {
		return TradeIntent{}, true, err
	}

	contractField := match[2]
	contractValue, err := strconv.ParseFloat(contractField, 64)
	if err != nil {
		return TradeIntent{}, true, fmt.Errorf("%w: 合约数量无效 %q", ErrParse, contractField)
	}

	position, err := strconv.ParseInt(match[4], 10, 64)
	if err != nil {
		return TradeIntent{}, true, fmt.Errorf("%w: 策略仓位无效 %q", ErrParse, match[4])
	}

	intent := TradeIntent{
		Action: action,
		Ticker: NormalizeTicker(match[3]),
		Contract: Quantity{
			Value: contractValue,
			Whole: !strings.Contains(contractField, "."),
		},
		Position: float64(position),
	}

	p.logger.Debug("自然语言告警解析完成",
		zap.String("action", string(intent.Action)),
		zap.String("ticker", intent.Ticker),
		zap.Float64("position", intent.Position),
	)

	return intent, true, nil
}

// parseDelimited 解析分号分隔格式：
// ACTION;TICKER;QTY[;STOP_LOSS[;TAKE_PROFIT]]
func (p *Parser) parseDelimited(raw string) (TradeIntent, bool, error) {
	fields := strings.Split(strings.TrimSpace(raw), ";")
	if len(fields) < 3 || len(fields) > 5 {
		return TradeIntent{}, false, nil
	}

	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	action, err := parseAction(fields[0])
	if err != nil {
		return TradeIntent{}, true, err
	}

	ticker := fields[1]
	if ticker == "" {
		return TradeIntent{}, true, fmt.Errorf("%w: 缺少交易标的", ErrParse)
	}

	qty, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return TradeIntent{}, true, fmt.Errorf("%w: 数量无效 %q", ErrParse, fields[2])
	}

	intent := TradeIntent{
		Action:   action,
		Ticker:   NormalizeTicker(ticker),
		Contract: Quantity{Value: qty},
		Position: qty,
	}

	var stopField, takeField string
	if len(fields) >= 4 {
		stopField = fields[3]
	}
	if len(fields) == 5 {
		takeField = fields[4]
	}

	// 止盈必须与止损成对出现。
	if takeField != "" && stopField == "" {
		return TradeIntent{}, true, fmt.Errorf("%w: 止盈价必须与止损价同时提供", ErrParse)
	}

	if stopField != "" {
		stop, err := strconv.ParseFloat(stopField, 64)
		if err != nil {
			return TradeIntent{}, true, fmt.Errorf("%w: 止损价无效 %q", ErrParse, stopField)
		}
		intent.StopLoss = stop
	}
	if takeField != "" {
		take, err := strconv.ParseFloat(takeField, 64)
		if err != nil {
			return TradeIntent{}, true, fmt.Errorf("%w: 止盈价无效 %q", ErrParse, takeField)
		}
		intent.TakeProfit = take
	}

	p.logger.Debug("分隔符告警解析完成",
		zap.String("action", string(intent.Action)),
		zap.String("ticker", intent.Ticker),
		zap.Float64("position", intent.Position),
		zap.Float64("stop_loss", intent.StopLoss),
		zap.Float64("take_profit", intent.TakeProfit),
	)

	return intent, true, nil
}

// NormalizeTicker 将原始代码规范化为永续合约标的。
// 已规范化的输入保持不变（幂等）；否则剥离一个稳定币后缀并追加标准后缀。
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if strings.HasSuffix(t, perpSuffix) {
		return t
	}
	for _, suffix := range stableSuffixes {
		if strings.HasSuffix(t, suffix) {
			t = t[:len(t)-len(suffix)]
			break
		}
	}
	return t + perpSuffix
}

func parseAction(field string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "buy":
		return ActionBuy, nil
	case "sell":
		return ActionSell, nil
	default:
		return "", fmt.Errorf("%w: 未知交易方向 %q", ErrParse, field)
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
