package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alert-trader/internal/alert"
	"alert-trader/internal/config"
	"alert-trader/internal/execution"
	"alert-trader/internal/ledger"
)

type planExecutor interface {
	ExecuteBracket(ctx context.Context, plan execution.Plan) (execution.Result, error)
}

// Server 接收 TradingView 告警并触发执行，同时暴露账本查询接口。
type Server struct {
	cfg      config.WebhookConfig
	trading  config.TradingConfig
	parser   *alert.Parser
	executor planExecutor
	store    ledger.Store
	logger   *zap.Logger
}

// NewServer 创建告警接收服务。
func NewServer(cfg config.WebhookConfig, trading config.TradingConfig, parser *alert.Parser, executor planExecutor, store ledger.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		trading:  trading,
		parser:   parser,
		executor: executor,
		store:    store,
		logger:   logger,
	}
}

// Handler 返回路由后的 HTTP 处理器。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleAlert)
	mux.HandleFunc("/ledger", s.handleLedger)
	return mux
}

// Run 启动服务并在 ctx 取消后优雅关闭。
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("关闭告警服务失败", zap.Error(err))
			return err
		}
		return nil
	})

	group.Go(func() error {
		s.logger.Info("告警服务已启动",
			zap.String("addr", addr),
			zap.String("path", s.cfg.Path),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	return group.Wait()
}

func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("处理告警时发生 panic", zap.Any("panic", rec))
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"status":  "error",
				"message": fmt.Sprint(rec),
			}, s.logger)
		}
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status":  "error",
			"message": err.Error(),
		}, s.logger)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "unknown"
	}
	s.logger.Info("收到告警",
		zap.String("content_type", contentType),
		zap.Int("bytes", len(raw)),
	)

	parsed := s.parseInputData(contentType, string(raw))

	if text, ok := parsed["text"].(string); ok && strings.TrimSpace(text) != "" {
		s.processAlertText(r.Context(), text, parsed)
	} else {
		s.logger.Info("载荷中没有有效的告警文本，跳过执行")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "received",
		"parsed_data": parsed,
	}, s.logger)
}

// parseInputData 按内容类型恢复告警文本。
func (s *Server) parseInputData(contentType, raw string) map[string]interface{} {
	switch {
	case strings.Contains(contentType, "application/json"):
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			s.logger.Warn("JSON 载荷解析失败", zap.Error(err))
			return map[string]interface{}{"error": "Invalid JSON"}
		}
		return data
	case strings.Contains(contentType, "text/plain"), strings.Contains(contentType, "unknown"):
		return map[string]interface{}{"text": raw}
	case strings.Contains(contentType, "tradingview-format"):
		data := map[string]interface{}{}
		for _, line := range strings.Split(raw, "\n") {
			if idx := strings.Index(line, "="); idx >= 0 {
				data[strings.TrimSpace(line[:idx])] = strings.TrimSpace(line[idx+1:])
			}
		}
		return map[string]interface{}{"tradingview_data": data}
	default:
		s.logger.Warn("无法识别的内容类型", zap.String("content_type", contentType))
		return map[string]interface{}{"warning": "Unrecognized content type"}
	}
}

func (s *Server) processAlertText(ctx context.Context, text string, parsed map[string]interface{}) {
	intent, err := s.parser.Parse(text)
	if err != nil {
		s.logger.Warn("告警文本解析失败", zap.Error(err))
		parsed["alert_parsed_error"] = err.Error()
		return
	}
	parsed["alert_parsed"] = intent

	plan, err := planFromIntent(intent, s.trading)
	if err != nil {
		s.logger.Warn("无法从告警构建计划", zap.Error(err))
		parsed["order_result"] = map[string]interface{}{"error": err.Error()}
		return
	}

	result, err := s.executor.ExecuteBracket(ctx, plan)
	if err != nil {
		s.logger.Error("告警执行失败", zap.Error(err))
		parsed["order_result"] = map[string]interface{}{
			"error": err.Error(),
			"legs":  legSummaries(result),
		}
		return
	}

	parsed["order_result"] = map[string]interface{}{
		"product":   result.Product,
		"direction": string(result.Direction),
		"entry_avg": result.EntryFillAvg,
		"legs":      legSummaries(result),
	}
}

func planFromIntent(intent alert.TradeIntent, trading config.TradingConfig) (execution.Plan, error) {
	size := math.Abs(intent.Position)
	if size == 0 {
		return execution.Plan{}, fmt.Errorf("webhook: 告警数量为零，无法执行")
	}

	direction := execution.DirectionLong
	if intent.Action == alert.ActionSell {
		direction = execution.DirectionShort
	}

	return execution.Plan{
		Product:       intent.Ticker,
		Direction:     direction,
		Size:          strconv.FormatFloat(size, 'f', -1, 64),
		StopLossPrice: intent.StopLoss,
		RiskReward:    trading.RiskRewardRatio,
		BufferPercent: trading.StopLossBufferPercent,
	}, nil
}

func legSummaries(result execution.Result) []map[string]interface{} {
	summaries := make([]map[string]interface{}, 0, len(result.Legs))
	for _, leg := range result.Legs {
		summaries = append(summaries, map[string]interface{}{
			"role":           string(leg.Role),
			"local_id":       leg.LocalID,
			"status":         leg.Status,
			"venue_order_id": leg.VenueOrderID,
		})
	}
	return summaries
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 200
	if qs := r.URL.Query().Get("limit"); qs != "" {
		if v, err := strconv.Atoi(qs); err == nil && v > 0 {
			if v > 1000 {
				v = 1000
			}
			limit = v
		}
	}

	entries, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	writeJSON(w, http.StatusOK, entries, s.logger)
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("写入响应失败", zap.Error(err))
	}
}
