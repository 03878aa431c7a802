package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Venue    VenueConfig    `mapstructure:"venue"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Fill     FillConfig     `mapstructure:"fill"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Database DatabaseConfig `mapstructure:"database"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// VenueConfig 描述交易场所连接信息。
type VenueConfig struct {
	Name       string      `mapstructure:"name"`
	APIKey     string      `mapstructure:"api_key"`
	APISecret  string      `mapstructure:"api_secret"`
	APIPass    string      `mapstructure:"api_password"`
	UseSandbox bool        `mapstructure:"use_sandbox"`
	Retry      RetryConfig `mapstructure:"retry"`
}

// RetryConfig 统一控制重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// TradingConfig 控制挂单价格推导。
type TradingConfig struct {
	RiskRewardRatio       float64 `mapstructure:"risk_reward_ratio"`
	StopLossBufferPercent float64 `mapstructure:"stop_loss_buffer_percent"`
}

// FillConfig 控制成交均价轮询。
type FillConfig struct {
	MaxWait      time.Duration `mapstructure:"max_wait"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// LedgerConfig 管理本地订单账本。
type LedgerConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// WebhookConfig 控制告警接收服务。
type WebhookConfig struct {
	Port int    `mapstructure:"port"`
	Path string `mapstructure:"path"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// 账本后端取值。
const (
	LedgerBackendFile   = "file"
	LedgerBackendSQLite = "sqlite"
)

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Venue.Name == "" {
		err = multierr.Append(err, errors.New("venue.name 不能为空"))
	}
	if c.Venue.Retry.MaxAttempts <= 0 {
		err = multierr.Append(err, errors.New("venue.retry.max_attempts 必须大于0"))
	}
	if c.Venue.Retry.MinDelay <= 0 || c.Venue.Retry.MaxDelay <= 0 {
		err = multierr.Append(err, errors.New("venue.retry.delay 必须为正"))
	}
	if c.Venue.Retry.MinDelay > c.Venue.Retry.MaxDelay {
		err = multierr.Append(err, errors.New("venue.retry.min_delay 不能大于 max_delay"))
	}
	if c.Trading.RiskRewardRatio <= 0 {
		err = multierr.Append(err, errors.New("trading.risk_reward_ratio 必须大于0"))
	}
	if c.Trading.StopLossBufferPercent < 0 || c.Trading.StopLossBufferPercent >= 100 {
		err = multierr.Append(err, errors.New("trading.stop_loss_buffer_percent 应位于[0,100)"))
	}
	if c.Fill.MaxWait <= 0 {
		err = multierr.Append(err, errors.New("fill.max_wait 必须大于0"))
	}
	if c.Fill.PollInterval <= 0 {
		err = multierr.Append(err, errors.New("fill.poll_interval 必须大于0"))
	}
	if c.Fill.PollInterval > c.Fill.MaxWait {
		err = multierr.Append(err, errors.New("fill.poll_interval 不能大于 max_wait"))
	}
	switch strings.ToLower(c.Ledger.Backend) {
	case LedgerBackendFile:
		if c.Ledger.Path == "" {
			err = multierr.Append(err, errors.New("ledger.path 不能为空"))
		}
	case LedgerBackendSQLite:
		if c.Database.Path == "" && !c.Database.InMemory {
			err = multierr.Append(err, errors.New("database.path 不能为空"))
		}
		if c.Database.MaxOpenConns <= 0 {
			err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
		}
		if c.Database.MaxIdleConns < 0 {
			err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
		}
		if c.Database.ConnMaxLifetime < 0 {
			err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("ledger.backend 不支持: %q", c.Ledger.Backend))
	}
	if c.Webhook.Port <= 0 || c.Webhook.Port > 65535 {
		err = multierr.Append(err, errors.New("webhook.port 必须位于(0,65535]"))
	}
	if !strings.HasPrefix(c.Webhook.Path, "/") {
		err = multierr.Append(err, errors.New("webhook.path 必须以 / 开头"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
