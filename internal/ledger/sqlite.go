package ledger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"alert-trader/internal/store"
)

// SQLiteStore 以 SQLite 表实现账本，适合多次重启后仍需快速查询的场景。
type SQLiteStore struct {
	store  *store.Store
	logger *zap.Logger
}

// NewSQLiteStore 创建 SQLite 账本并初始化表结构。
func NewSQLiteStore(st *store.Store, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SQLiteStore{store: st, logger: logger}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS ledger_entries (
    local_id         INTEGER PRIMARY KEY,
    ts               TEXT NOT NULL,
    leg_role         TEXT NOT NULL,
    side             TEXT NOT NULL,
    product          TEXT NOT NULL,
    size             TEXT NOT NULL,
    status           TEXT NOT NULL,
    avg_filled_price TEXT NOT NULL DEFAULT '',
    venue_order_id   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_ts ON ledger_entries(ts);
`
	if _, err := s.store.DB().Exec(schema); err != nil {
		return fmt.Errorf("ledger: 初始化账本表失败: %w", err)
	}
	return nil
}

// NextID 返回最大编号加一，空表返回起始编号。
func (s *SQLiteStore) NextID(ctx context.Context) (int64, error) {
	var next int64
	row := s.store.DB().QueryRowContext(ctx,
		`SELECT COALESCE(MAX(local_id), ?) + 1 FROM ledger_entries`, FirstID-1)
	if err := row.Scan(&next); err != nil {
		return 0, fmt.Errorf("ledger: 查询下一编号失败: %w", err)
	}
	if next < FirstID {
		next = FirstID
	}
	return next, nil
}

// Append 插入一行终态记录。
func (s *SQLiteStore) Append(ctx context.Context, entry Entry) error {
	_, err := s.store.DB().ExecContext(ctx,
		`INSERT INTO ledger_entries
		 (local_id, ts, leg_role, side, product, size, status, avg_filled_price, venue_order_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.LocalID,
		entry.Timestamp.UTC().Format(time.RFC3339),
		entry.LegRole,
		entry.Side,
		entry.Product,
		entry.Size,
		entry.Status,
		entry.AvgFilledPrice,
		entry.VenueOrderID,
	)
	if err != nil {
		return fmt.Errorf("ledger: 写入账本失败: %w", err)
	}

	s.logger.Debug("账本已记账",
		zap.Int64("local_id", entry.LocalID),
		zap.String("leg_role", entry.LegRole),
		zap.String("status", entry.Status),
	)
	return nil
}

// Recent 返回最近的若干行，新行在前。
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.store.DB().QueryContext(ctx,
		`SELECT local_id, ts, leg_role, side, product, size, status, avg_filled_price, venue_order_id
		 FROM ledger_entries ORDER BY local_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: 查询账本失败: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var ts string
		if err := rows.Scan(
			&entry.LocalID,
			&ts,
			&entry.LegRole,
			&entry.Side,
			&entry.Product,
			&entry.Size,
			&entry.Status,
			&entry.AvgFilledPrice,
			&entry.VenueOrderID,
		); err != nil {
			return nil, fmt.Errorf("ledger: 读取账本行失败: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("ledger: 账本行时间 %q 非法: %w", ts, err)
		}
		entry.Timestamp = parsed
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: 遍历账本失败: %w", err)
	}
	return entries, nil
}
