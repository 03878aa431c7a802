package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileStore 以追加式 CSV 文件实现账本。
type FileStore struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// NewFileStore 创建 CSV 账本。
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return nil, fmt.Errorf("ledger: 账本路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ledger: 创建目录 %q 失败: %w", dir, err)
		}
	}
	return &FileStore{path: path, logger: logger}, nil
}

// NextID 返回最后一行编号加一，空账本返回起始编号。
func (s *FileStore) NextID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 账本不可读或末行编号非法时回到起始编号，不让编号分配卡死
	rows, err := s.readAll()
	if err != nil {
		s.logger.Warn("账本不可读，编号回到起始值", zap.Error(err))
		return FirstID, nil
	}
	if len(rows) == 0 {
		return FirstID, nil
	}

	last := rows[len(rows)-1]
	id, err := strconv.ParseInt(last[0], 10, 64)
	if err != nil {
		s.logger.Warn("账本最后一行编号非法，编号回到起始值",
			zap.String("value", last[0]),
			zap.Error(err),
		)
		return FirstID, nil
	}
	if id < FirstID-1 {
		return FirstID, nil
	}
	return id + 1, nil
}

// Append 追加一行终态记录。
func (s *FileStore) Append(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ledger: 打开账本失败: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(entryRecord(entry)); err != nil {
		return fmt.Errorf("ledger: 写入账本失败: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
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
func (s *FileStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, limit)
	for i := len(rows) - 1; i >= 0 && len(entries) < limit; i-- {
		entry, err := recordEntry(rows[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *FileStore) readAll() ([][]string, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: 读取账本失败: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = recordFields
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ledger: 解析账本失败: %w", err)
	}
	return rows, nil
}

const recordFields = 9

func entryRecord(entry Entry) []string {
	return []string{
		strconv.FormatInt(entry.LocalID, 10),
		entry.Timestamp.UTC().Format(time.RFC3339),
		entry.LegRole,
		entry.Side,
		entry.Product,
		entry.Size,
		entry.Status,
		entry.AvgFilledPrice,
		entry.VenueOrderID,
	}
}

func recordEntry(record []string) (Entry, error) {
	if len(record) != recordFields {
		return Entry{}, fmt.Errorf("ledger: 账本行字段数 %d 非法", len(record))
	}

	id, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: 账本行编号 %q 非法: %w", record[0], err)
	}
	ts, err := time.Parse(time.RFC3339, record[1])
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: 账本行时间 %q 非法: %w", record[1], err)
	}

	return Entry{
		LocalID:        id,
		Timestamp:      ts,
		LegRole:        record[2],
		Side:           record[3],
		Product:        record[4],
		Size:           record[5],
		Status:         record[6],
		AvgFilledPrice: record[7],
		VenueOrderID:   record[8],
	}, nil
}
