package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"chainSync/internal/model"
)

// JsonlStorage writes accumulators and decode errors to JSONL files.
type JsonlStorage struct {
	path       string
	errorsPath string
	mu         sync.Mutex
}

// NewJsonlStorage writes accumulators to path. Decode errors go to
// errorsPath, or are dropped when it is empty.
func NewJsonlStorage(path, errorsPath string) *JsonlStorage {
	return &JsonlStorage{path: path, errorsPath: errorsPath}
}

// PutOnChainData appends non-empty accumulators as JSON lines.
func (s *JsonlStorage) PutOnChainData(_ context.Context, batch []*model.OnChainData) error {
	records := make([]*model.OnChainData, 0, len(batch))
	for _, data := range batch {
		if data == nil || data.Empty() {
			continue
		}
		records = append(records, data)
	}
	return appendLines(&s.mu, s.path, records)
}

// PutDecodeErrors appends decode errors as JSON lines.
func (s *JsonlStorage) PutDecodeErrors(errs []model.DecodeError) error {
	if s.errorsPath == "" {
		return nil
	}
	return appendLines(&s.mu, s.errorsPath, errs)
}

func appendLines[T any](mu *sync.Mutex, path string, records []T) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
