// Package csvwriter writes backtest output as delimited text.
package csvwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Writer is a simple CSV writer.
type Writer struct {
	file   *os.File
	writer *csv.Writer
	logger *zap.Logger
	path   string
	rows   int
	mu     sync.Mutex
}

// NewWriter creates the file at filePath, along with any missing parent
// directories, and writes header as the first record.
func NewWriter(filePath string, header []string, logger *zap.Logger) (*Writer, error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for CSV file: %w", err)
		}
	}
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Writer{
		file:   file,
		writer: csv.NewWriter(file),
		logger: logger,
		path:   filePath,
	}
	if len(header) > 0 {
		if err := w.writer.Write(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	return w, nil
}

// Write writes a record to the CSV file.
func (w *Writer) Write(record []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record to CSV: %w", err)
	}
	w.rows++
	return nil
}

// Flush flushes any buffered data to the underlying file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	flushErr := w.Flush()
	closeErr := w.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush CSV file: %w", flushErr)
	}
	if closeErr != nil {
		return closeErr
	}
	w.logger.Info("CSV file written", zap.String("path", w.path), zap.Int("rows", w.rows))
	return nil
}
