// Package recordio reads and writes the line-delimited JSON chunk record
// files that connect the pipeline stages.
package recordio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/LUBTFY/agent-starter-pack/internal/model"
)

// Writer truncates the target file on open and appends one JSON record per
// line. Flush makes everything written so far durable against a later crash;
// the embedder calls it after every completed batch.
type Writer struct {
	f  *os.File
	bw *bufio.Writer
}

func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create record file: %w", err)
	}
	return &Writer{f: f, bw: bufio.NewWriter(f)}, nil
}

func (w *Writer) Write(rec *model.ChunkRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := w.bw.Write(data); err != nil {
		return err
	}
	return w.bw.WriteByte('\n')
}

func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	return w.f.Sync()
}

func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// ForEach streams records from path in file order. Returning an error from fn
// stops the scan and surfaces that error.
func ForEach(path string, fn func(rec *model.ChunkRecord) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open record file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		rec := &model.ChunkRecord{}
		if err := json.Unmarshal(raw, rec); err != nil {
			return fmt.Errorf("decode record at line %d: %w", line, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ReadAll is a convenience for small files and tests.
func ReadAll(path string) ([]*model.ChunkRecord, error) {
	var out []*model.ChunkRecord
	err := ForEach(path, func(rec *model.ChunkRecord) error {
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
