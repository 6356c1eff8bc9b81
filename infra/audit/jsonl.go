package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/wiltonn/productfolio-sub002/core/forecast"
)

// JSONLStore appends forecast runs to a JSONL file.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

// Record appends the run as one JSON line and returns its id.
func (s *JSONLStore) Record(_ context.Context, run forecast.Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	if err := json.NewEncoder(f).Encode(run); err != nil {
		return "", err
	}
	return run.ID, nil
}

// Runs scans the file and returns records matching q in file order.
func (s *JSONLStore) Runs(_ context.Context, q RunQuery) ([]forecast.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var res []forecast.Run
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r forecast.Run
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, err
		}
		if q.Mode != "" && r.Mode != q.Mode {
			continue
		}
		if q.ScenarioID != "" && r.ScenarioID != q.ScenarioID {
			continue
		}
		if !q.Since.IsZero() && r.At.Before(q.Since) {
			continue
		}
		res = append(res, r)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
