// Package requestdir consumes time requests dropped as JSON files by the
// tray application. Each file is processed at most once: it is deleted
// after a successful read and also on parse failure, so a malformed file
// cannot wedge the spool.
package requestdir

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

const defaultMinutes = 15

// Request is the payload of one spooled file.
type Request struct {
	Username string `json:"username"`
	Minutes  int    `json:"minutes"`
	Reason   string `json:"reason"`
}

type Spool struct {
	dir string
}

// New ensures the spool directory exists and is writable by any user, so
// unprivileged tray processes can drop requests.
func New(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, err
	}
	// MkdirAll applies the umask; the spool must stay world-writable.
	if err := os.Chmod(dir, 0777); err != nil {
		return nil, err
	}
	return &Spool{dir: dir}, nil
}

// Consume reads and removes every pending request file, returning the
// requests that parsed.
func (s *Spool) Consume() []Request {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		slog.Error("failed to scan request dir", "dir", s.dir, "error", err)
		return nil
	}

	var requests []Request
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("failed to read request file", "path", path, "error", err)
			os.Remove(path)
			continue
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil || req.Username == "" {
			slog.Error("dropping malformed request file", "path", path, "error", err)
			os.Remove(path)
			continue
		}
		if req.Minutes <= 0 {
			req.Minutes = defaultMinutes
		}

		requests = append(requests, req)
		os.Remove(path)
	}
	return requests
}
