package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

const statusFileName = "status.json"

// StatusFile implements ports.StatusRepository using a JSON file.
type StatusFile struct {
	dir string
}

// NewStatusFile creates a StatusFile stored in dir.
func NewStatusFile(dir string) *StatusFile {
	return &StatusFile{dir: dir}
}

// Load retrieves the last saved status from disk.
// Returns an empty status and nil error if no status file exists.
func (r *StatusFile) Load(ctx context.Context) (domain.Status, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Status{}, nil
		}
		return domain.Status{}, err
	}

	var status domain.Status
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&status); err != nil {
		return domain.Status{}, err
	}
	return status, nil
}

// Save persists the status atomically.
// Readers either see the previous snapshot or the new one, never a torn file.
func (r *StatusFile) Save(ctx context.Context, status domain.Status) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}

	path := r.Path()
	tmp := path + ".tmp"

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}

	// Readable by pollers running as other users.
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// Path returns the full path to the status file.
func (r *StatusFile) Path() string {
	return filepath.Join(r.dir, statusFileName)
}

var _ ports.StatusRepository = (*StatusFile)(nil)
