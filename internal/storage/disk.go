package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mathtutor-backend/internal/model"
	"mathtutor-backend/pkg/logger"
)

// DiskStore keeps the whole session collection in one JSON file.
// Writes go through a temp file plus rename so a crash mid-write never
// leaves a torn slot behind.
type DiskStore struct {
	path string
}

func NewDiskStore(dataDir, slotName string) (*DiskStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	return &DiskStore{
		path: filepath.Join(dataDir, slotName+".json"),
	}, nil
}

func (d *DiskStore) Load(ctx context.Context) ([]model.Session, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Session{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	var sessions []model.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		// Unparsable slot content counts as empty rather than fatal;
		// losing history beats refusing to start.
		logger.Warnf("Discarding malformed session slot %s: %v", d.path, err)
		return []model.Session{}, nil
	}

	return sessions, nil
}

func (d *DiskStore) Save(ctx context.Context, sessions []model.Session) error {
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	tempPath := d.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	if err := os.Rename(tempPath, d.path); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	return nil
}

func (d *DiskStore) Close() error {
	return nil
}
