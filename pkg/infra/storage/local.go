package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/utils/logging"
)

type local struct {
	dir string
}

// NewLocal creates a CaptureStore writing <dir>/<session-id>.bin
func NewLocal(dir string) interfaces.CaptureStore {
	return &local{dir: dir}
}

// Save writes the capture with owner-only permissions
func (s *local) Save(ctx context.Context, result *model.CaptureResult, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return "", goerr.Wrap(err, "failed to create capture directory", goerr.V("dir", s.dir))
	}

	path := filepath.Join(s.dir, objectName(result))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", goerr.Wrap(err, "failed to write capture file", goerr.V("path", path))
	}

	logging.From(ctx).Debug("Saved capture file", "path", path, "size_bytes", len(data))
	return path, nil
}

func objectName(result *model.CaptureResult) string {
	return result.SessionID + ".bin"
}
