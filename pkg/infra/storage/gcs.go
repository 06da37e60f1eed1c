package storage

import (
	"context"
	"path"
	"strconv"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/domain/model"
	"github.com/m-mizutani/serialport/pkg/utils/logging"
	"google.golang.org/api/option"
)

type gcs struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS creates a CaptureStore uploading to gs://bucket/prefix/<session-id>.bin
func NewGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (interfaces.CaptureStore, error) {
	if bucket == "" {
		return nil, goerr.New("GCS bucket is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GCS client")
	}

	return &gcs{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Save uploads the capture; port and time range go into object metadata
func (s *gcs) Save(ctx context.Context, result *model.CaptureResult, data []byte) (string, error) {
	objName := path.Join(s.prefix, objectName(result))

	w := s.client.Bucket(s.bucket).Object(objName).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	w.Metadata = map[string]string{
		"session_id": result.SessionID,
		"port":       result.Port,
		"bytes":      strconv.Itoa(result.Bytes),
		"started_at": result.StartedAt.Format(time.RFC3339Nano),
		"ended_at":   result.EndedAt.Format(time.RFC3339Nano),
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write capture object",
			goerr.V("bucket", s.bucket), goerr.V("object", objName))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize capture object",
			goerr.V("bucket", s.bucket), goerr.V("object", objName))
	}

	location := "gs://" + s.bucket + "/" + objName
	logging.From(ctx).Debug("Uploaded capture", "location", location, "size_bytes", len(data))
	return location, nil
}
