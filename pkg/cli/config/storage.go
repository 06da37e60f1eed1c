package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/domain/interfaces"
	"github.com/m-mizutani/serialport/pkg/infra/storage"
	"github.com/urfave/cli/v3"
)

// Storage holds capture storage configuration
type Storage struct {
	OutputDir string
	GCSBucket string
	GCSPrefix string
}

// Flags returns CLI flags for capture storage
func (c *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output-dir",
			Usage:       "Directory for capture files",
			Value:       "captures",
			Destination: &c.OutputDir,
			Sources:     cli.EnvVars("SERIALPORT_OUTPUT_DIR"),
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Store captures in this GCS bucket instead of the output directory",
			Destination: &c.GCSBucket,
			Sources:     cli.EnvVars("SERIALPORT_GCS_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix in the GCS bucket",
			Value:       "captures",
			Destination: &c.GCSPrefix,
			Sources:     cli.EnvVars("SERIALPORT_GCS_PREFIX"),
		},
	}
}

// Configure returns the capture store selected by the flags
func (c *Storage) Configure(ctx context.Context) (interfaces.CaptureStore, error) {
	if c.GCSBucket != "" {
		store, err := storage.NewGCS(ctx, c.GCSBucket, c.GCSPrefix)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure GCS storage", goerr.V("bucket", c.GCSBucket))
		}
		return store, nil
	}

	if c.OutputDir == "" {
		return nil, goerr.New("output-dir or gcs-bucket is required")
	}
	return storage.NewLocal(c.OutputDir), nil
}
