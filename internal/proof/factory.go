package proof

import (
	"context"
	"fmt"
	"strings"
)

// Options selects and configures an archive driver.
type Options struct {
	Driver          string
	LocalDir        string
	LocalURLPrefix  string
	PublicBaseURL   string
	S3Region        string
	S3Bucket        string
	S3PublicBaseURL string
}

type FactoryResult struct {
	Driver  string
	Archive Archive
}

// New builds the archive named by opts.Driver ("local" or "s3").
func New(ctx context.Context, opts Options) (FactoryResult, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		driver = "local"
	}

	switch driver {
	case "local":
		dir := opts.LocalDir
		if dir == "" {
			dir = "./storage/uploads"
		}
		return FactoryResult{Driver: "local", Archive: NewFileStore(dir, opts.LocalURLPrefix, opts.PublicBaseURL)}, nil

	case "s3":
		if opts.S3Region == "" || opts.S3Bucket == "" || opts.S3PublicBaseURL == "" {
			return FactoryResult{}, fmt.Errorf("S3 config missing: S3_REGION, S3_BUCKET, S3_PUBLIC_BASE_URL required")
		}
		s, err := NewS3Store(ctx, S3Config{
			Region:        opts.S3Region,
			Bucket:        opts.S3Bucket,
			PublicBaseURL: opts.S3PublicBaseURL,
		})
		if err != nil {
			return FactoryResult{}, err
		}
		return FactoryResult{Driver: "s3", Archive: s}, nil

	default:
		return FactoryResult{}, fmt.Errorf("unknown STORAGE_DRIVER: %s", driver)
	}
}
